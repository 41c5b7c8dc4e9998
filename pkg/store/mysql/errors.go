package mysql

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist. Callers use
// errors.Is to distinguish it from transient storage failures.
var ErrNotFound = errors.New("record not found")

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
