package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONFloatMap is a custom type for JSON columns holding string->float maps
// (e.g. per-partition disk usage keyed by partition label)
type JSONFloatMap map[string]float64

// Scan implements sql.Scanner interface
func (j *JSONFloatMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONFloatMap value: %v", value)
	}
	result := make(map[string]float64)
	err := json.Unmarshal(bytes, &result)
	*j = JSONFloatMap(result)
	return err
}

// Value implements driver.Valuer interface
func (j JSONFloatMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// JSONFloatArray is a custom type for JSON columns holding ordered float slices
// (e.g. per-core CPU usage, index-aligned to core number)
type JSONFloatArray []float64

// Scan implements sql.Scanner interface
func (j *JSONFloatArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONFloatArray value: %v", value)
	}
	result := make([]float64, 0)
	err := json.Unmarshal(bytes, &result)
	*j = JSONFloatArray(result)
	return err
}

// Value implements driver.Valuer interface
func (j JSONFloatArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
