package taskmanager

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullTaskManager(t *testing.T) {
	tm := NewNullTaskManager()
	ctx := context.Background()

	queueLen, active, err := tm.QueueStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, queueLen)
	assert.Equal(t, 0, active)

	tasks, err := tm.ActiveTasks(ctx)
	assert.NoError(t, err)
	assert.Empty(t, tasks)

	assert.NoError(t, tm.Close())
}

func TestAsynqTaskManager_QueueStats(t *testing.T) {
	mr := miniredis.RunT(t)

	redisOpt := asynq.RedisClientOpt{Addr: mr.Addr()}
	client := asynq.NewClient(redisOpt)
	defer client.Close()

	_, err := client.Enqueue(asynq.NewTask("task:submit", []byte(`{"user":"a"}`)))
	require.NoError(t, err)
	_, err = client.Enqueue(asynq.NewTask("task:submit", []byte(`{"user":"b"}`)))
	require.NoError(t, err)

	tm := &AsynqTaskManager{inspector: asynq.NewInspector(redisOpt)}
	defer tm.Close()

	queueLen, active, err := tm.QueueStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, queueLen)
	assert.Equal(t, 0, active)
}

func TestPayloadDigest(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"empty", nil, ""},
		{"json", []byte(`{"cmd":"train"}`), `{"cmd":"train"}`},
		{"trims whitespace", []byte("  run.sh  \n"), "run.sh"},
		{"binary", []byte{0xff, 0xfe, 0x00}, "<binary payload, 3 bytes>"},
		{"truncated", []byte(strings.Repeat("x", 200)), strings.Repeat("x", 120) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payloadDigest(tt.payload))
		})
	}
}
