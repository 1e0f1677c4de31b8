package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	logger := slog.New(h.Handler(nil))
	for i := range 5 {
		logger.Info(fmt.Sprintf("msg %d", i))
	}
	records := h.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "msg 2", records[0].Message)
	assert.Equal(t, "msg 4", records[2].Message)
}

func TestHistorySubscribers(t *testing.T) {
	h := NewHistory(0)
	logger := slog.New(h.Handler(nil))

	var got []string
	unsubscribe := h.Subscribe(func(r Record) { got = append(got, r.Message) })
	h.Subscribe(func(Record) { panic("boom") })

	logger.Warn("first", slog.Int("question", 3))
	unsubscribe()
	logger.Warn("second")

	assert.Equal(t, []string{"first question=3"}, got)
	assert.Len(t, h.Records(), 2)
}

func TestSuccessLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewHistory(10)
	logger := InitializeDefaultLogger(Options{Writer: &buf, History: h})

	Success(context.Background(), logger.With(slog.String("run", "x")), "submitted")

	assert.Contains(t, buf.String(), "level=SUCCESS")
	assert.Contains(t, buf.String(), "run=x")
	records := h.Records()
	require.Len(t, records, 1)
	assert.Equal(t, LevelSuccess, records[0].Level)
	assert.Contains(t, records[0].String(), "SUCCESS")
	assert.Equal(t, "submitted run=x", records[0].Message)
}

func TestDebugLevel(t *testing.T) {
	defer func(d bool) { Debug = d }(Debug)

	var buf bytes.Buffer
	logger := InitializeDefaultLogger(Options{Writer: &buf})
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	Debug = true
	logger = InitializeDefaultLogger(Options{Writer: &buf})
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerFromContext(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, LoggerFromContext(ctx))
	assert.NotNil(t, LoggerFromContext(context.Background()))
}
