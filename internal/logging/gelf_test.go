package logging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGelfWriter struct {
	messages []*gelf.Message
	err      error
}

func (w *fakeGelfWriter) WriteMessage(m *gelf.Message) error {
	w.messages = append(w.messages, m)
	return w.err
}

func TestGelfHandler_Message(t *testing.T) {
	w := &fakeGelfWriter{}
	logger := slog.New(NewGelfHandler(w, slog.LevelInfo))

	logger.Warn("platoon destroyed", "platoon", 12, "side", 2)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "platoon destroyed", msg.Short)
	assert.Equal(t, "1.1", msg.Version)
	assert.EqualValues(t, 4, msg.Level)
	assert.Positive(t, msg.TimeUnix)
	assert.Equal(t, int64(12), msg.Extra["_platoon"])
	assert.Equal(t, int64(2), msg.Extra["_side"])
}

func TestGelfHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  int
	}{
		{slog.LevelDebug, 7},
		{slog.LevelInfo, 6},
		{slog.LevelWarn, 4},
		{slog.LevelError, 3},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			w := &fakeGelfWriter{}
			slog.New(NewGelfHandler(w, slog.LevelDebug)).Log(t.Context(), tt.level, "x")

			require.Len(t, w.messages, 1)
			assert.EqualValues(t, tt.want, w.messages[0].Level)
		})
	}
}

func TestGelfHandler_FiltersLevel(t *testing.T) {
	w := &fakeGelfWriter{}
	logger := slog.New(NewGelfHandler(w, slog.LevelWarn))

	logger.Info("ignored")
	assert.Empty(t, w.messages)
}

func TestGelfHandler_AttrsAndGroups(t *testing.T) {
	w := &fakeGelfWriter{}
	logger := slog.New(NewGelfHandler(w, slog.LevelInfo)).
		With("component", "dispatcher").
		WithGroup("msg").
		With("kind", "UnitDied")

	logger.Info("delivered", "target", 0, slog.Group("pos", "x", 1.5))

	require.Len(t, w.messages, 1)
	extra := w.messages[0].Extra
	assert.Equal(t, "dispatcher", extra["_component"])
	assert.Equal(t, "UnitDied", extra["_msg.kind"])
	assert.Equal(t, int64(0), extra["_msg.target"])
	assert.Equal(t, 1.5, extra["_msg.pos.x"])
}

func TestGelfHandler_WriteError(t *testing.T) {
	w := &fakeGelfWriter{err: errors.New("unreachable")}
	h := NewGelfHandler(w, slog.LevelInfo)

	// the error reaches the caller, MultiHandler ignores it
	multi := NewMultiHandler(h)
	slog.New(multi).Info("still fine")
	assert.Len(t, w.messages, 1)
}
