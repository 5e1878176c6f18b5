package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Creates handler with inner JSON handler", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}}

		handler := NewPrettyHandler(&buf, opts)

		require.NotNil(t, handler)
		require.NotNil(t, handler.Handler)
		require.NotNil(t, handler.l)
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	newRecord := func(level slog.Level, message string, attrs ...slog.Attr) slog.Record {
		record := slog.NewRecord(time.Now(), level, message, 0)
		record.AddAttrs(attrs...)
		return record
	}

	t.Run("Formats level label and message", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		err := handler.Handle(context.Background(), newRecord(slog.LevelInfo, "Loaded catalog"))

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "INFO:")
		assert.Contains(t, output, "Loaded catalog")
	})

	t.Run("Empty attrs render as empty JSON object", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		err := handler.Handle(context.Background(), newRecord(slog.LevelWarn, "Seeding failed"))

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "WARN:")
		assert.Contains(t, buf.String(), "{}")
	})

	t.Run("Attrs render as JSON fields", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		record := newRecord(slog.LevelError, "Failed to generate description",
			slog.String("entity", "metric/revenue"),
			slog.Int("attempt", 3),
		)
		err := handler.Handle(context.Background(), record)

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "ERROR:")
		assert.Contains(t, output, `"entity":"metric/revenue"`)
		assert.Contains(t, output, `"attempt":3`)
	})

	t.Run("Debug level label", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		err := handler.Handle(context.Background(), newRecord(slog.LevelDebug, "Prompt built"))

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "DEBUG:")
	})
}

func TestPrettyHandlerWithLogger(t *testing.T) {
	t.Run("Works as slog handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{}))

		logger.Info("Run finished", slog.Int("generated", 2))

		output := buf.String()
		assert.Contains(t, output, "INFO:")
		assert.Contains(t, output, "Run finished")
		assert.Contains(t, output, `"generated":2`)
	})
}
