package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("model loaded", "device", "cpu")
	assert.Contains(t, buf.String(), `"device":"cpu"`)

	buf.Reset()
	New(&buf, "warn", "text").Info("hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	New(&buf, "debug", "text").Debug("shown", "fps", 30)
	assert.Contains(t, buf.String(), "fps=30")
}

func TestOr(t *testing.T) {
	l := Discard()
	assert.Same(t, l, Or(l))
	assert.NotNil(t, Or(nil))
}
