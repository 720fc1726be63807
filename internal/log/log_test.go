package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetOutput(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { logger.Store(prev) })

	var buf bytes.Buffer
	SetOutput(&buf, "warn")

	Info("hidden")
	Warn("function skipped", "function", "getUser", "file", "src/api.ts")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="function skipped"`)
	assert.Contains(t, out, "function=getUser")
	assert.Contains(t, out, "file=src/api.ts")
}

func TestInit_ExtraWriter(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { logger.Store(prev) })

	var buf bytes.Buffer
	Init("debug", &buf)
	Debug("loaded", "files", 3)

	assert.Contains(t, buf.String(), "files=3")
}
