package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestFor_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init("info", &buf)
	t.Cleanup(func() { Init("info", nil) })

	For("INDEXER").Info("indexed documents", "count", 2)
	For("INDEXER").Debug("hidden at info level")

	out := buf.String()
	assert.Contains(t, out, "component=INDEXER")
	assert.Contains(t, out, "count=2")
	assert.NotContains(t, out, "hidden at info level")
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	Init("info", &buf)
	t.Cleanup(func() { Init("info", nil) })

	log := For("SERVER")
	log.Debug("before")
	SetLevel("debug")
	log.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}
