package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewHandlerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(slog.LevelInfo, &buf))

	log.Debug("hidden")
	log.Warn("Dropping solve notification", slog.Any("err", errors.New("smtp down")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Dropping solve notification")
	assert.Contains(t, out, "smtp down")
	// a buffer is never a terminal
	assert.NotContains(t, out, "\x1b[")
}
