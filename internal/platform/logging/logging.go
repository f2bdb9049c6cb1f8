package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

func logColors(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func NewHandler(level slog.Level, out io.Writer) slog.Handler {
	return tint.NewHandler(out, &tint.Options{
		AddSource: level == slog.LevelDebug,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if _, ok := attr.Value.Any().(error); attr.Key == "err" || ok {
				return tint.Attr(9, attr)
			}
			return attr
		},
		TimeFormat: time.RFC3339,
		NoColor:    !logColors(out),
	})
}

// Setup installs the default logger. When file is set, logs also go to a
// rotated file; the returned closer flushes it.
func Setup(level, file string) io.Closer {
	lvl := ParseLevel(level)
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
		closer = rotated
	}
	slog.SetDefault(slog.New(NewHandler(lvl, out)))
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
