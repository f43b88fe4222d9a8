package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/phihc116/attr-backfill/internals/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes to stdout and, unless cfg.File is empty, to a rotating log file.
// The returned closer flushes and closes the file.
func NewLogger(cfg config.LoggingConf, stdout io.Writer) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if stdout == nil {
		stdout = os.Stdout
	}
	console := stdout
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		closer = file
		out = zerolog.MultiLevelWriter(console, file)
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
