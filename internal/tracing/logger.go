package tracing

import (
	"io"
	"time"

	"github.com/hzqd/m2p/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelFor maps the -v count to a log level: warn by default, then info,
// debug and trace.
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger returns a console logger on stderr, teed into a rotated JSON log
// file when cfg.File is set. The closer releases the log file.
func NewLogger(verbosity int, cfg config.Log, stderr io.Writer, color bool) (zerolog.Logger, io.Closer) {
	console := zerolog.ConsoleWriter{
		Out:        stderr,
		NoColor:    !color,
		TimeFormat: time.TimeOnly,
	}
	var (
		w      io.Writer = console
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		w = zerolog.MultiLevelWriter(console, file)
		closer = file
	}
	logger := zerolog.New(w).Level(LevelFor(verbosity)).With().Timestamp().Logger()
	return logger, closer
}
