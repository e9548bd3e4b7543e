package logger

import (
	"io"
	"log/slog"
	"os"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the optional supervisor log file.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Options configures the supervisor logger.
// Every event is emitted as one line: [timestamp] [LEVEL] [tag] message.
// If File is set, output is mirrored to a lumberjack-rotated file.
type Options struct {
	Level      slog.Level
	Writer     io.Writer // defaults to os.Stdout
	File       string    // optional rotated copy of all output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a slog.Logger emitting single-line, timestamped records.
// The returned closer is non-nil when a log file is configured and must be
// closed on shutdown.
func New(opts Options) (*slog.Logger, io.Closer) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	var closer io.Closer
	if opts.File != "" {
		f := &lj.Logger{
			Filename:   opts.File,
			MaxSize:    valOr(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(opts.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   opts.Compress,
		}
		w = io.MultiWriter(w, f)
		closer = f
	}
	return slog.New(NewLineHandler(w, opts.Level)), closer
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
