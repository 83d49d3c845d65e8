// Package logging wires slog to stdout plus a size-rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the process logger. When path is empty only stdout is
// used; otherwise output also goes to a rotating file capped at a few
// generations so long-running bots do not fill the disk.
func Setup(path string, level slog.Level) *slog.Logger {
	var w io.Writer = os.Stdout
	if path != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
