// Package logging builds the process logger: a rotating file plus an optional stderr tee.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvFile overrides the log file path. Setting it to "-" disables the file log.
const EnvFile = "CODEPAL_LOG_FILE"

// Options configures New.
type Options struct {
	Path    string    // log file; defaults to DefaultPath(). EnvFile takes precedence.
	Verbose bool      // also write debug-level records to Stderr
	Stderr  io.Writer // defaults to os.Stderr
}

// DefaultPath returns ~/.codepal/logs/codepal.log, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codepal", "logs", "codepal.log")
}

// New returns a logger writing text records to a size-rotated file, and the closer for that file. If no file can be used and
// Verbose is off, the logger discards. Close is safe to call regardless.
func New(opts Options) (*slog.Logger, io.Closer) {
	path := opts.Path
	if v, ok := os.LookupEnv(EnvFile); ok && v != "" {
		path = v
	}
	if path == "" {
		path = DefaultPath()
	}

	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	if path != "" && path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   path,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
			closer = lj
			handlers = append(handlers, slog.NewTextHandler(lj, &slog.HandlerOptions{Level: slog.LevelInfo}))
		}
	}
	if opts.Verbose {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.DiscardHandler), closer
	case 1:
		return slog.New(handlers[0]), closer
	default:
		return slog.New(fanout(handlers)), closer
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
