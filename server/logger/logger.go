// Package logger builds the two log sinks the server writes to: an operational
// logger for user-safe summaries on stdout, and a restricted logger that appends
// full error detail to a local file with tightened permissions.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Pair bundles the two loggers so services can take them as one dependency.
type Pair struct {
	// Operational receives sanitized, user-safe log lines.
	Operational *slog.Logger
	// Restricted receives full error detail. Never surfaced to clients.
	Restricted *slog.Logger

	restrictedFile *os.File
}

// New constructs the logger pair. securePath is the restricted log file;
// if it cannot be opened the restricted logger falls back to stderr rather
// than failing startup.
func New(securePath string, debug bool) (*Pair, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	operational := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	var restrictedOut io.Writer = os.Stderr
	var restrictedFile *os.File
	if securePath != "" {
		if err := os.MkdirAll(filepath.Dir(securePath), 0o750); err != nil {
			operational.Warn("could not create restricted log directory, using stderr", "err", err)
		} else {
			f, err := os.OpenFile(securePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				operational.Warn("could not open restricted log file, using stderr", "path", securePath, "err", err)
			} else {
				restrictedOut = f
				restrictedFile = f
			}
		}
	}
	restricted := slog.New(slog.NewJSONHandler(restrictedOut, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return &Pair{
		Operational:    operational,
		Restricted:     restricted,
		restrictedFile: restrictedFile,
	}, nil
}

// Close releases the restricted log file, if one was opened.
func (p *Pair) Close() error {
	if p.restrictedFile == nil {
		return nil
	}
	if err := p.restrictedFile.Close(); err != nil {
		return errors.Wrap(err, "close restricted log")
	}
	return nil
}
