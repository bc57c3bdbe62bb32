// Package logging sets up the leveled console/file logger and the
// console progress reporter.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives every line in append mode.
	File string
	// Console is where interactive output goes. nil means os.Stderr.
	Console io.Writer
	// Quiet drops console output, leaving only the file. Used while the TUI owns the terminal.
	Quiet bool
	// Verbose forces debug level.
	Verbose bool
}

// Logger is a charm logger with an optional file sink. Call Close when done.
type Logger struct {
	*log.Logger

	mu   sync.Mutex
	file *os.File
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	levelName := strings.ToLower(opts.Level)
	if levelName == "" {
		levelName = "info"
	}
	if opts.Verbose {
		levelName = "debug"
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
	}

	var writers []io.Writer
	if !opts.Quiet {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		writers = append(writers, console)
	}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		writers = append(writers, f)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 1:
		out = writers[0]
	case 2:
		out = io.MultiWriter(writers...)
	}

	l.Logger = log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: opts.File != "",
		TimeFormat:      time.DateTime,
		Prefix:          "imgdeck",
	})
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
