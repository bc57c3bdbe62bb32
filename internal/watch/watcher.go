// Package watch reports image files that appear in hot folders.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/waabox/imgdeck/internal/domain"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore, when set, drops paths it returns true for. Used to skip files
	// the session itself wrote.
	Ignore func(path string) bool
	Logger *log.Logger
}

// Watcher monitors directories for new or rewritten image files.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	ignore   func(string) bool
	log      *log.Logger
}

// New watches each directory in dirs (not recursively).
func New(dirs []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch folder %s: %w", d, err)
		}
	}

	w := &Watcher{
		fs:       fsw,
		debounce: opts.Debounce,
		ignore:   opts.Ignore,
		log:      opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = log.New(io.Discard)
	}
	for _, d := range dirs {
		w.log.Info("watching folder", "dir", d)
	}
	return w, nil
}

// Run delivers settled image paths to handle until ctx is cancelled or the
// watcher is closed. handle is called from Run's goroutine, one path at a time.
func (w *Watcher) Run(ctx context.Context, handle func(path string)) error {
	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if t, exists := pending[ev.Name]; exists {
				t.Stop()
			}
			name := ev.Name
			pending[name] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case name := <-ready:
			delete(pending, name)
			info, err := os.Stat(name)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			w.log.Debug("file settled", "path", name)
			handle(name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if !domain.IsImagePath(path) {
		return false
	}
	return w.ignore == nil || !w.ignore(path)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
