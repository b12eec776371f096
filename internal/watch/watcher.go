// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs work when files under a directory change.
//
// Filesystem events are filtered by doublestar patterns and coalesced: the
// callback fires once the directory has been quiet for the debounce period,
// with every path that changed since the previous call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is not set.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrAlreadyRunning is returned when Run is called a second time.
	ErrAlreadyRunning = errors.New("watcher already running")
	// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid watch pattern")

	// defaultIgnores covers VCS metadata, dependency caches and editor
	// temporaries.
	defaultIgnores = []string{
		"**/.git/**",
		"**/node_modules/**",
		"**/*.swp",
		"**/*.swo",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Options configures a Watcher.
	Options struct {
		// Dir is the watched directory. Empty means the working directory.
		Dir string
		// Patterns select the files that trigger a run, relative to Dir.
		// Empty means every file that is not ignored.
		Patterns []string
		// Ignore is added to the built-in ignore patterns.
		Ignore []string
		// Debounce is the quiet period before the callback fires.
		Debounce time.Duration
		// Logger receives diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// RunFunc receives the changed paths, relative to the watched directory
	// and sorted. Events arriving while it runs are kept for the next call.
	RunFunc func(ctx context.Context, changed []string)

	// InvalidPatternError reports a pattern doublestar cannot parse.
	InvalidPatternError struct {
		Pattern string
		Err     error
	}

	// Watcher monitors a directory tree. Run may be called once.
	Watcher struct {
		fsw      *fsnotify.Watcher
		dir      string
		patterns []string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid watch pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns ErrInvalidPattern for errors.Is() compatibility.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// New validates opts and registers every directory under opts.Dir that is
// not ignored.
func New(opts Options) (*Watcher, error) {
	for _, pat := range slices.Concat(opts.Patterns, opts.Ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, &InvalidPatternError{Pattern: pat, Err: doublestar.ErrBadPattern}
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve watch directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		dir:      abs,
		patterns: opts.Patterns,
		ignores:  slices.Concat(defaultIgnores, opts.Ignore),
		debounce: debounce,
		logger:   logger,
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run dispatches debounced changes to fn until ctx is canceled. It returns
// nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing file watcher", "err", err)
		}
	}()

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher event channel closed")
			}
			rel := w.rel(evt.Name)
			if evt.Has(fsnotify.Create) {
				w.addNewDir(evt.Name, rel)
			}
			if !w.Relevant(rel) {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.logger.Debug("change detected", "files", len(changed), "first", changed[0])
			fn(ctx, changed)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("file watcher failed: %w", err)
			}
			w.logger.Warn("file watcher", "err", err)
		}
	}
}

// Relevant reports whether a change to rel, relative to the watched
// directory, should trigger a run.
func (w *Watcher) Relevant(rel string) bool {
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return false
	}
	if len(w.patterns) == 0 {
		return true
	}
	return matchAny(w.patterns, rel)
}

// DefaultIgnores returns the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// addTree registers root and every directory below it that is not ignored.
// Unreadable directories are skipped.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("not watching", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.dir && w.ignored(w.rel(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("register watch directories: %w", err)
	}
	return nil
}

// addNewDir extends the watch to a directory created after startup.
func (w *Watcher) addNewDir(path, rel string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignored(rel) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("watching new directory", "path", rel, "err", err)
	}
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}
