package vault

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the settle time applied when a watcher is created
// with a non-positive debounce interval.
const DefaultDebounce = 400 * time.Millisecond

// eventBuffer is the capacity of the outgoing event channel.
const eventBuffer = 64

// Op classifies a watch event.
type Op int

// Watch event operations.
const (
	// OpWrite means the file was created or modified and should be
	// scanned again.
	OpWrite Op = iota
	// OpRemove means the file was deleted or renamed away and its
	// tags should be dropped.
	OpRemove
)

var opNames = [...]string{
	OpWrite:  "write",
	OpRemove: "remove",
}

// String returns a short name for the operation.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Event is a debounced change to a note file. Path is vault-relative.
type Event struct {
	Path string
	Op   Op
}

// Watcher reports changes to matching files under a vault root.
// Rapid bursts of filesystem events for the same file are coalesced:
// events are accumulated and only flushed after the debounce interval,
// so an editor's write-rename dance produces a single event.
type Watcher struct {
	vault    *Vault
	fsw      *fsnotify.Watcher
	log      *slog.Logger
	debounce time.Duration
	events   chan Event

	mu      sync.Mutex
	pending map[string]fsnotify.Op
}

// NewWatcher creates a watcher over the vault. A non-positive debounce
// falls back to DefaultDebounce; a nil logger falls back to
// slog.Default.
func NewWatcher(v *Vault, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		vault:    v,
		fsw:      fsw,
		log:      logger,
		debounce: debounce,
		events:   make(chan Event, eventBuffer),
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Events returns the channel of debounced change events. The channel
// is closed when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start registers watches on the vault's directory tree and begins
// delivering events until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watchTree(w.vault.Root()); err != nil {
		return err
	}
	go w.run(ctx)
	w.log.Info("vault watcher started",
		"root", w.vault.Root(),
		"debounce", w.debounce)
	return nil
}

// Close stops the underlying filesystem watcher. The event channel is
// closed once the delivery goroutine drains.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// watchTree adds watches on root and every non-hidden subdirectory.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// run is the delivery loop. Raw fsnotify events are folded into the
// pending set; a ticker flushes the set every debounce interval.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.flush(ctx)
				return
			}
			w.fold(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", "error", err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// fold records a raw event in the pending set. New directories get a
// watch of their own so notes created inside them are seen.
func (w *Watcher) fold(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	rel, ok := w.vault.Rel(ev.Name)
	if !ok {
		return
	}
	if !w.vault.Match(rel) {
		if ev.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				w.watchNewDir(ev.Name)
			}
		}
		return
	}

	w.mu.Lock()
	w.pending[rel] |= ev.Op
	w.mu.Unlock()
	w.log.Debug("note changed", "path", rel, "op", ev.Op.String())
}

// watchNewDir starts watching a directory created after Start.
func (w *Watcher) watchNewDir(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("cannot watch new directory", "path", path, "error", err)
		return
	}
	w.log.Debug("watching new directory", "path", path)
}

// flush converts the pending set into Events. A file that no longer
// exists is reported as removed regardless of the raw operations seen,
// which collapses create-then-delete churn into a single remove.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	for rel, op := range batch {
		ev := Event{Path: rel, Op: OpWrite}
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			ev.Op = OpRemove
		}
		if _, err := os.Stat(w.vault.Abs(rel)); os.IsNotExist(err) {
			ev.Op = OpRemove
		} else if ev.Op == OpRemove {
			// Renamed but still present: the editor swapped a
			// temp file into place. Scan it.
			ev.Op = OpWrite
		}
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
