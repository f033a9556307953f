// Package watcher observes registered local paths in the background and
// reports change events through a non-blocking poll. The notify producer
// goroutines are the only background threads in the application; their
// handoff to the tick loop is a bounded channel drained without blocking.
package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

const eventBufferSize = 64

// Typed watcher errors
var (
	ErrCapacityExceeded = errors.New("watched paths capacity exceeded")
	ErrClosed           = errors.New("watcher is closed")
	ErrAlreadyWatched   = errors.New("path is already watched")
	ErrNotWatched       = errors.New("path is not watched")
)

// EventKind classifies a filesystem change
type EventKind int

const (
	Created EventKind = iota
	Modified
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Event is one observed change on a watched path
type Event struct {
	Kind EventKind
	Path string
}

// Watcher registers local paths with the OS notification facility and
// buffers their events for polling
type Watcher struct {
	mu       sync.Mutex
	maxPaths int
	dedupWin time.Duration
	points   map[string]*watchPoint
	events   chan Event
	lastSeen map[string]time.Time
	closed   bool
	wg       sync.WaitGroup
}

// watchPoint is one registered path. The notify channel is never
// closed: notify.Stop does not synchronize with in-flight sends, so
// the forwarder is told to stop through done instead.
type watchPoint struct {
	ch   chan notify.EventInfo
	done chan struct{}
}

// Init starts change detection with an empty path set. dedupWin
// suppresses bursts of identical events on the same path (inotify emits
// a burst of writes while a file is being written).
func Init(dedupWin time.Duration, maxPaths int) (*Watcher, error) {
	if maxPaths <= 0 {
		return nil, fmt.Errorf("invalid watcher capacity %d", maxPaths)
	}
	return &Watcher{
		maxPaths: maxPaths,
		dedupWin: dedupWin,
		points:   make(map[string]*watchPoint),
		events:   make(chan Event, eventBufferSize),
		lastSeen: make(map[string]time.Time),
	}, nil
}

// Watch registers a path for recursive change detection. Exceeding the
// capacity fails with ErrCapacityExceeded and leaves the set unchanged.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if _, exists := w.points[path]; exists {
		return ErrAlreadyWatched
	}
	if len(w.points) >= w.maxPaths {
		return ErrCapacityExceeded
	}

	p := &watchPoint{
		ch:   make(chan notify.EventInfo, eventBufferSize),
		done: make(chan struct{}),
	}
	if err := notify.Watch(path+"/...", p.ch, notify.Create, notify.Write, notify.Remove, notify.Rename); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w.points[path] = p
	w.wg.Add(1)
	go w.forward(p)

	slog.Info("watching path", "path", path)
	return nil
}

// Unwatch deregisters a path
func (w *Watcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.points[path]
	if !exists {
		return ErrNotWatched
	}
	notify.Stop(p.ch)
	close(p.done)
	delete(w.points, path)

	slog.Info("unwatched path", "path", path)
	return nil
}

// IsWatched reports whether path is registered
func (w *Watcher) IsWatched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, exists := w.points[path]
	return exists
}

// WatchedPaths returns the registered paths, sorted
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.points))
	for path := range w.points {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Poll returns the events buffered since the last call without ever
// blocking the caller
func (w *Watcher) Poll() []Event {
	var events []Event
	for {
		select {
		case ev := <-w.events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// Close stops every producer and waits for them to finish. Events still
// buffered can be drained with Poll afterwards.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for path, p := range w.points {
		notify.Stop(p.ch)
		close(p.done)
		delete(w.points, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	slog.Info("watcher stopped")
}

// forward converts raw notify events and pushes them into the bounded
// buffer, dropping on overflow rather than blocking the producer
func (w *Watcher) forward(p *watchPoint) {
	defer w.wg.Done()
	for {
		var info notify.EventInfo
		select {
		case <-p.done:
			return
		case info = <-p.ch:
		}
		ev := Event{Path: info.Path()}
		switch info.Event() {
		case notify.Create:
			ev.Kind = Created
		case notify.Remove, notify.Rename:
			ev.Kind = Removed
		default:
			ev.Kind = Modified
		}

		if w.suppress(ev) {
			continue
		}

		select {
		case w.events <- ev:
		default:
			slog.Warn("watcher event dropped", "reason", "buffer full", "path", ev.Path)
		}
	}
}

// suppress drops duplicate events for the same path and kind arriving
// within the dedup window
func (w *Watcher) suppress(ev Event) bool {
	if w.dedupWin <= 0 {
		return false
	}
	key := fmt.Sprintf("%d:%s", ev.Kind, ev.Path)

	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.lastSeen[key]; ok && now.Sub(last) < w.dedupWin {
		return true
	}
	w.lastSeen[key] = now
	return false
}
