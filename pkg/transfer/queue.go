// Package transfer implements the ordered transfer queue with per-entry
// conflict resolution and a single-in-flight executor.
package transfer

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
)

// Direction of a transfer relative to the local host
type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// Status of one queue entry
type Status int

const (
	StatusPending Status = iota
	StatusConflict
	StatusSkipped
	StatusInProgress
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConflict:
		return "conflict"
	case StatusSkipped:
		return "skipped"
	case StatusInProgress:
		return "in progress"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Decision resolves a destination conflict
type Decision int

const (
	ReplaceThis Decision = iota
	ReplaceAll
	SkipThis
	SkipAll
	AbortQueue
)

// Typed executor errors
var (
	ErrAborted            = errors.New("transfer aborted")
	ErrConflictUnresolved = errors.New("conflicts awaiting decision")
)

// swappable for tests
var nowFunc = time.Now

// Entry is one queued transfer. Directory entries expand lazily into
// child entries at dequeue time, once their own conflict is resolved.
type Entry struct {
	Source    fs.Entry
	DestPath  string
	Direction Direction
	Status    Status
	BytesDone int64 // progress of this entry while in flight
	Reason    error // set when Status is StatusFailed
	overwrite bool  // conflict resolved as replace; inherited by children
}

// States aggregates queue progress. Totals only grow during execution
// (lazy directory expansion), so done counters never exceed them.
type States struct {
	BytesTotal int64
	BytesDone  int64
	FileTotal  int
	FileDone   int
	StartedAt  time.Time
	aborted    bool
}

// Aborted reports whether the current queue was aborted. Terminal for
// the queue: no further entries execute after it is set.
func (s States) Aborted() bool { return s.aborted }

// Speed returns the average transfer rate in bytes per second
func (s States) Speed() float64 {
	elapsed := time.Since(s.StartedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.BytesDone) / elapsed
}

// Queue is the ordered transfer queue. All methods are called from the
// single tick thread; Abort is the only flag an in-flight progress
// callback observes.
type Queue struct {
	client  remote.Client
	entries []*Entry
	states  States

	// onProgress fires after every chunk and entry transition so the
	// host can mark the UI dirty. Optional.
	onProgress func(States)
}

// NewQueue creates a transfer queue executing against client
func NewQueue(client remote.Client) *Queue {
	return &Queue{client: client}
}

// SetProgressFunc registers the per-chunk progress hook
func (q *Queue) SetProgressFunc(fn func(States)) { q.onProgress = fn }

// Entries returns the queue contents in execution order
func (q *Queue) Entries() []*Entry { return q.entries }

// States returns the aggregate progress
func (q *Queue) States() States { return q.states }

// Conflicts returns the entries still awaiting a decision
func (q *Queue) Conflicts() []*Entry {
	var conflicts []*Entry
	for _, e := range q.entries {
		if e.Status == StatusConflict {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// Reset drops all entries and progress, ready for a new batch
func (q *Queue) Reset() {
	q.entries = nil
	q.states = States{}
}

// Abort requests cooperative cancellation. The in-flight transfer stops
// at the next chunk boundary; entries not yet started stay Pending or
// Skipped. Already-transferred files are not rolled back.
func (q *Queue) Abort() {
	q.states.aborted = true
}

// Enqueue builds queue entries for the selection. Each destination is
// stat'ed on the opposite side; an existing object marks the entry
// Conflict, requiring a decision before execution. Returns the number
// of conflicts found.
func (q *Queue) Enqueue(ctx context.Context, selection []fs.Entry, direction Direction, destDir string) (int, error) {
	conflicts := 0
	for _, src := range selection {
		dest := joinDest(direction, destDir, src.Name)
		entry := &Entry{
			Source:    src,
			DestPath:  dest,
			Direction: direction,
			Status:    StatusPending,
		}
		if q.destExists(ctx, direction, dest) {
			entry.Status = StatusConflict
			conflicts++
		}
		if !src.IsDir() {
			q.states.BytesTotal += src.Size
			q.states.FileTotal++
		}
		q.entries = append(q.entries, entry)
	}
	q.notify()
	return conflicts, nil
}

// destExists checks the destination side for an existing object
func (q *Queue) destExists(ctx context.Context, direction Direction, dest string) bool {
	if direction == Upload {
		_, err := q.client.Stat(ctx, dest)
		return err == nil
	}
	_, err := os.Lstat(dest)
	return err == nil
}

// Resolve applies a decision to one conflict entry. ReplaceAll and
// SkipAll pre-resolve every remaining conflict in the queue.
func (q *Queue) Resolve(entry *Entry, decision Decision) {
	switch decision {
	case ReplaceThis:
		entry.Status = StatusPending
		entry.overwrite = true
	case SkipThis:
		entry.Status = StatusSkipped
	case ReplaceAll:
		for _, e := range q.entries {
			if e.Status == StatusConflict {
				e.Status = StatusPending
				e.overwrite = true
			}
		}
	case SkipAll:
		for _, e := range q.entries {
			if e.Status == StatusConflict {
				e.Status = StatusSkipped
			}
		}
	case AbortQueue:
		q.Abort()
		for _, e := range q.entries {
			if e.Status == StatusConflict {
				e.Status = StatusSkipped
			}
		}
	}
	q.notify()
}

func (q *Queue) notify() {
	if q.onProgress != nil {
		q.onProgress(q.states)
	}
}

// joinDest joins destination paths with the separator conventions of
// the destination side
func joinDest(direction Direction, dir, name string) string {
	if direction == Upload {
		return path.Join(dir, name)
	}
	return filepath.Join(dir, name)
}
