package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
)

// Execute runs the queue strictly in order with a single entry in
// flight. Per-entry failures are contained: the entry is marked Failed
// and execution continues. Two conditions stop the whole run: abort
// (ErrAborted) and connection loss (remote.ErrConnectionLost), the
// latter leaving untouched entries Pending so the host can resume after
// reconnecting.
func (q *Queue) Execute(ctx context.Context) error {
	if len(q.Conflicts()) > 0 {
		return ErrConflictUnresolved
	}
	if q.states.StartedAt.IsZero() {
		q.states.StartedAt = nowFunc()
	}

	// Index loop instead of range: directory expansion inserts entries
	// behind the cursor while we iterate.
	for i := 0; i < len(q.entries); i++ {
		if q.states.aborted {
			return ErrAborted
		}
		entry := q.entries[i]
		if entry.Status != StatusPending {
			continue
		}

		entry.Status = StatusInProgress
		q.notify()

		var err error
		if entry.Source.IsDir() {
			err = q.expandDirectory(ctx, i, entry)
		} else {
			err = q.transferFile(ctx, entry)
		}

		switch {
		case err == nil:
			entry.Status = StatusDone
			if !entry.Source.IsDir() {
				q.states.FileDone++
			}
			slog.Info("transfer complete", "direction", entry.Direction.String(), "source", entry.Source.Path, "dest", entry.DestPath)
		case errors.Is(err, ErrAborted):
			entry.Status = StatusFailed
			entry.Reason = ErrAborted
			q.notify()
			return ErrAborted
		case errors.Is(err, remote.ErrConnectionLost):
			// Pause the queue; the connection manager owns recovery.
			// The in-flight entry is marked Failed and needs a manual
			// re-enqueue once reconnected.
			entry.Status = StatusFailed
			entry.Reason = err
			slog.Error("transfer paused", "reason", "connection lost", "source", entry.Source.Path)
			q.notify()
			return fmt.Errorf("queue paused: %w", remote.ErrConnectionLost)
		default:
			entry.Status = StatusFailed
			entry.Reason = err
			slog.Error("transfer failed", "source", entry.Source.Path, "error", err)
		}
		q.notify()
	}
	return nil
}

// expandDirectory creates the destination directory and inserts the
// children right behind the current entry, so they execute next and in
// listing order. Children are discovered now rather than at enqueue, so
// changes between enqueue and execution are picked up.
func (q *Queue) expandDirectory(ctx context.Context, idx int, entry *Entry) error {
	var children []fs.Entry
	var err error

	if entry.Direction == Upload {
		if err = q.client.Mkdir(ctx, entry.DestPath); err != nil {
			return err
		}
		children, err = fs.ReadDir(entry.Source.Path)
	} else {
		if err = os.MkdirAll(entry.DestPath, 0755); err != nil {
			return err
		}
		children, err = q.client.List(ctx, entry.Source.Path)
	}
	if err != nil {
		return err
	}

	inserted := make([]*Entry, 0, len(children))
	for _, child := range children {
		if child.IsSymlink() {
			// Symlinks are not carried across hosts
			slog.Warn("skipping symlink", "path", child.Path)
			continue
		}
		inserted = append(inserted, &Entry{
			Source:    child,
			DestPath:  joinDest(entry.Direction, entry.DestPath, child.Name),
			Direction: entry.Direction,
			Status:    StatusPending,
			overwrite: entry.overwrite,
		})
		if !child.IsDir() {
			q.states.BytesTotal += child.Size
			q.states.FileTotal++
		}
	}

	tail := make([]*Entry, 0, len(q.entries)+len(inserted))
	tail = append(tail, q.entries[:idx+1]...)
	tail = append(tail, inserted...)
	tail = append(tail, q.entries[idx+1:]...)
	q.entries = tail
	return nil
}

// transferFile moves one file, reporting every chunk into the aggregate
// progress and honoring the abort flag at chunk boundaries
func (q *Queue) transferFile(ctx context.Context, entry *Entry) error {
	onChunk := func(bytes int64) error {
		q.states.BytesDone += bytes
		entry.BytesDone += bytes
		q.notify()
		if q.states.aborted {
			return ErrAborted
		}
		return nil
	}

	if entry.Direction == Upload {
		src, err := os.Open(entry.Source.Path)
		if err != nil {
			return fmt.Errorf("failed to open local file: %w", err)
		}
		defer src.Close()
		return q.client.Put(ctx, src, entry.Source.Size, entry.DestPath, onChunk)
	}

	dst, err := os.Create(entry.DestPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer dst.Close()
	return q.client.Get(ctx, entry.Source.Path, dst, onChunk)
}
