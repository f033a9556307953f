// Package browser composes the local and remote panes plus the optional
// found pane for search results, and owns the sync-browsing flag that
// keeps the two working directories mirrored.
package browser

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
)

// Side identifies a pane
type Side int

const (
	SideLocal Side = iota
	SideRemote
)

func (s Side) String() string {
	if s == SideLocal {
		return "local"
	}
	return "remote"
}

// Browser owns both panes and the cross-pane behaviors
type Browser struct {
	client remote.Client
	local  *fs.Pane
	remote *fs.Pane

	found     *fs.Pane
	foundSide Side

	syncBrowsing bool

	localHistory  []string
	remoteHistory []string
}

// New creates a browser over the given panes and remote capability
func New(client remote.Client, local, remotePane *fs.Pane) *Browser {
	return &Browser{client: client, local: local, remote: remotePane}
}

// Local returns the local pane
func (b *Browser) Local() *fs.Pane { return b.local }

// Remote returns the remote pane
func (b *Browser) Remote() *fs.Pane { return b.remote }

// Pane returns the pane for a side
func (b *Browser) Pane(side Side) *fs.Pane {
	if side == SideLocal {
		return b.local
	}
	return b.remote
}

// Found returns the search-result pane if a search is active
func (b *Browser) Found() (*fs.Pane, Side, bool) {
	return b.found, b.foundSide, b.found != nil
}

// DismissFound leaves search mode
func (b *Browser) DismissFound() { b.found = nil }

// SyncBrowsing reports whether directory changes mirror across panes
func (b *Browser) SyncBrowsing() bool { return b.syncBrowsing }

// List re-reads a pane's working directory. On failure the previous
// snapshot is left untouched and the error is returned for logging.
func (b *Browser) List(ctx context.Context, side Side) error {
	pane := b.Pane(side)
	entries, err := b.readDir(ctx, side, pane.Wd())
	if err != nil {
		return fmt.Errorf("failed to list %s directory %s: %w", side, pane.Wd(), err)
	}
	pane.SetEntries(entries)
	return nil
}

func (b *Browser) readDir(ctx context.Context, side Side, dir string) ([]fs.Entry, error) {
	if side == SideLocal {
		return fs.ReadDir(dir)
	}
	return b.client.List(ctx, dir)
}

// EnterDirectory validates the entry is a directory, changes the pane's
// working directory and re-lists. On failure the previous directory and
// snapshot are restored.
func (b *Browser) EnterDirectory(ctx context.Context, side Side, entry fs.Entry) error {
	if !entry.IsDir() {
		return fmt.Errorf("%s is not a directory", entry.Name)
	}
	return b.ChangeDirectory(ctx, side, entry.Path)
}

// ChangeDirectory moves a pane to dir, recording the previous directory
// in the side's history
func (b *Browser) ChangeDirectory(ctx context.Context, side Side, dir string) error {
	pane := b.Pane(side)
	prev := pane.Wd()

	pane.SetWd(dir)
	if err := b.List(ctx, side); err != nil {
		pane.SetWd(prev)
		return err
	}
	pane.SetCursor(0)
	b.pushHistory(side, prev)
	return nil
}

// GoToParent moves a pane to its parent directory
func (b *Browser) GoToParent(ctx context.Context, side Side) error {
	pane := b.Pane(side)
	parent := parentDir(side, pane.Wd())
	if parent == pane.Wd() {
		return nil
	}
	return b.ChangeDirectory(ctx, side, parent)
}

// GoToPrevious pops the side's directory history
func (b *Browser) GoToPrevious(ctx context.Context, side Side) error {
	prev, ok := b.popHistory(side)
	if !ok {
		return nil
	}
	pane := b.Pane(side)
	old := pane.Wd()
	pane.SetWd(prev)
	if err := b.List(ctx, side); err != nil {
		pane.SetWd(old)
		// Push it back so the user can retry
		b.pushHistory(side, prev)
		return err
	}
	pane.SetCursor(0)
	return nil
}

func (b *Browser) pushHistory(side Side, dir string) {
	if side == SideLocal {
		b.localHistory = append(b.localHistory, dir)
	} else {
		b.remoteHistory = append(b.remoteHistory, dir)
	}
}

func (b *Browser) popHistory(side Side) (string, bool) {
	history := &b.localHistory
	if side == SideRemote {
		history = &b.remoteHistory
	}
	if len(*history) == 0 {
		return "", false
	}
	last := (*history)[len(*history)-1]
	*history = (*history)[:len(*history)-1]
	return last, true
}

func parentDir(side Side, dir string) string {
	if side == SideLocal {
		return filepath.Dir(dir)
	}
	return path.Dir(dir)
}

// joinFor joins a name onto a side's working directory with that side's
// separator conventions
func joinFor(side Side, dir, name string) string {
	if side == SideLocal {
		return filepath.Join(dir, name)
	}
	return path.Join(dir, name)
}

// Other returns the opposite side
func Other(side Side) Side {
	if side == SideLocal {
		return SideRemote
	}
	return SideLocal
}

// SyncDivergence describes the directory that must be created on the
// other side to keep sync-browsing mirrored. The engine turns it into a
// confirmation popup rather than creating directories silently.
type SyncDivergence struct {
	Side Side   // side missing the directory
	Path string // directory that would be created
}

// ToggleSyncBrowsing flips the flag. Turning it on requires both panes
// to have a working directory and checks whether the two directories
// already mirror each other (same leaf name); when they diverge, the
// returned divergence proposes creating the mirrored directory remotely.
func (b *Browser) ToggleSyncBrowsing() (*SyncDivergence, error) {
	if b.syncBrowsing {
		b.syncBrowsing = false
		return nil, nil
	}
	localWd, remoteWd := b.local.Wd(), b.remote.Wd()
	if localWd == "" || remoteWd == "" {
		return nil, fmt.Errorf("both panes must have a working directory")
	}
	b.syncBrowsing = true

	localLeaf := filepath.Base(localWd)
	remoteLeaf := path.Base(remoteWd)
	if localLeaf == remoteLeaf || isRoot(localWd) || isRoot(remoteWd) {
		return nil, nil
	}
	return &SyncDivergence{
		Side: SideRemote,
		Path: path.Join(remoteWd, localLeaf),
	}, nil
}

func isRoot(dir string) bool {
	return dir == "/" || dir == filepath.Dir(dir)
}

// SyncedPath computes the mirrored directory on the opposite side for a
// directory entered on side. Used while sync-browsing is active.
func (b *Browser) SyncedPath(side Side, name string) string {
	other := Other(side)
	return joinFor(other, b.Pane(other).Wd(), name)
}
