package fs

import (
	"os"
	"time"
)

// EntryKind distinguishes the file types the panes care about
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindSymlink
)

// Entry is an immutable snapshot of one file or directory.
// Listings rebuild entries wholesale; they are never patched in place.
type Entry struct {
	Name    string
	Path    string // absolute path
	Kind    EntryKind
	Target  string // symlink target, empty otherwise
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// IsSymlink reports whether the entry is a symbolic link
func (e Entry) IsSymlink() bool {
	return e.Kind == KindSymlink
}
