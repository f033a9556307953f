package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadDir lists a local directory as a fresh snapshot of entries
func ReadDir(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		path := filepath.Join(dir, d.Name())
		info, err := os.Lstat(path)
		if err != nil {
			// Entry vanished between ReadDir and Lstat
			continue
		}

		entry := Entry{
			Name:    d.Name(),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			entry.Kind = KindSymlink
			if target, err := os.Readlink(path); err == nil {
				entry.Target = target
			}
		case info.IsDir():
			entry.Kind = KindDirectory
		default:
			entry.Kind = KindFile
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Stat returns a snapshot entry for a single local path
func Stat(path string) (Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Name:    filepath.Base(path),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		entry.Kind = KindSymlink
		if target, err := os.Readlink(path); err == nil {
			entry.Target = target
		}
	case info.IsDir():
		entry.Kind = KindDirectory
	default:
		entry.Kind = KindFile
	}
	return entry, nil
}
