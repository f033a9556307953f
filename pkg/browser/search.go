package browser

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vantran/ferry/pkg/fs"
)

// Search scans a side recursively for entries whose name matches the
// glob pattern and mounts the result as the found pane. The scan checks
// ctx between directories, so the same abort signal used for transfers
// cancels an in-flight search.
func (b *Browser) Search(ctx context.Context, side Side, pattern string) (int, error) {
	if !doublestar.ValidatePattern(pattern) {
		return 0, fmt.Errorf("invalid pattern %q", pattern)
	}

	pane := b.Pane(side)
	var matches []fs.Entry
	if err := b.searchDir(ctx, side, pane.Wd(), pattern, &matches); err != nil {
		return 0, err
	}

	found := fs.NewPane(pane.Wd(), pane.Sorting(), true)
	found.SetEntries(matches)
	b.found = found
	b.foundSide = side
	return len(matches), nil
}

func (b *Browser) searchDir(ctx context.Context, side Side, dir, pattern string, matches *[]fs.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := b.readDir(ctx, side, dir)
	if err != nil {
		// Unreadable subdirectories below the root are skipped, the
		// root itself surfaces the error
		if dir == b.Pane(side).Wd() {
			return err
		}
		return nil
	}

	for _, entry := range entries {
		if ok, _ := doublestar.Match(pattern, entry.Name); ok {
			*matches = append(*matches, entry)
		}
		if entry.IsDir() {
			if err := b.searchDir(ctx, side, entry.Path, pattern, matches); err != nil {
				return err
			}
		}
	}
	return nil
}
