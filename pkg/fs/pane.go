package fs

import (
	"sort"
	"strings"
)

// Sorting determines entry order within a pane
type Sorting int

const (
	SortByName Sorting = iota
	SortByModTime
	SortBySize
)

// Pane holds the browsing state for one side (local or remote).
// Entries always reflect the last successful listing of Wd; a failed
// re-list must leave the previous snapshot untouched, so callers only
// invoke SetEntries once a listing has succeeded.
type Pane struct {
	wd         string
	entries    []Entry
	raw        []Entry
	sorting    Sorting
	showHidden bool
	cursor     int
	marks      map[string]bool
}

// NewPane creates a pane rooted at wd with the given defaults
func NewPane(wd string, sorting Sorting, showHidden bool) *Pane {
	return &Pane{wd: wd, sorting: sorting, showHidden: showHidden}
}

// Wd returns the pane's current working directory
func (p *Pane) Wd() string { return p.wd }

// SetWd changes the working directory and drops the marks, which only
// make sense within one directory. Entries are not touched; the caller
// re-lists and calls SetEntries on success.
func (p *Pane) SetWd(wd string) {
	p.wd = wd
	p.marks = nil
}

// Entries returns the current (sorted, filtered) snapshot
func (p *Pane) Entries() []Entry { return p.entries }

// SetEntries replaces the snapshot with the result of a successful listing
func (p *Pane) SetEntries(entries []Entry) {
	p.raw = entries
	p.rebuild()
}

// Sorting returns the active sort order
func (p *Pane) Sorting() Sorting { return p.sorting }

// SetSorting changes the sort order and re-sorts the current snapshot
func (p *Pane) SetSorting(s Sorting) {
	p.sorting = s
	p.rebuild()
}

// ShowHidden reports whether dotfiles are visible
func (p *Pane) ShowHidden() bool { return p.showHidden }

// ToggleHidden flips the hidden-files filter
func (p *Pane) ToggleHidden() {
	p.showHidden = !p.showHidden
	p.rebuild()
}

// Cursor returns the selection index, always within [0, len(entries))
// unless the pane is empty
func (p *Pane) Cursor() int { return p.cursor }

// MoveCursor moves the selection by delta, clamped to the entry range
func (p *Pane) MoveCursor(delta int) {
	p.cursor += delta
	p.clampCursor()
}

// SetCursor places the selection at idx, clamped
func (p *Pane) SetCursor(idx int) {
	p.cursor = idx
	p.clampCursor()
}

// Selected returns the entry under the cursor, if any
func (p *Pane) Selected() (Entry, bool) {
	if p.cursor < 0 || p.cursor >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[p.cursor], true
}

// ToggleMark flips the mark on the entry under the cursor and advances
// the cursor so repeated presses mark a run of files
func (p *Pane) ToggleMark() {
	sel, ok := p.Selected()
	if !ok {
		return
	}
	if p.marks == nil {
		p.marks = make(map[string]bool)
	}
	if p.marks[sel.Name] {
		delete(p.marks, sel.Name)
	} else {
		p.marks[sel.Name] = true
	}
	p.MoveCursor(1)
}

// IsMarked reports whether the named entry carries a mark
func (p *Pane) IsMarked(name string) bool { return p.marks[name] }

// Marked returns the marked entries in display order. Empty when
// nothing is marked.
func (p *Pane) Marked() []Entry {
	if len(p.marks) == 0 {
		return nil
	}
	var marked []Entry
	for _, e := range p.entries {
		if p.marks[e.Name] {
			marked = append(marked, e)
		}
	}
	return marked
}

// ClearMarks drops every mark
func (p *Pane) ClearMarks() { p.marks = nil }

func (p *Pane) clampCursor() {
	if p.cursor >= len(p.entries) {
		p.cursor = len(p.entries) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *Pane) rebuild() {
	entries := make([]Entry, 0, len(p.raw))
	for _, e := range p.raw {
		if !p.showHidden && strings.HasPrefix(e.Name, ".") {
			continue
		}
		entries = append(entries, e)
	}
	sortEntries(entries, p.sorting)
	p.entries = entries
	p.clampCursor()
}

// sortEntries orders directories before files, then by the chosen key
func sortEntries(entries []Entry, s Sorting) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		switch s {
		case SortByModTime:
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.After(b.ModTime)
			}
		case SortBySize:
			if a.Size != b.Size {
				return a.Size > b.Size
			}
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
