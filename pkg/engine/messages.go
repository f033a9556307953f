package engine

import (
	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/transfer"
)

// Msg is any event the activity can process. Every message belongs to
// exactly one category: pending-action, transfer, or ui. Each category
// has its own transition function; all of them run on the tick loop,
// one message at a time.
type Msg interface{ isMsg() }

// PendingActionMsg advances the head of the pending-action queue
type PendingActionMsg interface {
	Msg
	isPendingAction()
}

// TransferMsg requests a file operation against either pane
type TransferMsg interface {
	Msg
	isTransfer()
}

// UiMsg mutates view state: popups, focus, sorting, session lifecycle
type UiMsg interface {
	Msg
	isUi()
}

type pendingActionMsg struct{}

func (pendingActionMsg) isMsg()           {}
func (pendingActionMsg) isPendingAction() {}

type transferMsg struct{}

func (transferMsg) isMsg()      {}
func (transferMsg) isTransfer() {}

type uiMsg struct{}

func (uiMsg) isMsg() {}
func (uiMsg) isUi() {}

// --- pending-action messages ---

// CloseReplacePopups reports that the user resolved a file conflict.
// AbortQueue discards the remainder of the pending chain.
type CloseReplacePopups struct {
	pendingActionMsg
	Decision transfer.Decision
}

// CloseSyncBrowsingMkdirPopup reports the user's answer to the
// "create missing directory on the other side?" prompt
type CloseSyncBrowsingMkdirPopup struct {
	pendingActionMsg
	Confirmed bool
}

// MakePendingDirectory consumes the queued make-directory step
type MakePendingDirectory struct{ pendingActionMsg }

// TransferPendingFile consumes the queued transfer step
type TransferPendingFile struct{ pendingActionMsg }

// --- transfer messages ---

// TransferCurrent copies the focused pane's marked entries, or its
// cursor selection when nothing is marked, to the other side
type TransferCurrent struct{ transferMsg }

// ToggleMark flips the transfer mark on the focused pane's selection
type ToggleMark struct{ transferMsg }

// AbortTransfer raises the queue's cooperative abort flag; it takes
// effect at the next chunk or entry boundary
type AbortTransfer struct{ transferMsg }

// EnterDirectory descends into the focused pane's selected directory
type EnterDirectory struct{ transferMsg }

// GoTo changes the focused pane's working directory to an absolute or
// relative path
type GoTo struct {
	transferMsg
	Path string
}

// GoToParent ascends one level in the focused pane
type GoToParent struct{ transferMsg }

// GoToPrevious pops the focused pane's directory history
type GoToPrevious struct{ transferMsg }

// ReloadDirectory re-lists the focused pane's working directory
type ReloadDirectory struct{ transferMsg }

// Mkdir creates a directory relative to the focused pane's wd
type Mkdir struct {
	transferMsg
	Name string
}

// NewFile creates an empty file relative to the focused pane's wd
type NewFile struct {
	transferMsg
	Name string
}

// RenameFile renames the focused pane's selection
type RenameFile struct {
	transferMsg
	Name string
}

// DeleteFile removes the focused pane's selection
type DeleteFile struct{ transferMsg }

// CopyFileTo duplicates the focused pane's selection on the same side
type CopyFileTo struct {
	transferMsg
	Dest string
}

// SaveFileAs transfers the selection to the other side under a new name
type SaveFileAs struct {
	transferMsg
	Name string
}

// CreateSymlink makes a symbolic link next to the selection
type CreateSymlink struct {
	transferMsg
	Target string
}

// ExecuteCommand runs a shell command in the focused pane's wd
type ExecuteCommand struct {
	transferMsg
	Command string
}

// SearchFiles runs a recursive glob search on the focused side
type SearchFiles struct {
	transferMsg
	Pattern string
}

// OpenFile opens the selection with the platform handler, fetching
// remote files into the local cache first
type OpenFile struct{ transferMsg }

// OpenFileWith opens the selection with a named program
type OpenFileWith struct {
	transferMsg
	Program string
}

// ToggleWatch starts or stops watching the selected local directory
type ToggleWatch struct{ transferMsg }

// UnwatchPath stops watching a path picked from the watched list
type UnwatchPath struct {
	transferMsg
	Path string
}

// --- ui messages ---

// ChangeFocus moves input focus to the other pane
type ChangeFocus struct{ uiMsg }

// ChangeSorting switches the focused pane's sort key
type ChangeSorting struct {
	uiMsg
	Sorting fs.Sorting
}

// ToggleHiddenFiles flips dotfile visibility on the focused pane
type ToggleHiddenFiles struct{ uiMsg }

// ToggleSyncBrowsing flips synchronized navigation
type ToggleSyncBrowsing struct{ uiMsg }

// ShowPopup mounts a popup over the panes
type ShowPopup struct {
	uiMsg
	Kind PopupKind
}

// ClosePopup unmounts the current popup
type ClosePopup struct{ uiMsg }

// CloseFindResults dismounts the search-results pane
type CloseFindResults struct{ uiMsg }

// Disconnect ends the session, returning to the entry surface
type Disconnect struct{ uiMsg }

// Quit ends the session and the program
type Quit struct{ uiMsg }
