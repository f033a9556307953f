package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vantran/ferry/pkg/browser"
	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
	"github.com/vantran/ferry/pkg/transfer"
	"github.com/vantran/ferry/pkg/watcher"
)

// HandleMessage routes one message to its category's transition
// function. Exactly one function runs per message; each leaves the
// activity in a renderable state.
func (a *Activity) HandleMessage(ctx context.Context, msg Msg) {
	switch m := msg.(type) {
	case PendingActionMsg:
		a.updatePendingAction(ctx, m)
	case TransferMsg:
		a.updateTransfer(ctx, m)
	case UiMsg:
		a.updateUi(ctx, m)
	}
	a.redraw = true
}

// updatePendingAction advances the head of the pending-action queue in
// response to a user answer
func (a *Activity) updatePendingAction(ctx context.Context, msg PendingActionMsg) {
	switch m := msg.(type) {
	case CloseReplacePopups:
		a.closeReplacePopups(ctx, m.Decision)
	case CloseSyncBrowsingMkdirPopup:
		a.popup = Popup{}
		head, ok := a.pending.Head()
		if !ok || head.Kind != MakeDirectoryThen {
			return
		}
		a.pending.Pop()
		if !m.Confirmed {
			dropped := a.pending.DropChain(head.Chain)
			a.logf(LevelInfo, "directory creation declined, %d follow-up actions dropped", dropped)
			return
		}
		a.runPendingAction(ctx, head)
	case MakePendingDirectory:
		a.drainPending(ctx, MakeDirectoryThen)
	case TransferPendingFile:
		a.drainPending(ctx, AwaitConflictResolutionThen)
	}
}

// closeReplacePopups applies a conflict decision. Per-file decisions
// keep the popup mounted until every conflict has an answer; queue-wide
// decisions and abort settle everything at once.
func (a *Activity) closeReplacePopups(ctx context.Context, decision transfer.Decision) {
	conflicts := a.queue.Conflicts()
	if len(conflicts) == 0 {
		a.popup = Popup{}
		return
	}
	if decision == transfer.AbortQueue {
		a.queue.Resolve(conflicts[0], transfer.AbortQueue)
		a.popup = Popup{}
		if head, ok := a.pending.Head(); ok && head.Kind == AwaitConflictResolutionThen {
			a.pending.Pop()
			a.pending.DropChain(head.Chain)
		}
		a.logf(LevelWarn, "transfer aborted before start")
		return
	}

	a.queue.Resolve(conflicts[0], decision)
	if remaining := a.queue.Conflicts(); len(remaining) > 0 {
		a.popup = Popup{Kind: PopupReplace, Entries: conflictNames(remaining)}
		return
	}
	a.popup = Popup{}
	if head, ok := a.pending.Head(); ok && head.Kind == AwaitConflictResolutionThen {
		a.pending.Pop()
		a.runPendingAction(ctx, head)
	}
}

// drainPending pops and runs the head action when its kind matches the
// received message
func (a *Activity) drainPending(ctx context.Context, kind ActionKind) {
	head, ok := a.pending.Head()
	if !ok || head.Kind != kind {
		return
	}
	a.pending.Pop()
	a.runPendingAction(ctx, head)
}

func (a *Activity) runPendingAction(ctx context.Context, action Action) {
	if action.Run == nil {
		return
	}
	if err := action.Run(ctx); err != nil {
		dropped := a.pending.DropChain(action.Chain)
		if dropped > 0 {
			a.logf(LevelWarn, "%d follow-up actions dropped after failure", dropped)
		}
		a.mountError(err.Error())
	}
}

// updateTransfer handles file operations against either pane
func (a *Activity) updateTransfer(ctx context.Context, msg TransferMsg) {
	switch m := msg.(type) {
	case TransferCurrent:
		a.transferSelection(ctx, "")
	case ToggleMark:
		pane, _ := a.focusedPane()
		pane.ToggleMark()
		a.redraw = true
	case SaveFileAs:
		a.transferSelection(ctx, m.Name)
	case AbortTransfer:
		a.queue.Abort()
		a.logf(LevelWarn, "abort requested")
	case EnterDirectory:
		a.enterSelected(ctx)
	case GoTo:
		a.goTo(ctx, m.Path)
	case GoToParent:
		side := a.focusedSide()
		if err := a.browser.GoToParent(ctx, side); err != nil {
			a.mountError(err.Error())
			return
		}
		a.mirrorNavigation(ctx, side)
	case GoToPrevious:
		if err := a.browser.GoToPrevious(ctx, a.focusedSide()); err != nil {
			a.mountError(err.Error())
		}
	case ReloadDirectory:
		if err := a.browser.List(ctx, a.focusedSide()); err != nil {
			a.mountError(err.Error())
		}
	case Mkdir:
		a.makeDirectory(ctx, m.Name)
	case NewFile:
		a.newFile(ctx, m.Name)
	case RenameFile:
		a.renameSelected(ctx, m.Name)
	case DeleteFile:
		a.deleteSelected(ctx)
	case CopyFileTo:
		a.copySelected(ctx, m.Dest)
	case CreateSymlink:
		a.symlinkSelected(ctx, m.Target)
	case ExecuteCommand:
		a.execCommand(ctx, m.Command)
	case SearchFiles:
		a.search(ctx, m.Pattern)
	case OpenFile:
		a.openSelected(ctx, "")
	case OpenFileWith:
		a.openSelected(ctx, m.Program)
	case ToggleWatch:
		a.toggleWatch()
	case UnwatchPath:
		a.unwatch(m.Path)
	}
}

// updateUi handles view-state mutation
func (a *Activity) updateUi(ctx context.Context, msg UiMsg) {
	switch m := msg.(type) {
	case ChangeFocus:
		a.focused = browser.Other(a.focused)
	case ChangeSorting:
		pane, _ := a.focusedPane()
		pane.SetSorting(m.Sorting)
	case ToggleHiddenFiles:
		pane, _ := a.focusedPane()
		pane.ToggleHidden()
	case ToggleSyncBrowsing:
		a.toggleSyncBrowsing()
	case ShowPopup:
		a.showPopup(m.Kind)
	case ClosePopup:
		if a.popup.Kind == PopupFatal {
			a.exit = ExitDisconnect
		}
		a.popup = Popup{}
	case CloseFindResults:
		a.browser.DismissFound()
	case Disconnect:
		a.exit = ExitDisconnect
		a.logf(LevelInfo, "disconnecting from remote host")
	case Quit:
		a.exit = ExitQuit
	}
}

// showPopup mounts a popup, filling payloads that come from activity
// state
func (a *Activity) showPopup(kind PopupKind) {
	p := Popup{Kind: kind}
	switch kind {
	case PopupFileInfo:
		pane, _ := a.focusedPane()
		sel, ok := pane.Selected()
		if !ok {
			return
		}
		p.Info = sel
	case PopupWatchedPaths:
		p.Entries = a.WatchedPaths()
	}
	a.popup = p
}

// focusedPane resolves the pane the user is acting on: the search
// results when mounted, otherwise the focused browser pane
func (a *Activity) focusedPane() (*fs.Pane, browser.Side) {
	if found, side, ok := a.browser.Found(); ok {
		return found, side
	}
	return a.browser.Pane(a.focused), a.focused
}

func (a *Activity) focusedSide() browser.Side {
	_, side := a.focusedPane()
	return side
}

// transferSelection queues the focused selection toward the other side.
// A non-empty rename changes the destination leaf name (save-as).
func (a *Activity) transferSelection(ctx context.Context, rename string) {
	pane, side := a.focusedPane()
	selection := pane.Marked()
	if len(selection) == 0 || rename != "" {
		// Save-as always acts on the cursor entry alone
		sel, ok := pane.Selected()
		if !ok {
			return
		}
		if rename != "" {
			sel.Name = rename
		}
		selection = []fs.Entry{sel}
	}
	direction := transfer.Upload
	if side == browser.SideRemote {
		direction = transfer.Download
	}
	destDir := a.browser.Pane(browser.Other(side)).Wd()
	a.queue.Reset()
	pane.ClearMarks()
	a.enqueueAndRun(ctx, selection, direction, destDir)
}

// enqueueAndRun queues entries and either executes immediately or
// parks execution behind the user's conflict decision
func (a *Activity) enqueueAndRun(ctx context.Context, entries []fs.Entry, direction transfer.Direction, destDir string) {
	conflicts, err := a.queue.Enqueue(ctx, entries, direction, destDir)
	if err != nil {
		a.mountError(err.Error())
		return
	}
	if conflicts == 0 {
		a.runQueue(ctx)
		return
	}
	a.popup = Popup{Kind: PopupReplace, Entries: conflictNames(a.queue.Conflicts())}
	chain := a.pending.NewChain()
	a.pending.Push(Action{
		Kind:  AwaitConflictResolutionThen,
		Chain: chain,
		Run: func(ctx context.Context) error {
			a.runQueue(ctx)
			return nil
		},
	})
}

// runQueue executes the transfer queue synchronously on the tick
// thread, then refreshes both listings
func (a *Activity) runQueue(ctx context.Context) {
	a.transferring = true
	a.popup = Popup{Kind: PopupProgress}
	err := a.queue.Execute(ctx)
	a.transferring = false
	if a.popup.Kind == PopupProgress {
		a.popup = Popup{}
	}

	switch {
	case err == nil:
		st := a.queue.States()
		a.logf(LevelInfo, "transferred %d of %d files (%d bytes)", st.FileDone, st.FileTotal, st.BytesDone)
	case errors.Is(err, transfer.ErrAborted):
		a.logf(LevelWarn, "transfer aborted, remaining entries not started")
	case errors.Is(err, remote.ErrConnectionLost):
		a.conn.MarkLost()
		a.logf(LevelError, "connection lost mid-transfer, queue paused: %v", err)
	default:
		a.mountError(err.Error())
	}

	if lerr := a.browser.List(ctx, browser.SideLocal); lerr != nil {
		a.logf(LevelWarn, "%v", lerr)
	}
	if a.conn.State() == StateConnected {
		if lerr := a.browser.List(ctx, browser.SideRemote); lerr != nil {
			a.logf(LevelWarn, "%v", lerr)
		}
	}
}

// enterSelected descends into the selected directory and, with sync
// browsing on, mirrors the move on the other side
func (a *Activity) enterSelected(ctx context.Context) {
	pane, side := a.focusedPane()
	sel, ok := pane.Selected()
	if !ok {
		return
	}
	if !sel.IsDir() {
		return
	}
	if err := a.browser.EnterDirectory(ctx, side, sel); err != nil {
		a.mountError(err.Error())
		return
	}
	if !a.browser.SyncBrowsing() {
		return
	}
	other := browser.Other(side)
	mirrored := a.browser.SyncedPath(side, sel.Name)
	if err := a.browser.ChangeDirectory(ctx, other, mirrored); err == nil {
		return
	}
	// The mirrored directory does not exist yet; ask before creating it
	a.popup = Popup{Kind: PopupSyncBrowsingMkdir, Message: mirrored}
	chain := a.pending.NewChain()
	a.pending.Push(Action{
		Kind:  MakeDirectoryThen,
		Chain: chain,
		Run: func(ctx context.Context) error {
			if err := a.mkdirOn(ctx, other, mirrored); err != nil {
				return err
			}
			return a.browser.ChangeDirectory(ctx, other, mirrored)
		},
	})
}

// mirrorNavigation repeats a parent-directory move on the other side
// while sync browsing is active
func (a *Activity) mirrorNavigation(ctx context.Context, side browser.Side) {
	if !a.browser.SyncBrowsing() {
		return
	}
	if err := a.browser.GoToParent(ctx, browser.Other(side)); err != nil {
		a.logf(LevelWarn, "%v", err)
	}
}

func (a *Activity) goTo(ctx context.Context, target string) {
	pane, side := a.focusedPane()
	if !isAbs(side, target) {
		target = joinSide(side, pane.Wd(), target)
	}
	if err := a.browser.ChangeDirectory(ctx, side, target); err != nil {
		a.mountError(err.Error())
	}
}

func (a *Activity) makeDirectory(ctx context.Context, name string) {
	pane, side := a.focusedPane()
	dir := joinSide(side, pane.Wd(), name)
	if err := a.mkdirOn(ctx, side, dir); err != nil {
		a.mountError(fmt.Sprintf("could not create directory %s: %v", dir, err))
		return
	}
	a.logf(LevelInfo, "created directory %s", dir)
	a.reload(ctx, side)
}

func (a *Activity) mkdirOn(ctx context.Context, side browser.Side, dir string) error {
	if side == browser.SideLocal {
		return os.MkdirAll(dir, 0o755)
	}
	client, err := a.conn.Client()
	if err != nil {
		return err
	}
	return client.Mkdir(ctx, dir)
}

func (a *Activity) newFile(ctx context.Context, name string) {
	pane, side := a.focusedPane()
	dest := joinSide(side, pane.Wd(), name)
	if side == browser.SideLocal {
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			a.mountError(fmt.Sprintf("could not create file %s: %v", dest, err))
			return
		}
		f.Close()
	} else {
		client, err := a.conn.Client()
		if err != nil {
			a.mountError(err.Error())
			return
		}
		if _, err := client.Stat(ctx, dest); err == nil {
			a.mountError(fmt.Sprintf("file %s already exists", dest))
			return
		}
		if err := client.Put(ctx, bytes.NewReader(nil), 0, dest, nil); err != nil {
			a.mountError(fmt.Sprintf("could not create file %s: %v", dest, err))
			return
		}
	}
	a.logf(LevelInfo, "created file %s", dest)
	a.reload(ctx, side)
}

func (a *Activity) renameSelected(ctx context.Context, name string) {
	pane, side := a.focusedPane()
	sel, ok := pane.Selected()
	if !ok {
		return
	}
	dest := name
	if !isAbs(side, dest) {
		dest = joinSide(side, pane.Wd(), name)
	}
	var err error
	if side == browser.SideLocal {
		err = os.Rename(sel.Path, dest)
	} else {
		var client remote.Client
		if client, err = a.conn.Client(); err == nil {
			err = client.Rename(ctx, sel.Path, dest)
		}
	}
	if err != nil {
		a.mountError(fmt.Sprintf("could not move %s: %v", sel.Name, err))
		return
	}
	a.logf(LevelInfo, "moved %s to %s", sel.Path, dest)
	a.reload(ctx, side)
}

func (a *Activity) deleteSelected(ctx context.Context) {
	pane, side := a.focusedPane()
	sel, ok := pane.Selected()
	if !ok {
		return
	}
	var err error
	if side == browser.SideLocal {
		err = os.RemoveAll(sel.Path)
	} else {
		var client remote.Client
		if client, err = a.conn.Client(); err == nil {
			err = client.Remove(ctx, sel.Path)
		}
	}
	if err != nil {
		a.mountError(fmt.Sprintf("could not delete %s: %v", sel.Name, err))
		return
	}
	a.logf(LevelInfo, "deleted %s", sel.Path)
	a.reload(ctx, side)
}

// copySelected duplicates the selection on its own side. Remote copies
// round-trip through a local spool file because neither transport
// offers a server-side copy of arbitrary paths.
func (a *Activity) copySelected(ctx context.Context, dest string) {
	pane, side := a.focusedPane()
	sel, ok := pane.Selected()
	if !ok {
		return
	}
	if sel.IsDir() {
		a.mountError("directory copy is not supported, transfer it instead")
		return
	}
	if !isAbs(side, dest) {
		dest = joinSide(side, pane.Wd(), dest)
	}
	var err error
	if side == browser.SideLocal {
		err = copyLocalFile(sel.Path, dest)
	} else {
		err = a.copyRemoteFile(ctx, sel, dest)
	}
	if err != nil {
		a.mountError(fmt.Sprintf("could not copy %s: %v", sel.Name, err))
		return
	}
	a.logf(LevelInfo, "copied %s to %s", sel.Path, dest)
	a.reload(ctx, side)
}

func copyLocalFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (a *Activity) copyRemoteFile(ctx context.Context, sel fs.Entry, dest string) error {
	client, err := a.conn.Client()
	if err != nil {
		return err
	}
	spool, err := os.CreateTemp(a.cacheDir, "copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(spool.Name())
	defer spool.Close()
	if err := client.Get(ctx, sel.Path, spool, nil); err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return client.Put(ctx, spool, sel.Size, dest, nil)
}

// symlinkSelected creates a link named name pointing at the selection
func (a *Activity) symlinkSelected(ctx context.Context, name string) {
	pane, side := a.focusedPane()
	sel, ok := pane.Selected()
	if !ok {
		return
	}
	link := joinSide(side, pane.Wd(), name)
	var err error
	if side == browser.SideLocal {
		err = os.Symlink(sel.Path, link)
	} else {
		var client remote.Client
		if client, err = a.conn.Client(); err == nil {
			err = client.Symlink(ctx, sel.Path, link)
		}
	}
	if err != nil {
		a.mountError(fmt.Sprintf("could not create symlink %s: %v", link, err))
		return
	}
	a.logf(LevelInfo, "created symlink %s -> %s", link, sel.Path)
	a.reload(ctx, side)
}

// execCommand runs a shell command in the focused pane's working
// directory and shows its combined output
func (a *Activity) execCommand(ctx context.Context, command string) {
	pane, side := a.focusedPane()
	var out string
	var err error
	if side == browser.SideLocal {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = pane.Wd()
		var raw []byte
		raw, err = cmd.CombinedOutput()
		out = string(raw)
	} else {
		var client remote.Client
		if client, err = a.conn.Client(); err == nil {
			out, err = client.Exec(ctx, command)
		}
	}
	if err != nil {
		a.mountError(fmt.Sprintf("%q failed: %v", command, err))
		return
	}
	a.logf(LevelInfo, "executed %q", command)
	a.popup = Popup{Kind: PopupExec, Message: strings.TrimRight(out, "\n")}
	a.reload(ctx, side)
}

func (a *Activity) search(ctx context.Context, pattern string) {
	side := a.focusedSide()
	matches, err := a.browser.Search(ctx, side, pattern)
	if err != nil {
		a.mountError(fmt.Sprintf("search failed: %v", err))
		return
	}
	if matches == 0 {
		a.browser.DismissFound()
		a.mountError(fmt.Sprintf("no files matching %q", pattern))
		return
	}
	a.logf(LevelInfo, "found %d files matching %q", matches, pattern)
}

// openSelected opens the selection with the platform handler or a
// named program. Remote files are fetched into the session cache first.
func (a *Activity) openSelected(ctx context.Context, program string) {
	pane, side := a.focusedPane()
	sel, ok := pane.Selected()
	if !ok || sel.IsDir() {
		return
	}
	localPath := sel.Path
	if side == browser.SideRemote {
		cached, err := a.fetchToCache(ctx, sel)
		if err != nil {
			a.mountError(fmt.Sprintf("could not fetch %s: %v", sel.Name, err))
			return
		}
		localPath = cached
	}
	if program == "" {
		program = platformOpener()
	}
	cmd := exec.Command(program, localPath)
	if err := cmd.Start(); err != nil {
		a.mountError(fmt.Sprintf("could not open %s with %s: %v", sel.Name, program, err))
		return
	}
	go cmd.Wait()
	a.logf(LevelInfo, "opened %s with %s", sel.Name, program)
}

// fetchToCache downloads a remote file into the session cache directory
func (a *Activity) fetchToCache(ctx context.Context, sel fs.Entry) (string, error) {
	if a.cacheDir == "" {
		return "", fmt.Errorf("no cache directory")
	}
	client, err := a.conn.Client()
	if err != nil {
		return "", err
	}
	dest := filepath.Join(a.cacheDir, sel.Name)
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := client.Get(ctx, sel.Path, f, nil); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func platformOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// toggleWatch starts or stops watching the selected local directory,
// pairing it with the mirrored remote directory at toggle time
func (a *Activity) toggleWatch() {
	if a.watch == nil {
		a.mountError("change watcher is not available")
		return
	}
	pane, side := a.focusedPane()
	if side != browser.SideLocal {
		a.mountError("only local directories can be watched")
		return
	}
	sel, ok := pane.Selected()
	if !ok || !sel.IsDir() {
		return
	}
	if a.watch.IsWatched(sel.Path) {
		a.unwatch(sel.Path)
		return
	}
	if err := a.watch.Watch(sel.Path); err != nil {
		a.mountError(fmt.Sprintf("could not watch %s: %v", sel.Path, err))
		return
	}
	a.mirrors[sel.Path] = path.Join(a.browser.Remote().Wd(), sel.Name)
	a.logf(LevelInfo, "watching %s", sel.Path)
}

func (a *Activity) unwatch(watched string) {
	if a.watch == nil {
		return
	}
	if err := a.watch.Unwatch(watched); err != nil {
		a.mountError(fmt.Sprintf("could not unwatch %s: %v", watched, err))
		return
	}
	delete(a.mirrors, watched)
	a.logf(LevelInfo, "stopped watching %s", watched)
	if a.popup.Kind == PopupWatchedPaths {
		a.popup.Entries = a.WatchedPaths()
	}
}

// mirrorEvent applies one watched-directory change to its remote
// counterpart. File writes run through a dedicated queue that replaces
// existing remote copies: the mirror tracks the local file, it never
// asks.
func (a *Activity) mirrorEvent(ctx context.Context, ev watcher.Event) error {
	root, remoteRoot, rel := a.mirrorFor(ev.Path)
	if root == "" {
		return nil
	}
	client, err := a.conn.Client()
	if err != nil {
		return err
	}
	remotePath := path.Join(remoteRoot, filepath.ToSlash(rel))

	if ev.Kind == watcher.Removed {
		return client.Remove(ctx, remotePath)
	}
	sel, err := fs.Stat(ev.Path)
	if err != nil {
		// Gone again already; mirror the removal instead
		return client.Remove(ctx, remotePath)
	}
	if sel.IsDir() {
		return client.Mkdir(ctx, remotePath)
	}
	return a.runMirror(ctx, sel, path.Dir(remotePath))
}

// runMirror uploads one changed file on the watcher's own queue. Reset
// before every use: an abort or unresolved conflict left on a previous
// run must not stall later events.
func (a *Activity) runMirror(ctx context.Context, sel fs.Entry, destDir string) error {
	a.mirrorQ.Reset()
	conflicts, err := a.mirrorQ.Enqueue(ctx, []fs.Entry{sel}, transfer.Upload, destDir)
	if err != nil {
		return err
	}
	if conflicts > 0 {
		a.mirrorQ.Resolve(nil, transfer.ReplaceAll)
	}
	return a.mirrorQ.Execute(ctx)
}

// mirrorFor finds the watched root covering p and the path of p
// relative to it
func (a *Activity) mirrorFor(p string) (root, remoteRoot, rel string) {
	for local, rem := range a.mirrors {
		if p == local {
			return local, rem, "."
		}
		if strings.HasPrefix(p, local+string(os.PathSeparator)) {
			return local, rem, strings.TrimPrefix(p, local+string(os.PathSeparator))
		}
	}
	return "", "", ""
}

// toggleSyncBrowsing flips synchronized navigation, asking before
// creating the mirrored remote directory when the two sides diverge
func (a *Activity) toggleSyncBrowsing() {
	divergence, err := a.browser.ToggleSyncBrowsing()
	if err != nil {
		a.mountError(err.Error())
		return
	}
	state := "off"
	if a.browser.SyncBrowsing() {
		state = "on"
	}
	a.logf(LevelInfo, "synchronized browsing %s", state)
	if divergence == nil {
		return
	}
	a.popup = Popup{Kind: PopupSyncBrowsingMkdir, Message: divergence.Path}
	chain := a.pending.NewChain()
	target := *divergence
	a.pending.Push(Action{
		Kind:  MakeDirectoryThen,
		Chain: chain,
		Run: func(ctx context.Context) error {
			if err := a.mkdirOn(ctx, target.Side, target.Path); err != nil {
				return err
			}
			return a.browser.ChangeDirectory(ctx, target.Side, target.Path)
		},
	})
}

// reload refreshes one side's listing, logging instead of popping up on
// failure so a routine refresh cannot steal the screen
func (a *Activity) reload(ctx context.Context, side browser.Side) {
	if err := a.browser.List(ctx, side); err != nil {
		a.logf(LevelWarn, "%v", err)
	}
}

func conflictNames(entries []*transfer.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.DestPath
	}
	return names
}

func joinSide(side browser.Side, dir, name string) string {
	if side == browser.SideLocal {
		return filepath.Join(dir, name)
	}
	return path.Join(dir, name)
}

func isAbs(side browser.Side, p string) bool {
	if side == browser.SideLocal {
		return filepath.IsAbs(p)
	}
	return path.IsAbs(p)
}
