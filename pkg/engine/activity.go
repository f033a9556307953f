// Package engine hosts the session orchestration loop: a single-threaded
// activity that owns both panes, the transfer queue, the pending-action
// queue, the connection manager, the change watcher and the log ring,
// and advances them one message or one tick at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/vantran/ferry/pkg/browser"
	"github.com/vantran/ferry/pkg/config"
	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
	"github.com/vantran/ferry/pkg/transfer"
	"github.com/vantran/ferry/pkg/watcher"
)

// Terminal abstracts the screen operations the activity performs during
// setup and teardown. The TUI layer provides the real implementation.
type Terminal interface {
	EnableRawMode() error
	DisableRawMode() error
	ClearScreen() error
}

// PopupKind identifies which popup is mounted over the panes
type PopupKind int

const (
	PopupNone PopupKind = iota
	PopupWait
	PopupError
	PopupFatal
	PopupReplace
	PopupSyncBrowsingMkdir
	PopupQuit
	PopupDisconnect
	PopupMkdir
	PopupNewFile
	PopupRename
	PopupSaveAs
	PopupCopy
	PopupSymlink
	PopupGoto
	PopupExec
	PopupOpenWith
	PopupDelete
	PopupFind
	PopupFileInfo
	PopupSorting
	PopupKeybindings
	PopupWatchedPaths
	PopupProgress
)

// Popup is the currently mounted popup plus its payload
type Popup struct {
	Kind    PopupKind
	Message string   // wait/error/fatal text, exec output
	Entries []string // replace file list, watched paths
	Info    fs.Entry // file-info payload
}

// ExitReason tells the host why the session ended
type ExitReason int

const (
	ExitNone ExitReason = iota
	// ExitDisconnect returns to the connection entry surface
	ExitDisconnect
	// ExitQuit terminates the program
	ExitQuit
)

// recentEventCap bounds the watcher-event history kept for display
const recentEventCap = 32

// Activity is the file-transfer session. All methods run on the tick
// goroutine; the change watcher is the only concurrent component and is
// reached exclusively through its non-blocking Poll.
type Activity struct {
	cfg     *config.Provider
	term    Terminal
	conn    *ConnManager
	browser *browser.Browser
	queue   *transfer.Queue
	pending *PendingQueue
	watch   *watcher.Watcher
	logs    *LogRing

	focused browser.Side
	popup   Popup
	exit    ExitReason
	redraw  bool

	cacheDir string

	// remote mirror roots for watched local directories, recorded when
	// the watch starts so later events resolve against a stable pair
	mirrors map[string]string

	// mirrorQ carries watcher uploads. Separate from the user's queue
	// so an aborted manual transfer or a pending conflict decision
	// never blocks the sync bridge.
	mirrorQ *transfer.Queue

	recentEvents []watcher.Event

	// transferring guards the progress popup: set for the duration of a
	// queue execution so the renderer shows rates instead of listings
	transferring bool

	initialRemoteList bool
}

// New assembles an activity around a built (not yet connected) remote
// client. A build error is carried into the fatal state so the UI can
// report it instead of crashing.
func New(cfg *config.Provider, term Terminal, client remote.Client, buildErr error) *Activity {
	settings := cfg.Settings()
	sorting := parseSorting(settings.DefaultSorting)
	local := fs.NewPane("", sorting, settings.ShowHiddenFiles)
	remotePane := fs.NewPane("", sorting, settings.ShowHiddenFiles)

	a := &Activity{
		cfg:     cfg,
		term:    term,
		conn:    NewConnManager(client, buildErr),
		browser: browser.New(client, local, remotePane),
		queue:   transfer.NewQueue(client),
		mirrorQ: transfer.NewQueue(client),
		pending: NewPendingQueue(),
		logs:    NewLogRing(),
		mirrors: make(map[string]string),
	}
	a.queue.SetProgressFunc(func(transfer.States) { a.redraw = true })
	a.mirrorQ.SetProgressFunc(func(transfer.States) { a.redraw = true })
	return a
}

// Browser exposes the pane state for rendering
func (a *Activity) Browser() *browser.Browser { return a.browser }

// Queue exposes the transfer queue for rendering
func (a *Activity) Queue() *transfer.Queue { return a.queue }

// Logs exposes the log ring for rendering
func (a *Activity) Logs() *LogRing { return a.logs }

// Popup returns the mounted popup
func (a *Activity) Popup() Popup { return a.popup }

// Focused reports which pane has input focus
func (a *Activity) Focused() browser.Side { return a.focused }

// ConnState reports the remote session state
func (a *Activity) ConnState() ConnState { return a.conn.State() }

// Transferring reports whether a queue execution is in flight
func (a *Activity) Transferring() bool { return a.transferring }

// RecentEvents returns the newest watcher events, oldest first
func (a *Activity) RecentEvents() []watcher.Event { return a.recentEvents }

// WatchedPaths lists the local directories under watch
func (a *Activity) WatchedPaths() []string {
	if a.watch == nil {
		return nil
	}
	return a.watch.WatchedPaths()
}

// ConsumeRedraw reports and clears the dirty flag
func (a *Activity) ConsumeRedraw() bool {
	r := a.redraw
	a.redraw = false
	return r
}

// OnCreate prepares the session surface: clears the screen, enables raw
// input, lists the local working directory and starts the change
// watcher. Remote listing waits for the first successful connection on
// a later tick.
func (a *Activity) OnCreate(ctx context.Context) {
	if err := a.term.ClearScreen(); err != nil {
		a.logf(LevelWarn, "could not clear screen: %v", err)
	}
	if err := a.term.EnableRawMode(); err != nil {
		a.logf(LevelWarn, "could not enable raw mode: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = string(os.PathSeparator)
	}
	if dir := a.cfg.Settings().LocalEntryDir; dir != "" {
		wd = dir
	}
	a.browser.Local().SetWd(wd)
	if err := a.browser.List(ctx, browser.SideLocal); err != nil {
		a.mountError(err.Error())
	}

	cache, err := os.MkdirTemp("", "ferry-cache-")
	if err != nil {
		a.logf(LevelWarn, "no temporary cache, remote open disabled: %v", err)
	} else {
		a.cacheDir = cache
	}

	settings := a.cfg.Settings()
	w, err := watcher.Init(a.cfg.WatcherPollInterval(), settings.MaxWatchedPaths)
	if err != nil {
		a.logf(LevelWarn, "change watcher unavailable: %v", err)
	} else {
		a.watch = w
	}

	if a.conn.State() == StateFatal {
		a.mountFatal(a.conn.FatalErr().Error())
	}
	a.redraw = true
}

// Tick runs one iteration of the orchestration loop: reconnects if the
// session is down, drains watcher events, and checks liveness. Message
// handling happens separately through HandleMessage.
func (a *Activity) Tick(ctx context.Context) {
	switch a.conn.State() {
	case StateFatal:
		return
	case StateDisconnected:
		// Keep whatever prompt the user still has to answer; the wait
		// indicator only takes an empty screen.
		if a.popup.Kind == PopupNone || a.popup.Kind == PopupWait {
			a.mountWait("Connecting to remote host...")
		}
		if err := a.conn.TickConnect(ctx); err != nil {
			a.logf(LevelError, "connection attempt failed: %v", err)
			return
		}
		a.unmountWait()
		a.logf(LevelInfo, "connected to remote host")
		a.onConnected(ctx)
	case StateConnected:
		a.conn.CheckAlive()
		if a.conn.State() != StateConnected {
			a.logf(LevelError, "remote session lost, reconnecting")
			a.redraw = true
			return
		}
	}
	a.drainWatcher(ctx)
}

// onConnected runs the first-connection setup: resolve the remote
// working directory and produce the initial remote listing
func (a *Activity) onConnected(ctx context.Context) {
	a.redraw = true
	client, err := a.conn.Client()
	if err != nil {
		return
	}
	if a.initialRemoteList {
		// Reconnection: refresh the listing we already had
		if err := a.browser.List(ctx, browser.SideRemote); err != nil {
			a.logf(LevelError, "%v", err)
		}
		return
	}
	wd := a.cfg.Settings().RemoteEntryDir
	if wd == "" {
		wd, err = client.Getwd()
		if err != nil {
			a.logf(LevelError, "could not resolve remote working directory: %v", err)
			wd = "/"
		}
	}
	a.browser.Remote().SetWd(wd)
	if err := a.browser.List(ctx, browser.SideRemote); err != nil {
		a.mountError(err.Error())
		return
	}
	a.initialRemoteList = true
}

// WillTerminate reports whether the session should end and why. The
// host polls it after each message and tick.
func (a *Activity) WillTerminate() ExitReason { return a.exit }

// OnDestroy releases everything the session acquired. Every step runs
// regardless of earlier failures so a wedged connection cannot leak the
// cache directory or leave the terminal raw.
func (a *Activity) OnDestroy() {
	if a.watch != nil {
		a.watch.Close()
		a.watch = nil
	}
	if a.cacheDir != "" {
		if err := os.RemoveAll(a.cacheDir); err != nil {
			a.logf(LevelWarn, "could not remove cache %s: %v", a.cacheDir, err)
		}
		a.cacheDir = ""
	}
	if err := a.term.DisableRawMode(); err != nil {
		a.logf(LevelWarn, "could not restore terminal: %v", err)
	}
	if err := a.term.ClearScreen(); err != nil {
		a.logf(LevelWarn, "could not clear screen: %v", err)
	}
	if err := a.conn.Disconnect(); err != nil {
		a.logf(LevelWarn, "%v", err)
	}
}

// drainWatcher empties the watcher's buffer, mirrors each change to
// the remote side, and refreshes both listings when anything changed
func (a *Activity) drainWatcher(ctx context.Context) {
	if a.watch == nil {
		return
	}
	events := a.watch.Poll()
	if len(events) == 0 {
		return
	}
	a.redraw = true
	for _, ev := range events {
		a.recentEvents = append(a.recentEvents, ev)
		if len(a.recentEvents) > recentEventCap {
			a.recentEvents = a.recentEvents[len(a.recentEvents)-recentEventCap:]
		}
		a.logf(LevelInfo, "watcher: %s %s", ev.Kind, ev.Path)
		if err := a.mirrorEvent(ctx, ev); err != nil {
			a.logf(LevelError, "watcher sync for %s: %v", ev.Path, err)
		}
	}
	if err := a.browser.List(ctx, browser.SideLocal); err != nil {
		a.logf(LevelWarn, "%v", err)
	}
	if a.conn.State() == StateConnected {
		if err := a.browser.List(ctx, browser.SideRemote); err != nil {
			a.logf(LevelWarn, "%v", err)
		}
	}
}

// mountError shows a dismissible error popup and records the message
func (a *Activity) mountError(msg string) {
	a.logs.Push(LevelError, msg)
	slog.Error(msg)
	a.popup = Popup{Kind: PopupError, Message: msg}
	a.redraw = true
}

// mountFatal shows the unrecoverable-error popup; dismissing it ends
// the session
func (a *Activity) mountFatal(msg string) {
	a.logs.Push(LevelError, msg)
	slog.Error(msg)
	a.popup = Popup{Kind: PopupFatal, Message: msg}
	a.redraw = true
}

func (a *Activity) mountWait(msg string) {
	a.popup = Popup{Kind: PopupWait, Message: msg}
	a.redraw = true
}

func (a *Activity) unmountWait() {
	if a.popup.Kind == PopupWait {
		a.popup = Popup{}
	}
	a.redraw = true
}

func (a *Activity) logf(level LogLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logs.Push(level, msg)
	switch level {
	case LevelError:
		slog.Error(msg)
	case LevelWarn:
		slog.Warn(msg)
	default:
		slog.Info(msg)
	}
	a.redraw = true
}

// parseSorting maps the configured sort key onto the pane sorting
func parseSorting(key string) fs.Sorting {
	switch key {
	case "modtime":
		return fs.SortByModTime
	case "size":
		return fs.SortBySize
	}
	return fs.SortByName
}
