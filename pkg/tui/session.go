// Package tui renders the dual-pane session and translates key presses
// into engine messages. All engine state changes happen inside Update,
// which bubbletea serializes, so the orchestration loop stays
// single-threaded.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vantran/ferry/pkg/config"
	"github.com/vantran/ferry/pkg/engine"
	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
	"github.com/vantran/ferry/pkg/transfer"
)

// tickMsg drives one iteration of the orchestration loop
type tickMsg time.Time

// Model hosts the session activity inside a bubbletea program
type Model struct {
	activity *engine.Activity
	cfg      *config.Provider
	st       styles

	// input prompt state: which popup the text input feeds
	input    textinput.Model
	inputFor engine.PopupKind

	bar progress.Model

	width   int
	height  int
	showLog bool
	created bool

	// frame holds the last rendered view so idle ticks reuse it; the
	// engine's redraw flag invalidates it
	frame *frameCache

	ctx context.Context
}

type frameCache struct {
	view string
}

// New assembles the session model. A build error is carried into the
// activity so it surfaces as the fatal popup instead of a crash.
func New(ctx context.Context, cfg *config.Provider, client remote.Client, buildErr error) Model {
	ti := textinput.New()
	ti.CharLimit = 255
	ti.Width = 48

	return Model{
		activity: engine.New(cfg, tty{}, client, buildErr),
		cfg:      cfg,
		st:       newStyles(cfg.Theme()),
		input:    ti,
		bar:      progress.New(progress.WithDefaultGradient()),
		frame:    &frameCache{},
		ctx:      ctx,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.TickInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width / 2
		m.frame.view = ""
		return m, nil

	case tickMsg:
		if !m.created {
			m.created = true
			m.activity.OnCreate(m.ctx)
		}
		m.activity.Tick(m.ctx)
		if m.activity.WillTerminate() != engine.ExitNone {
			m.activity.OnDestroy()
			return m, tea.Quit
		}
		return m, m.tick()

	case tea.KeyMsg:
		m.frame.view = ""
		return m.handleKey(msg)
	}

	m.frame.view = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.activity.OnDestroy()
		return m, tea.Quit
	}

	popup := m.activity.Popup()
	if popup.Kind != engine.PopupNone {
		return m.handlePopupKey(msg, popup)
	}

	pane, _ := m.focusedPane()

	switch msg.String() {
	case "tab":
		m.dispatch(engine.ChangeFocus{})
	case "up", "k":
		pane.MoveCursor(-1)
	case "down", "j":
		pane.MoveCursor(1)
	case "enter":
		m.dispatch(engine.EnterDirectory{})
	case " ":
		m.dispatch(engine.TransferCurrent{})
	case "m":
		m.dispatch(engine.ToggleMark{})
	case "u":
		m.dispatch(engine.GoToParent{})
	case "backspace":
		if _, _, found := m.activity.Browser().Found(); found {
			m.dispatch(engine.CloseFindResults{})
		} else {
			m.dispatch(engine.GoToPrevious{})
		}
	case "a":
		m.dispatch(engine.ToggleHiddenFiles{})
	case "y":
		m.dispatch(engine.ToggleSyncBrowsing{})
	case "l":
		m.dispatch(engine.ReloadDirectory{})
	case "v":
		m.dispatch(engine.OpenFile{})
	case "i":
		m.dispatch(engine.ShowPopup{Kind: engine.PopupFileInfo})
	case "b":
		m.dispatch(engine.ShowPopup{Kind: engine.PopupSorting})
	case "h":
		m.dispatch(engine.ShowPopup{Kind: engine.PopupKeybindings})
	case "t":
		m.dispatch(engine.ToggleWatch{})
	case "T":
		m.dispatch(engine.ShowPopup{Kind: engine.PopupWatchedPaths})
	case "L":
		m.showLog = !m.showLog
	case "e", "delete":
		if _, ok := pane.Selected(); ok {
			m.dispatch(engine.ShowPopup{Kind: engine.PopupDelete})
		}
	case "esc":
		m.dispatch(engine.ShowPopup{Kind: engine.PopupDisconnect})
	case "q":
		if m.cfg.Settings().PromptOnQuit {
			m.dispatch(engine.ShowPopup{Kind: engine.PopupQuit})
		} else {
			m.dispatch(engine.Quit{})
		}
	case "d":
		return m.openPrompt(engine.PopupMkdir, "Directory name", "")
	case "n":
		return m.openPrompt(engine.PopupNewFile, "File name", "")
	case "r":
		return m.openPrompt(engine.PopupRename, "New name", m.selectedName())
	case "s":
		return m.openPrompt(engine.PopupSaveAs, "Save as", m.selectedName())
	case "c":
		return m.openPrompt(engine.PopupCopy, "Copy to", "")
	case "K":
		return m.openPrompt(engine.PopupSymlink, "Symlink name", "")
	case "g":
		return m.openPrompt(engine.PopupGoto, "Go to path", "")
	case "x":
		return m.openPrompt(engine.PopupExec, "Command", "")
	case "o":
		return m.openPrompt(engine.PopupOpenWith, "Open with", m.cfg.Settings().TextEditor)
	case "f", "/":
		return m.openPrompt(engine.PopupFind, "Search (glob)", "")
	case "ctrl+a":
		m.dispatch(engine.AbortTransfer{})
	}
	return m, m.maybeQuit()
}

// handlePopupKey routes keys while a popup is mounted
func (m Model) handlePopupKey(msg tea.KeyMsg, popup engine.Popup) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Text prompts consume everything except enter and esc
	if m.inputFor != engine.PopupNone {
		switch key {
		case "enter":
			value := m.input.Value()
			m.closePrompt()
			if value != "" {
				m.submitPrompt(popup.Kind, value)
			} else {
				m.dispatch(engine.ClosePopup{})
			}
			return m, m.maybeQuit()
		case "esc":
			m.closePrompt()
			m.dispatch(engine.ClosePopup{})
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch popup.Kind {
	case engine.PopupReplace:
		switch key {
		case "r":
			m.dispatch(engine.CloseReplacePopups{Decision: transfer.ReplaceThis})
		case "R":
			m.dispatch(engine.CloseReplacePopups{Decision: transfer.ReplaceAll})
		case "s":
			m.dispatch(engine.CloseReplacePopups{Decision: transfer.SkipThis})
		case "S":
			m.dispatch(engine.CloseReplacePopups{Decision: transfer.SkipAll})
		case "esc":
			m.dispatch(engine.CloseReplacePopups{Decision: transfer.AbortQueue})
		}
	case engine.PopupSyncBrowsingMkdir:
		switch key {
		case "y", "enter":
			m.dispatch(engine.CloseSyncBrowsingMkdirPopup{Confirmed: true})
		case "n", "esc":
			m.dispatch(engine.CloseSyncBrowsingMkdirPopup{Confirmed: false})
		}
	case engine.PopupDelete:
		switch key {
		case "y", "enter":
			m.dispatch(engine.ClosePopup{})
			m.dispatch(engine.DeleteFile{})
		case "n", "esc":
			m.dispatch(engine.ClosePopup{})
		}
	case engine.PopupQuit:
		switch key {
		case "y", "enter":
			m.dispatch(engine.Quit{})
		case "n", "esc":
			m.dispatch(engine.ClosePopup{})
		}
	case engine.PopupDisconnect:
		switch key {
		case "y", "enter":
			m.dispatch(engine.Disconnect{})
		case "n", "esc":
			m.dispatch(engine.ClosePopup{})
		}
	case engine.PopupSorting:
		switch key {
		case "n":
			m.dispatch(engine.ChangeSorting{Sorting: fs.SortByName})
			m.dispatch(engine.ClosePopup{})
		case "m":
			m.dispatch(engine.ChangeSorting{Sorting: fs.SortByModTime})
			m.dispatch(engine.ClosePopup{})
		case "s":
			m.dispatch(engine.ChangeSorting{Sorting: fs.SortBySize})
			m.dispatch(engine.ClosePopup{})
		case "esc":
			m.dispatch(engine.ClosePopup{})
		}
	case engine.PopupWatchedPaths:
		switch key {
		case "esc", "enter":
			m.dispatch(engine.ClosePopup{})
		default:
			if idx := digit(key); idx >= 0 && idx < len(popup.Entries) {
				m.dispatch(engine.UnwatchPath{Path: popup.Entries[idx]})
			}
		}
	case engine.PopupProgress:
		// Queue execution finishes within the message that started it,
		// so no key can reach the popup while a transfer is running
	case engine.PopupWait:
		// Nothing to answer while connecting
	default:
		switch key {
		case "esc", "enter", "q":
			m.dispatch(engine.ClosePopup{})
		}
	}
	return m, m.maybeQuit()
}

// submitPrompt turns a completed text prompt into its engine message
func (m *Model) submitPrompt(kind engine.PopupKind, value string) {
	m.dispatch(engine.ClosePopup{})
	switch kind {
	case engine.PopupMkdir:
		m.dispatch(engine.Mkdir{Name: value})
	case engine.PopupNewFile:
		m.dispatch(engine.NewFile{Name: value})
	case engine.PopupRename:
		m.dispatch(engine.RenameFile{Name: value})
	case engine.PopupSaveAs:
		m.dispatch(engine.SaveFileAs{Name: value})
	case engine.PopupCopy:
		m.dispatch(engine.CopyFileTo{Dest: value})
	case engine.PopupSymlink:
		m.dispatch(engine.CreateSymlink{Target: value})
	case engine.PopupGoto:
		m.dispatch(engine.GoTo{Path: value})
	case engine.PopupExec:
		m.dispatch(engine.ExecuteCommand{Command: value})
	case engine.PopupOpenWith:
		m.dispatch(engine.OpenFileWith{Program: value})
	case engine.PopupFind:
		m.dispatch(engine.SearchFiles{Pattern: value})
	}
}

func (m Model) openPrompt(kind engine.PopupKind, placeholder, initial string) (tea.Model, tea.Cmd) {
	m.inputFor = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(initial)
	m.input.Focus()
	m.dispatch(engine.ShowPopup{Kind: kind})
	return m, textinput.Blink
}

func (m *Model) closePrompt() {
	m.inputFor = engine.PopupNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) dispatch(msg engine.Msg) {
	m.activity.HandleMessage(m.ctx, msg)
}

// maybeQuit ends the program when a message asked the session to
// terminate
func (m Model) maybeQuit() tea.Cmd {
	if m.activity.WillTerminate() != engine.ExitNone {
		m.activity.OnDestroy()
		return tea.Quit
	}
	return nil
}

func (m Model) focusedPane() (*fs.Pane, bool) {
	if found, _, ok := m.activity.Browser().Found(); ok {
		return found, true
	}
	return m.activity.Browser().Pane(m.activity.Focused()), false
}

func (m Model) selectedName() string {
	pane, _ := m.focusedPane()
	if sel, ok := pane.Selected(); ok {
		return sel.Name
	}
	return ""
}

// digit maps "0".."9" onto its index, -1 otherwise
func digit(key string) int {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return int(key[0] - '0')
	}
	return -1
}
