package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/vantran/ferry/pkg/browser"
	"github.com/vantran/ferry/pkg/engine"
	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/transfer"
)

const helpLine = "tab: switch • enter: open dir • space: transfer • f: find • d: mkdir • e: delete • t: watch • y: sync • h: keys • q: quit"

// View reuses the previous frame unless the engine marked state dirty
// or a local interaction invalidated it
func (m Model) View() string {
	if !m.activity.ConsumeRedraw() && m.frame.view != "" {
		return m.frame.view
	}
	m.frame.view = m.render()
	return m.frame.view
}

func (m Model) render() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render("⛴  ferry"))
	b.WriteString("  ")
	b.WriteString(m.st.help.Render(m.connStatus()))
	b.WriteString("\n\n")

	paneWidth := (m.width - 8) / 2
	if paneWidth < 30 {
		paneWidth = 30
	}
	paneHeight := m.height - 10
	if paneHeight < 10 {
		paneHeight = 10
	}

	left := m.renderPane(browser.SideLocal, paneWidth, paneHeight)
	right := m.renderPane(browser.SideRemote, paneWidth, paneHeight)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n")

	b.WriteString(m.st.help.Render(helpLine))
	b.WriteString("\n")

	if m.showLog {
		b.WriteString(m.renderLog())
	}

	if popup := m.activity.Popup(); popup.Kind != engine.PopupNone {
		b.WriteString("\n")
		b.WriteString(m.renderPopup(popup))
	}

	return b.String()
}

func (m Model) connStatus() string {
	state := m.activity.ConnState()
	if state == engine.StateConnected && m.activity.Browser().SyncBrowsing() {
		return "connected (sync browsing)"
	}
	return state.String()
}

// renderPane draws one side: title, working directory and the visible
// window of its listing. The search-results pane replaces the side it
// was produced from.
func (m Model) renderPane(side browser.Side, width, height int) string {
	var b strings.Builder

	pane := m.activity.Browser().Pane(side)
	title := "💻 Local"
	titleStyle := m.st.localTitle
	if side == browser.SideRemote {
		title = "🌐 Remote"
		titleStyle = m.st.remoteTitle
	}
	if found, foundSide, ok := m.activity.Browser().Found(); ok && foundSide == side {
		pane = found
		title = "🔍 Results"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	wd := pane.Wd()
	if len(wd) > width-4 {
		wd = "..." + wd[len(wd)-(width-7):]
	}
	b.WriteString(m.st.path.Render(wd))
	b.WriteString("\n\n")

	entries := pane.Entries()
	displayCount := height - 3
	if displayCount < 5 {
		displayCount = 5
	}
	start := 0
	if pane.Cursor() > displayCount/2 && len(entries) > displayCount {
		start = pane.Cursor() - displayCount/2
	}
	end := start + displayCount
	if end > len(entries) {
		end = len(entries)
	}

	for i := start; i < end; i++ {
		entry := entries[i]
		cursor := "  "
		style := m.st.item
		if pane.Cursor() == i {
			cursor = "→ "
			style = m.st.selectedItem
		}

		icon := "📄"
		switch {
		case entry.IsDir():
			icon = "📁"
		case entry.IsSymlink():
			icon = "🔗"
		}

		name := entry.Name
		if pane.IsMarked(entry.Name) {
			name = "* " + name
		}
		if len(name) > width-18 {
			name = name[:width-21] + "..."
		}
		size := ""
		if !entry.IsDir() {
			size = humanize.IBytes(uint64(entry.Size))
		}

		b.WriteString(cursor + style.Render(fmt.Sprintf("%s %-*s %8s", icon, width-20, name, size)))
		b.WriteString("\n")
	}

	box := m.st.idlePane
	if side == m.activity.Focused() {
		box = m.st.activePane
	}
	return box.Width(width).Height(height).Render(b.String())
}

// renderLog shows the tail of the operational log ring
func (m Model) renderLog() string {
	var b strings.Builder
	b.WriteString(m.st.logHeader.Render("Log:"))
	records := m.activity.Logs().Records()
	const tail = 8
	start := 0
	if len(records) > tail {
		start = len(records) - tail
	}
	for _, rec := range records[start:] {
		b.WriteString("\n")
		line := fmt.Sprintf("%s [%s] %s", rec.Time.Format("15:04:05"), rec.Level, rec.Message)
		switch rec.Level {
		case engine.LevelError:
			b.WriteString(m.st.errText.Render(line))
		case engine.LevelWarn:
			b.WriteString(m.st.warnText.Render(line))
		default:
			b.WriteString(m.st.logLine.Render(line))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderPopup(popup engine.Popup) string {
	switch popup.Kind {
	case engine.PopupWait:
		return m.st.popup.Render("⏳ " + popup.Message)
	case engine.PopupError:
		return m.st.dangerPopup.Render(fmt.Sprintf("Error\n\n%s\n\n(esc to dismiss)", popup.Message))
	case engine.PopupFatal:
		return m.st.dangerPopup.Render(fmt.Sprintf("Fatal error\n\n%s\n\n(esc to exit)", popup.Message))
	case engine.PopupReplace:
		var b strings.Builder
		b.WriteString("These files already exist:\n\n")
		for _, name := range popup.Entries {
			b.WriteString("  " + name + "\n")
		}
		b.WriteString("\nr: replace • R: replace all • s: skip • S: skip all • esc: abort")
		return m.st.popup.Render(b.String())
	case engine.PopupSyncBrowsingMkdir:
		return m.st.popup.Render(fmt.Sprintf("Create directory %s to keep browsing in sync?\n\n(y/n)", popup.Message))
	case engine.PopupQuit:
		return m.st.popup.Render("Quit ferry?\n\n(y/n)")
	case engine.PopupDisconnect:
		return m.st.popup.Render("Disconnect from the remote host?\n\n(y/n)")
	case engine.PopupDelete:
		return m.st.dangerPopup.Render(fmt.Sprintf("Permanently delete '%s'?\n\n(y/n)", m.selectedName()))
	case engine.PopupExec:
		if m.inputFor == engine.PopupNone && popup.Message != "" {
			return m.st.popup.Render(fmt.Sprintf("Output\n\n%s\n\n(esc to dismiss)", popup.Message))
		}
		return m.renderPrompt("Execute command")
	case engine.PopupFileInfo:
		return m.st.popup.Render(renderFileInfo(popup.Info))
	case engine.PopupSorting:
		return m.st.popup.Render("Sort by\n\nn: name • m: modification time • s: size")
	case engine.PopupKeybindings:
		return m.st.popup.Render(keybindingsHelp)
	case engine.PopupWatchedPaths:
		var b strings.Builder
		b.WriteString("Watched directories (digit to unwatch):\n")
		if len(popup.Entries) == 0 {
			b.WriteString("\n  none")
		}
		for i, p := range popup.Entries {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i, p))
		}
		return m.st.popup.Render(b.String())
	case engine.PopupProgress:
		return m.renderProgress()
	case engine.PopupMkdir, engine.PopupNewFile, engine.PopupRename, engine.PopupSaveAs,
		engine.PopupCopy, engine.PopupSymlink, engine.PopupGoto, engine.PopupOpenWith, engine.PopupFind:
		return m.renderPrompt(m.input.Placeholder)
	}
	return ""
}

func (m Model) renderPrompt(title string) string {
	return m.st.popup.Render(fmt.Sprintf("%s\n\n%s", title, m.input.View()))
}

// renderProgress draws the two transfer gauges: the file in flight and
// the whole queue
func (m Model) renderProgress() string {
	st := m.activity.Queue().States()

	var current string
	partial := 1.0
	for _, e := range m.activity.Queue().Entries() {
		if e.Status == transfer.StatusInProgress {
			current = e.Source.Name
			if e.Source.Size > 0 {
				partial = float64(e.BytesDone) / float64(e.Source.Size)
			}
			break
		}
	}

	total := 1.0
	if st.BytesTotal > 0 {
		total = float64(st.BytesDone) / float64(st.BytesTotal)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Transferring %s\n\n", current))
	b.WriteString(m.bar.ViewAs(partial))
	b.WriteString("\n\nQueue\n\n")
	b.WriteString(m.bar.ViewAs(total))
	b.WriteString(fmt.Sprintf("\n\n%d/%d files • %s of %s • %s/s",
		st.FileDone, st.FileTotal,
		humanize.IBytes(uint64(st.BytesDone)), humanize.IBytes(uint64(st.BytesTotal)),
		humanize.IBytes(uint64(st.Speed()))))
	return m.st.popup.Render(b.String())
}

func renderFileInfo(info fs.Entry) string {
	kind := "file"
	switch {
	case info.IsDir():
		kind = "directory"
	case info.IsSymlink():
		kind = fmt.Sprintf("symlink -> %s", info.Target)
	}
	return fmt.Sprintf("%s\n\nPath: %s\nType: %s\nSize: %s\nMode: %s\nModified: %s",
		info.Name, info.Path, kind,
		humanize.IBytes(uint64(info.Size)),
		info.Mode, info.ModTime.Format("2006-01-02 15:04:05"))
}

const keybindingsHelp = `Keybindings

tab        switch pane          space     transfer selection
m          mark for transfer    enter     enter directory
u          parent directory     backspace previous directory
g          go to path           d         make directory
n          new file             r         rename
e/del      delete               c         copy
s          save as              K         symlink
x          execute command      f or /    find files
v          open file            o         open with...
i          file info            a         toggle hidden
b          sorting              y         sync browsing
l          reload               t         watch directory
T          watched paths        L         log panel
ctrl+a     abort queued work    esc       disconnect
q          quit`
