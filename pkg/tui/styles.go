package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/vantran/ferry/pkg/config"
)

// styles bundles the lipgloss styles built from the configured theme
type styles struct {
	title        lipgloss.Style
	localTitle   lipgloss.Style
	remoteTitle  lipgloss.Style
	path         lipgloss.Style
	item         lipgloss.Style
	selectedItem lipgloss.Style
	help         lipgloss.Style
	success      lipgloss.Style
	errText      lipgloss.Style
	warnText     lipgloss.Style
	activePane   lipgloss.Style
	idlePane     lipgloss.Style
	popup        lipgloss.Style
	dangerPopup  lipgloss.Style
	logHeader    lipgloss.Style
	logLine      lipgloss.Style
}

func newStyles(theme config.Theme) styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Accent)).
			Padding(0, 1),
		localTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.LocalFg)),
		remoteTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.RemoteFg)),
		path: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.MutedFg)).
			Italic(true),
		item: lipgloss.NewStyle(),
		selectedItem: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Accent)),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.MutedFg)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.SuccessFg)),
		errText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.ErrorFg)),
		warnText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.WarnFg)),
		activePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Accent)).
			Padding(0, 1),
		idlePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.MutedFg)).
			Padding(0, 1),
		popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Accent)).
			Padding(1, 2).
			Width(60),
		dangerPopup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.ErrorFg)).
			Padding(1, 2).
			Width(60),
		logHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.MutedFg)).
			Bold(true),
		logLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.MutedFg)),
	}
}
