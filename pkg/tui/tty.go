package tui

import "fmt"

// tty implements the terminal capability the engine drives during
// setup and teardown. Raw mode is owned by the bubbletea program, so
// the raw-mode hooks are no-ops here; clearing writes straight ANSI
// because it runs before the renderer starts and after it stops.
type tty struct{}

func (tty) EnableRawMode() error  { return nil }
func (tty) DisableRawMode() error { return nil }

func (tty) ClearScreen() error {
	_, err := fmt.Print("\x1b[2J\x1b[H")
	return err
}
