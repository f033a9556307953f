// Package config loads application settings and exposes them read-only.
// The engine never writes configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings represents persisted application defaults
type Settings struct {
	DefaultSorting   string `json:"defaultSorting"` // name | modtime | size
	ShowHiddenFiles  bool   `json:"showHiddenFiles"`
	TextEditor       string `json:"textEditor"`
	GroupDirsFirst   bool   `json:"groupDirsFirst"`
	TickIntervalMs   int    `json:"tickIntervalMs"`
	WatcherPollMs    int    `json:"watcherPollMs"`
	MaxWatchedPaths  int    `json:"maxWatchedPaths"`
	Theme            Theme  `json:"theme"`
	DefaultSSHPort   int    `json:"defaultSshPort"`
	DefaultUsername  string `json:"defaultUsername"`
	PromptOnQuit     bool   `json:"promptOnQuit"`
	LocalEntryDir    string `json:"localEntryDir,omitempty"`
	RemoteEntryDir   string `json:"remoteEntryDir,omitempty"`
}

// Theme is the color palette consumed by the TUI
type Theme struct {
	Accent    string `json:"accent"`
	LocalFg   string `json:"localFg"`
	RemoteFg  string `json:"remoteFg"`
	MutedFg   string `json:"mutedFg"`
	ErrorFg   string `json:"errorFg"`
	SuccessFg string `json:"successFg"`
	WarnFg    string `json:"warnFg"`
}

func defaultSettings() Settings {
	return Settings{
		DefaultSorting:  "name",
		ShowHiddenFiles: false,
		TextEditor:      "",
		GroupDirsFirst:  true,
		TickIntervalMs:  100,
		WatcherPollMs:   5000,
		MaxWatchedPaths: 32,
		DefaultSSHPort:  22,
		DefaultUsername: "root",
		PromptOnQuit:    true,
		Theme: Theme{
			Accent:    "#7D56F4",
			LocalFg:   "#04B575",
			RemoteFg:  "#FFA500",
			MutedFg:   "#626262",
			ErrorFg:   "#FF5555",
			SuccessFg: "#04B575",
			WarnFg:    "#F1FA8C",
		},
	}
}

// Provider exposes loaded settings read-only
type Provider struct {
	settings Settings
}

// Load reads settings from dataDir/settings.json, falling back to
// defaults when the file is absent. A missing file is not an error; a
// malformed one is.
func Load(dataDir string) (*Provider, error) {
	settings := defaultSettings()

	data, err := os.ReadFile(filepath.Join(dataDir, "settings.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Provider{settings: settings}, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &Provider{settings: settings}, nil
}

// Settings returns the loaded settings value
func (p *Provider) Settings() Settings { return p.settings }

// Theme returns the loaded color palette
func (p *Provider) Theme() Theme { return p.settings.Theme }

// TickInterval returns the orchestration tick period
func (p *Provider) TickInterval() time.Duration {
	if p.settings.TickIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(p.settings.TickIntervalMs) * time.Millisecond
}

// WatcherPollInterval returns the change-watcher poll period
func (p *Provider) WatcherPollInterval() time.Duration {
	if p.settings.WatcherPollMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.settings.WatcherPollMs) * time.Millisecond
}

// DataDir returns the ferry data directory under the user's home
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ferry"), nil
}
