package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("Core Functionality: defaults when file is missing", func(t *testing.T) {
		p, err := Load(t.TempDir())
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		s := p.Settings()
		if s.DefaultSorting != "name" {
			t.Errorf("Expected default sorting name, got %s", s.DefaultSorting)
		}
		if s.MaxWatchedPaths != 32 {
			t.Errorf("Expected 32 max watched paths, got %d", s.MaxWatchedPaths)
		}
		if p.TickInterval() != 100*time.Millisecond {
			t.Errorf("Unexpected tick interval %v", p.TickInterval())
		}
	})

	t.Run("Core Functionality: loads overrides from file", func(t *testing.T) {
		dir := t.TempDir()
		content := `{"defaultSorting":"size","showHiddenFiles":true,"tickIntervalMs":50}`
		if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		p, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if p.Settings().DefaultSorting != "size" {
			t.Errorf("Expected size sorting, got %s", p.Settings().DefaultSorting)
		}
		if !p.Settings().ShowHiddenFiles {
			t.Error("Expected hidden files shown")
		}
		if p.TickInterval() != 50*time.Millisecond {
			t.Errorf("Unexpected tick interval %v", p.TickInterval())
		}
	})

	t.Run("Error Handling: malformed file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(dir); err == nil {
			t.Error("Expected error for malformed settings")
		}
	})
}
