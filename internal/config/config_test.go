package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Wiki.Endpoint != "https://en.wikipedia.org/w/api.php" {
		t.Fatalf("endpoint = %q", cfg.Wiki.Endpoint)
	}
	if cfg.UI.PaneWidth != 400 {
		t.Fatalf("pane width = %d, want 400", cfg.UI.PaneWidth)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	if !strings.Contains(string(data), "[wiki]") {
		t.Fatalf("default config missing wiki section: %q", string(data))
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[wiki]
endpoint = "https://de.wikipedia.org/w/api.php"
landing_title = "Wikipedia:Hauptseite"

[ui]
pane_width = 600

[theme]
accent = "#ff8800"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Wiki.Endpoint != "https://de.wikipedia.org/w/api.php" {
		t.Fatalf("endpoint = %q", cfg.Wiki.Endpoint)
	}
	if cfg.UI.PaneWidth != 600 {
		t.Fatalf("pane width = %d, want 600", cfg.UI.PaneWidth)
	}
	if cfg.Theme.Accent != "#ff8800" {
		t.Fatalf("accent = %q", cfg.Theme.Accent)
	}
	// Unset keys keep their defaults.
	if cfg.Theme.Border != "240" {
		t.Fatalf("border = %q, want default 240", cfg.Theme.Border)
	}
}

func TestNormalizeRejectsNarrowPaneWidth(t *testing.T) {
	t.Parallel()

	cfg, err := parse([]byte("[ui]\npane_width = 50\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.UI.PaneWidth != 400 {
		t.Fatalf("pane width = %d, want default 400", cfg.UI.PaneWidth)
	}
}

func TestHistoryPathPrefersConfiguredValue(t *testing.T) {
	cfg := Default()
	cfg.UI.HistoryPath = "/tmp/custom.db"
	path, err := cfg.HistoryPath()
	if err != nil {
		t.Fatalf("HistoryPath: %v", err)
	}
	if path != "/tmp/custom.db" {
		t.Fatalf("path = %q", path)
	}
}

func TestTrailPathDefaultsUnderDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg := Default()
	path, err := cfg.TrailPath()
	if err != nil {
		t.Fatalf("TrailPath: %v", err)
	}
	if filepath.Base(path) != "trail.json" {
		t.Fatalf("path = %q", path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("data dir not created: %v", err)
	}
}
