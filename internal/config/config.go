package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/csheth/wikitrail/internal/nav"
)

// Config is the top-level TOML structure.
type Config struct {
	Wiki  WikiConfig  `toml:"wiki"`
	UI    UIConfig    `toml:"ui"`
	Theme ThemeConfig `toml:"theme"`
}

// WikiConfig names the MediaWiki instance to browse.
type WikiConfig struct {
	Endpoint     string `toml:"endpoint"`
	LandingTitle string `toml:"landing_title"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	PaneWidth   int    `toml:"pane_width"`
	HistoryPath string `toml:"history_path"`
	TrailPath   string `toml:"trail_path"`
}

// ThemeConfig holds the terminal colors used by the pane views. Values are
// lipgloss color strings: ANSI indexes or hex codes.
type ThemeConfig struct {
	Accent        string `toml:"accent"`
	Border        string `toml:"border"`
	FocusedBorder string `toml:"focused_border"`
	VisitedLink   string `toml:"visited_link"`
	Error         string `toml:"error"`
	Muted         string `toml:"muted"`
}

const defaultConfigTOML = `# Wikitrail configuration.
# Delete a key to fall back to its default.

[wiki]
endpoint = "https://en.wikipedia.org/w/api.php"
landing_title = "Wikipedia"

[ui]
pane_width = 400
history_path = ""
trail_path = ""

[theme]
accent = "12"
border = "240"
focused_border = "12"
visited_link = "242"
error = "9"
muted = "245"
`

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "wikitrail"), nil
}

// DefaultPath returns the config file location used when no explicit path
// is given.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config at path, creating it with defaults when missing.
// An empty path selects the default location.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Default(), err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return Default(), fmt.Errorf("create config dir: %w", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(defaultConfigTOML), 0o644); wErr != nil {
			return Default(), fmt.Errorf("write default config: %w", wErr)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config.toml: %w", err)
	}
	return normalize(cfg), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Wiki: WikiConfig{
			Endpoint:     "https://en.wikipedia.org/w/api.php",
			LandingTitle: "Wikipedia",
		},
		UI: UIConfig{
			PaneWidth: 400,
		},
		Theme: ThemeConfig{
			Accent:        "12",
			Border:        "240",
			FocusedBorder: "12",
			VisitedLink:   "242",
			Error:         "9",
			Muted:         "245",
		},
	}
}

func normalize(cfg Config) Config {
	out := Default()
	if strings.TrimSpace(cfg.Wiki.Endpoint) != "" {
		out.Wiki.Endpoint = strings.TrimSpace(cfg.Wiki.Endpoint)
	}
	if strings.TrimSpace(cfg.Wiki.LandingTitle) != "" {
		out.Wiki.LandingTitle = strings.TrimSpace(cfg.Wiki.LandingTitle)
	}
	if cfg.UI.PaneWidth >= nav.MinPaneWidth {
		out.UI.PaneWidth = cfg.UI.PaneWidth
	}
	out.UI.HistoryPath = strings.TrimSpace(cfg.UI.HistoryPath)
	out.UI.TrailPath = strings.TrimSpace(cfg.UI.TrailPath)

	theme := []struct {
		dst *string
		src string
	}{
		{&out.Theme.Accent, cfg.Theme.Accent},
		{&out.Theme.Border, cfg.Theme.Border},
		{&out.Theme.FocusedBorder, cfg.Theme.FocusedBorder},
		{&out.Theme.VisitedLink, cfg.Theme.VisitedLink},
		{&out.Theme.Error, cfg.Theme.Error},
		{&out.Theme.Muted, cfg.Theme.Muted},
	}
	for _, entry := range theme {
		if strings.TrimSpace(entry.src) != "" {
			*entry.dst = strings.TrimSpace(entry.src)
		}
	}
	return out
}

// HistoryPath resolves the sqlite visit-history location, defaulting under
// the user data directory.
func (c Config) HistoryPath() (string, error) {
	if c.UI.HistoryPath != "" {
		return c.UI.HistoryPath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// TrailPath resolves where the current trail is persisted between runs.
func (c Config) TrailPath() (string, error) {
	if c.UI.TrailPath != "" {
		return c.UI.TrailPath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trail.json"), nil
}

func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, "wikitrail")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}
