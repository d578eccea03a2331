package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/wikitrail/internal/config"
	"github.com/csheth/wikitrail/internal/tui"
	"github.com/csheth/wikitrail/internal/visited"
	"github.com/csheth/wikitrail/internal/wiki"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: user config dir)")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	noMouse := flag.Bool("no-mouse", false, "disable mouse focus and divider dragging")
	resume := flag.Bool("resume", true, "restore the previous trail on startup")
	historyPath := flag.String("history", "", "override the visit history database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("using default config:", err)
	}

	client, err := wiki.NewClient(cfg.Wiki.Endpoint)
	if err != nil {
		fmt.Println("failed to set up wiki client:", err)
		os.Exit(1)
	}

	dbPath := *historyPath
	if dbPath == "" {
		dbPath, err = cfg.HistoryPath()
		if err != nil {
			fmt.Println("visit history disabled:", err)
			dbPath = ""
		}
	}
	var store *visited.Store
	if dbPath != "" {
		store, err = visited.OpenStore(dbPath)
		if err != nil {
			fmt.Println("visit history disabled:", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	trailPath, err := cfg.TrailPath()
	if err != nil {
		fmt.Println("trail persistence disabled:", err)
		trailPath = ""
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if !*noMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Resolver:     client,
			Tracker:      visited.NewTracker(store),
			TrailPath:    trailPath,
			LandingTitle: cfg.Wiki.LandingTitle,
			PaneWidth:    cfg.UI.PaneWidth,
			Resume:       *resume,
			Theme:        cfg.Theme,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
