package main

import (
	"fmt"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/sidediff/sidediff/internal/comments"
	"github.com/sidediff/sidediff/internal/config"
	"github.com/sidediff/sidediff/internal/logging"
	"github.com/sidediff/sidediff/internal/refresh"
	"github.com/sidediff/sidediff/internal/snapshot"
	"github.com/sidediff/sidediff/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--version", "version":
			fmt.Printf("sidediff %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		case "-v":
			fmt.Printf("sidediff %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			fmt.Printf("  go:     %s\n", runtime.Version())
			fmt.Printf("  os:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
			os.Exit(0)
		}
	}

	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := comments.Open(config.CommentsDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open comment store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve working directory: %v\n", err)
		os.Exit(1)
	}
	root, err := snapshot.DiscoverRoot(cwd)
	if err != nil {
		// No repository here isn't fatal: the UI starts anyway and
		// reports it inline rather than exiting.
		root = cwd
	}

	ctrl := refresh.New()
	events := make(chan struct{}, 1)
	watcher, err := refresh.Start(root, func() {
		select {
		case events <- struct{}{}:
		default:
		}
	})
	if err != nil {
		log.Warn("file watcher setup failed", "error", err)
		events = nil
	} else {
		defer watcher.Close()
	}

	app := ui.New(root, cfg, store, ctrl, events)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
