package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/grove/internal/config"
	"github.com/vanderheijden86/grove/internal/vault"
	"github.com/vanderheijden86/grove/pkg/debug"
	"github.com/vanderheijden86/grove/pkg/ui"
	"github.com/vanderheijden86/grove/pkg/version"
	"github.com/vanderheijden86/grove/pkg/watcher"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: XDG config dir)")
	dataDir := flag.String("data", "", "Override the vault data directory")
	ephemeral := flag.Bool("ephemeral", false, "Keep the vault in memory, never touching disk")
	versionFlag := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("Usage: grove [options]")
		fmt.Println("\nA terminal client for threaded chat.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("grove %s\n", version.Version)
		os.Exit(0)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *ephemeral {
		cfg.Ephemeral = true
	}

	var v *vault.Vault
	if cfg.Ephemeral {
		v, err = vault.OpenInMemory()
	} else {
		v, err = vault.Open(cfg.VaultPath())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vault: %v\n", err)
		os.Exit(1)
	}
	defer v.Close()

	// Hot reload only makes sense when the config file exists on disk.
	var w *watcher.Watcher
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		w, err = watcher.NewWatcher(cfgPath)
		if err != nil {
			debug.Log("main: config watcher unavailable: %v", err)
			w = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := ui.NewApp(cfg, cfgPath, v, w)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	g, ctx := errgroup.WithContext(ctx)
	if w != nil {
		g.Go(func() error {
			if err := w.Start(); err != nil {
				return fmt.Errorf("starting config watcher: %w", err)
			}
			<-ctx.Done()
			w.Stop()
			return nil
		})
	}
	g.Go(func() error {
		_, err := program.Run()
		stop()
		return err
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
