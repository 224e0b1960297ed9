package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/poorehouse/twotruths/internal/config"
	"github.com/poorehouse/twotruths/internal/defaults"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/server"
	"github.com/poorehouse/twotruths/internal/store"
	"github.com/poorehouse/twotruths/internal/svc"
)

// RunServer starts the game server and blocks until shutdown.
func RunServer() {
	c := ServerConfig

	// Resolve the editable config file. --config wins; otherwise the
	// embedded default is seeded into the data directory on first run.
	path := cfgFile
	if path == "" {
		p, err := defaults.EnsureConfig(EmbeddedConfig)
		if err != nil {
			fmt.Printf("Failed to initialize data directory: %v\n", err)
			os.Exit(1)
		}
		path = p
	}
	if err := c.MergeFile(path); err != nil {
		fmt.Printf("Failed to load config %s: %v\n", path, err)
		os.Exit(1)
	}

	if verbose {
		c.Logging.Level = "debug"
	}
	logging.Setup(c.Logging.Level, c.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Infof("Received signal: %v, shutting down...", sig)
		cancel()
	}()

	svcCtx := svc.NewServiceContext(c)
	defer svcCtx.Close()

	sweeper, err := store.NewSweeper(svcCtx.Store, c.Store.SweepInterval)
	if err != nil {
		logging.Warnf("Session sweeper disabled: %v", err)
	} else {
		sweeper.Start()
		defer sweeper.Stop()
	}

	var wg sync.WaitGroup

	// Generation worker: polls for trigger requests and preloads rounds.
	wg.Add(1)
	go func() {
		defer wg.Done()
		svcCtx.Scheduler.Run(ctx)
	}()

	// Config watcher: prompt and log settings apply without a restart.
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := config.Watch(ctx, path, func(next *config.Config) {
			svcCtx.Generator.SetPrompt(next.Prompt)
			level := next.Logging.Level
			if verbose {
				level = "debug"
			}
			logging.Setup(level, next.Logging.Format)
		})
		if err != nil {
			logging.Warnf("Config watch stopped: %v", err)
		}
	}()

	if err := server.Run(ctx, c, svcCtx); err != nil {
		logging.Errorf("Server error: %v", err)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	cancel()
	wg.Wait()
	logging.Info("Two Truths & AI stopped")
}
