package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thisisjab/cmoon/config"
	"github.com/thisisjab/cmoon/engine"
	"github.com/thisisjab/cmoon/storage"
	"gopkg.in/yaml.v3"
)

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "./.config.yaml", "path to config file")
	flag.Parse()

	fileContent, err := os.ReadFile(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("cannot read config file content: %w", err))
	}

	cfg := config.Default()
	if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	engineCfg, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	if ch, ok := engineCfg.Storage.(*storage.ClickHouseStorage); ok {
		if err := ch.Connect(ctx); err != nil {
			logger.Error("storage error.", "error", err)
			os.Exit(1)
		}
		defer ch.Close()
	}

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run the engine in a separate goroutine so we can wait for signals
	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	// Create engine
	e, err := engine.New(*engineCfg, logger)
	if err != nil {
		logger.Error("engine error.", "error", err)
		os.Exit(1)
	}

	// Run engine
	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine error.", "error", err)
	}

	logger.Info("engine stopped.")
}
