package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thisisjab/cmoon/api"
	"github.com/thisisjab/cmoon/config"
	"gopkg.in/yaml.v3"
)

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "localhost:8000", "listen address, used when the config has none")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		fileContent, err := os.ReadFile(*cfgPath)
		if err != nil {
			panic(fmt.Errorf("cannot read config file content: %w", err))
		}
		if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
			panic(fmt.Errorf("cannot parse config file: %w", err))
		}
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = *addr
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		panic(fmt.Errorf("cannot create logger: %w", err))
	}

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Error("server panic", "error", r)
		}
	}()

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run the server in a separate goroutine so we can wait for signals
	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	// Create server
	server, err := api.NewServer(cfg.API, logger)
	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	// Run server
	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("server stopped.")
}
