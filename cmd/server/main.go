package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alienxp03/sparring/internal/config"
	"github.com/alienxp03/sparring/internal/engine"
	"github.com/alienxp03/sparring/internal/policy"
	"github.com/alienxp03/sparring/internal/session"
	"github.com/alienxp03/sparring/internal/storage"
	"github.com/alienxp03/sparring/web/handlers"
)

func main() {
	port := flag.Int("port", 0, "Server port (default from config)")
	dbPath := flag.String("db", "", "Database path (default: ~/.sparring/sparring.db)")
	configPath := flag.String("config", "", "Config path (default: ~/.sparring/config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Initialize slog
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if *debug {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	path := *dbPath
	if path == "" {
		path = cfg.DatabasePath()
	}

	slog.Info("Initializing storage", "path", path)
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	// Initialize provider registry and engine
	registry := cfg.CreateRegistry()
	eng := engine.New(
		session.NewStore(),
		registry,
		store,
		policy.NewTierPolicy(cfg.Policy.FreeRounds, store),
		engine.Options{Provider: cfg.Defaults.Provider, Model: cfg.Defaults.Model},
	)

	h := handlers.New(eng, registry, store)

	// Start server
	listenPort := *port
	if listenPort == 0 {
		listenPort = cfg.Server.Port
	}
	addr := fmt.Sprintf(":%d", listenPort)
	server := &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("Shutting down...")
		server.Close()
	}()

	slog.Info("Starting sparring API server", "url", fmt.Sprintf("http://localhost%s", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
