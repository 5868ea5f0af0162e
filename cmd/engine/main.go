package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/gateway"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
	"github.com/Chase295/pump-platform-sub002/internal/monitor"
	"github.com/Chase295/pump-platform-sub002/internal/scoring"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
	"github.com/Chase295/pump-platform-sub002/internal/telegram"
	"github.com/Chase295/pump-platform-sub002/internal/trigger"
	"github.com/Chase295/pump-platform-sub002/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "data/autopilot.db", "path to SQLite database")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Init logger
	log := logger.New(cfg.Logging.Level)
	log.Info("starting autopilot engine", "scoring_provider", cfg.Scoring.Provider)

	// Init database
	db, err := storage.NewDatabase(*dbPath)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	// Init gateways
	var scorer gateway.Scorer
	if cfg.Scoring.Provider == "llm" {
		scorer = scoring.NewLLMClient(cfg, log)
	} else {
		scorer = scoring.NewHTTPClient(cfg, log)
	}
	quoter := gateway.NewQuoteClient(cfg, log)
	executor := gateway.NewWalletClient(cfg, log)

	// Init services
	notifier := telegram.NewNotifier(cfg, log)
	engine := trigger.NewEngine(repo, scorer, executor, notifier, log)
	sellMonitor := monitor.NewMonitor(repo, quoter, executor, notifier, cfg, log)
	webServer := web.NewServer(repo, engine, cfg, log)

	sellMonitor.Start()

	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus("🤖 Autopilot engine started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	// Graceful shutdown: stop taking signals first, then drain the
	// monitor's in-flight cycle, then close the HTTP surface.
	engine.Close()
	sellMonitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	notifier.NotifyStatus("🛑 Autopilot engine stopped")
	log.Info("autopilot engine stopped")
}
