package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/gateway"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "data/autopilot.db", "path to SQLite database")
	dryRun := flag.Bool("dry-run", false, "show positions without closing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	db, err := storage.NewDatabase(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	positions, err := repo.AllOpenPositions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list positions error: %v\n", err)
		os.Exit(1)
	}

	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return
	}

	fmt.Printf("Found %d position(s):\n\n", len(positions))
	for _, p := range positions {
		peak := p.EntryPrice
		if p.PeakPrice != nil {
			peak = *p.PeakPrice
		}
		fmt.Printf("  wallet %d, %s: qty %.4f, entry %.6f, peak %.6f, opened %s\n",
			p.WalletID, p.AssetID, p.Quantity, p.EntryPrice, peak, p.OpenedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("Dry run, no positions closed.")
		return
	}

	executor := gateway.NewWalletClient(cfg, log)
	ctx := context.Background()

	var closed, failed int
	for _, p := range positions {
		tradeRef, err := executor.ClosePosition(ctx, p.WalletID, p.AssetID, 100)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [FAIL] wallet %d, %s: %v\n", p.WalletID, p.AssetID, err)
			failed++
			continue
		}

		fmt.Printf("  [OK]   wallet %d, %s: closed (trade %s)\n", p.WalletID, p.AssetID, tradeRef)
		closed++
	}

	fmt.Printf("\nDone: %d closed, %d failed.\n", closed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
