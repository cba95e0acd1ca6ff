package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/settlement-ledger/internal/app"
	"github.com/josh-kwaku/settlement-ledger/internal/config"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "settlectl",
	Short: "Operator tool for the settlement ledger",
	Long: `settlectl reads and maintains the settlement ledger directly against its
database. It uses the same environment variables as the API server
(DATABASE_URL, CASHBOOK_URL, JWT_SECRET, ...).`,
	SilenceUsage: true,
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init("settlectl", cfg.LogLevel, cfg.AppEnv)
	return cfg, nil
}

// withApp loads config, connects and hands the wired services to fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer a.Close()

	return fn(a)
}
