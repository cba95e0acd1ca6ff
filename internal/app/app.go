// Package app assembles the repositories and services shared by the API
// server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/settlement-ledger/internal/bookkeeping"
	"github.com/josh-kwaku/settlement-ledger/internal/config"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/report"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
	"github.com/josh-kwaku/settlement-ledger/internal/service/correction"
	"github.com/josh-kwaku/settlement-ledger/internal/service/invoice"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
	"github.com/josh-kwaku/settlement-ledger/internal/service/simulation"
)

type App struct {
	DB *sql.DB

	Invoices    *invoice.Service
	Settlements *settlement.Service
	Corrections *correction.Service
	Simulations *simulation.Service
	Reports     *report.Service

	// Retrier is nil when no cashbook is configured.
	Retrier *bookkeeping.Retrier
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime(),
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime(),
		PingAttempts:    cfg.DBPingAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	return Wire(db, cfg), nil
}

// Wire builds every service on top of an open pool.
func Wire(db *sql.DB, cfg *config.Config) *App {
	invoiceRepo := repository.NewInvoiceRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	paidInvoiceRepo := repository.NewPaidInvoiceRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	simulationRepo := repository.NewSimulationRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	postingRepo := repository.NewPostingRepository(db)

	// A nil *Client in the interface would read as configured.
	var poster bookkeeping.Poster
	if cfg.CashbookURL != "" {
		poster = bookkeeping.NewClient(cfg.CashbookURL, cfg.CashbookTimeout())
	}

	a := &App{
		DB:       db,
		Invoices: invoice.NewService(invoiceRepo),
		Settlements: settlement.NewService(
			invoiceRepo, batchRepo, paidInvoiceRepo, balanceRepo,
			simulationRepo, correctionRepo, postingRepo,
			poster, db, cfg.BatchKeyMaxRetries,
		),
		Corrections: correction.NewService(batchRepo, paidInvoiceRepo, balanceRepo, correctionRepo, db),
		Simulations: simulation.NewService(invoiceRepo, balanceRepo, simulationRepo),
		Reports:     report.NewService(batchRepo, paidInvoiceRepo, db),
	}

	if poster != nil {
		a.Retrier = bookkeeping.NewRetrier(
			postingRepo, poster, db,
			logging.Component("posting-retrier"),
			cfg.PostingRetryInterval(), cfg.PostingMaxAttempts,
		)
	}
	return a
}

func (a *App) Close() error {
	return a.DB.Close()
}
