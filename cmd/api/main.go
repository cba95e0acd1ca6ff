package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/settlement-ledger/internal/app"
	"github.com/josh-kwaku/settlement-ledger/internal/config"
	"github.com/josh-kwaku/settlement-ledger/internal/handler"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("settlement-api", cfg.LogLevel, cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is required to serve the API")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Retrier != nil {
		go a.Retrier.Start(ctx)
	} else {
		slog.Warn("CASHBOOK_URL not set, bookkeeping posting disabled")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           routes(a, cfg),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func routes(a *app.App, cfg *config.Config) http.Handler {
	health := handler.NewHealthHandler(a.DB, a.Retrier != nil)
	invoices := handler.NewInvoiceHandler(a.Invoices)
	payments := handler.NewPaymentHandler(a.Settlements)
	balances := handler.NewBalanceHandler(a.Settlements)
	corrections := handler.NewCorrectionHandler(a.Corrections)
	simulations := handler.NewSimulationHandler(a.Simulations)
	reports := handler.NewReportHandler(a.Reports)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/invoices", invoices.Import)
	api.HandleFunc("GET /api/v1/invoices", invoices.ListPending)
	api.HandleFunc("GET /api/v1/invoices/{id}", invoices.Get)
	api.HandleFunc("POST /api/v1/invoices/{id}/revert", payments.Revert)

	api.HandleFunc("POST /api/v1/payments", payments.Commit)

	api.HandleFunc("GET /api/v1/batches/{id}", reports.Batch)
	api.HandleFunc("PATCH /api/v1/batches/{id}", corrections.AmendBatch)
	api.HandleFunc("PATCH /api/v1/paid-invoices/{id}", corrections.AmendPaidInvoice)
	api.HandleFunc("GET /api/v1/corrections", corrections.History)

	api.HandleFunc("POST /api/v1/simulations", simulations.Create)
	api.HandleFunc("GET /api/v1/simulations/{id}", simulations.Get)
	api.HandleFunc("DELETE /api/v1/simulations/{id}", simulations.Discard)

	api.HandleFunc("GET /api/v1/reports/{month}", reports.Monthly)

	api.HandleFunc("GET /api/v1/balance", balances.Get)
	api.HandleFunc("PUT /api/v1/balance", balances.SetFunds)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /ready", health.Readiness)
	mux.Handle("/api/", middleware.Auth(cfg.JWTSecret)(middleware.Logging(api)))

	return middleware.Recovery(middleware.Tracing(mux))
}
