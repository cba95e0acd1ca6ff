package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/logging"
)

type expense struct {
	Date        string `json:"date"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Allocations []struct {
		Bucket string `json:"bucket"`
		Amount string `json:"amount"`
	} `json:"allocations"`
}

func main() {
	logging.Init("mock-cashbook", "info", os.Getenv("APP_ENV"))

	// MOCK_CASHBOOK_FAIL_FIRST rejects that many expenses with 503 before
	// accepting, so the posting retrier can be watched end to end.
	var failFirst atomic.Int64
	if v := os.Getenv("MOCK_CASHBOOK_FAIL_FIRST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			failFirst.Store(n)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /expenses", func(w http.ResponseWriter, r *http.Request) {
		var e expense
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}

		if failFirst.Add(-1) >= 0 {
			slog.Warn("rejecting expense", "reference", e.Reference)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cashbook unavailable"})
			return
		}

		slog.Info("expense recorded",
			"date", e.Date,
			"reference", e.Reference,
			"description", e.Description,
			"allocations", len(e.Allocations),
		)
		writeJSON(w, http.StatusCreated, map[string]string{"id": uuid.NewString()})
	})

	slog.Info("mock cashbook started", "addr", ":8081")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
