package bookkeeping

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const retryBatchSize = 10

type postingStore interface {
	GetPending(ctx context.Context, tx *sql.Tx, limit int) ([]domain.Posting, error)
	RecordAttempt(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PostingStatus, lastErr *string) error
	MarkDispatched(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	MarkFailed(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason string) error
}

// Retrier drains the posting outbox on a fixed interval.
type Retrier struct {
	postings    postingStore
	poster      Poster
	db          *sql.DB
	logger      *slog.Logger
	interval    time.Duration
	maxAttempts int
}

func NewRetrier(
	postings postingStore,
	poster Poster,
	db *sql.DB,
	logger *slog.Logger,
	interval time.Duration,
	maxAttempts int,
) *Retrier {
	return &Retrier{
		postings:    postings,
		poster:      poster,
		db:          db,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

func (r *Retrier) Start(ctx context.Context) {
	r.logger.Info("posting retrier started", "interval", r.interval, "max_attempts", r.maxAttempts)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("posting retrier stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("posting retry pass failed", "error", err)
			}
		}
	}
}

// PassResult counts what one pass did with the postings it claimed.
type PassResult struct {
	Dispatched int
	Retrying   int
	Failed     int
}

// RunOnce claims up to one batch of pending postings and tries each once.
func (r *Retrier) RunOnce(ctx context.Context) (PassResult, error) {
	var result PassResult

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("RunOnce: begin tx: %w", err)
	}
	defer tx.Rollback()

	postings, err := r.postings.GetPending(ctx, tx, retryBatchSize)
	if err != nil {
		return result, fmt.Errorf("RunOnce: %w", err)
	}

	for _, p := range postings {
		status, err := r.attempt(ctx, tx, p)
		if err != nil {
			return result, fmt.Errorf("RunOnce: %w", err)
		}
		switch status {
		case domain.PostingStatusDispatched:
			result.Dispatched++
		case domain.PostingStatusFailed:
			result.Failed++
		default:
			result.Retrying++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("RunOnce: commit: %w", err)
	}
	return result, nil
}

func (r *Retrier) attempt(ctx context.Context, tx *sql.Tx, p domain.Posting) (domain.PostingStatus, error) {
	postErr := r.poster.PostExpense(ctx, EntryFromPosting(p))
	if postErr == nil {
		r.logger.Info("posting dispatched", "posting_id", p.ID, "batch_id", p.BatchID)
		return domain.PostingStatusDispatched, r.postings.MarkDispatched(ctx, tx, p.ID)
	}

	reason := postErr.Error()
	if p.Attempts+1 >= r.maxAttempts {
		r.logger.Error("posting abandoned",
			"posting_id", p.ID,
			"batch_id", p.BatchID,
			"attempts", p.Attempts+1,
			"error", postErr,
		)
		return domain.PostingStatusFailed, r.postings.MarkFailed(ctx, tx, p.ID, reason)
	}

	r.logger.Warn("posting attempt failed",
		"posting_id", p.ID,
		"batch_id", p.BatchID,
		"attempt", p.Attempts+1,
		"error", postErr,
	)
	return domain.PostingStatusPending, r.postings.RecordAttempt(ctx, tx, p.ID, domain.PostingStatusPending, &reason)
}
