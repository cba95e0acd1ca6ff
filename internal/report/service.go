package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
)

type batchReader interface {
	Get(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.PaymentBatch, error)
	ListByMonth(ctx context.Context, q repository.Querier, year int, month time.Month) ([]domain.PaymentBatch, error)
}

type lineReader interface {
	ListByBatches(ctx context.Context, q repository.Querier, batchIDs []uuid.UUID) (map[uuid.UUID][]domain.PaidInvoice, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// snapshot makes batches and their lines come from the same committed state.
var snapshot = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}

// Service loads committed batches and hands them to GroupByMonth.
type Service struct {
	batches batchReader
	lines   lineReader
	db      txBeginner
}

func NewService(batches batchReader, lines lineReader, db txBeginner) *Service {
	return &Service{batches: batches, lines: lines, db: db}
}

func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (*Report, error) {
	tx, err := s.db.BeginTx(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("Monthly: begin tx: %w", err)
	}
	defer tx.Rollback()

	batches, err := s.batches.ListByMonth(ctx, tx, year, month)
	if err != nil {
		return nil, fmt.Errorf("Monthly: %w", err)
	}

	ids := make([]uuid.UUID, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}

	byBatch, err := s.lines.ListByBatches(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("Monthly: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Monthly: commit: %w", err)
	}

	input := make([]BatchLines, len(batches))
	for i, b := range batches {
		input[i] = BatchLines{Batch: b, Lines: byBatch[b.ID]}
	}

	r := GroupByMonth(input, year, month)
	for _, w := range r.Warnings {
		logging.FromContext(ctx).Warn("settlement report warning", "month", fmt.Sprintf("%d-%02d", year, int(month)), "warning", w)
	}
	return r, nil
}

// Batch returns one batch and its block: lines in numeric-aware invoice number
// order with their subtotal.
func (s *Service) Batch(ctx context.Context, id uuid.UUID) (*domain.PaymentBatch, *Block, error) {
	tx, err := s.db.BeginTx(ctx, snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("Batch: begin tx: %w", err)
	}
	defer tx.Rollback()

	b, err := s.batches.Get(ctx, tx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("Batch: %w", err)
	}

	byBatch, err := s.lines.ListByBatches(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, nil, fmt.Errorf("Batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("Batch: commit: %w", err)
	}

	block := newBlock(BatchLines{Batch: *b, Lines: byBatch[id]})
	return b, &block, nil
}

// ParseMonth reads a "YYYY-MM" string.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("ParseMonth: %q: %w", s, domain.ErrInvalidFieldValue)
	}
	return t.Year(), t.Month(), nil
}
