package correction

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

type AmendRequest struct {
	Kind     domain.TargetKind
	TargetID uuid.UUID
	Changes  []FieldChange
	Reason   string
	Actor    string
}

// AmendResult carries the updated target (one of Batch or PaidInvoice) and the
// corrections written for it.
type AmendResult struct {
	Batch       *domain.PaymentBatch
	PaidInvoice *domain.PaidInvoice
	Corrections []domain.PaymentCorrection
}

// Amend applies field changes to a batch or a paid invoice. Only values that
// actually differ are written, each with its own correction row. Balances are
// never touched.
func (s *Service) Amend(ctx context.Context, req AmendRequest) (*AmendResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("Amend: %w", domain.ErrEmptyReason)
	}

	switch req.Kind {
	case domain.TargetKindBatch:
		changes, err := parseChanges(batchFields, req.Changes)
		if err != nil {
			return nil, fmt.Errorf("Amend: %w", err)
		}
		return s.inTx(ctx, func(tx *sql.Tx) (*AmendResult, error) {
			return s.amendBatch(ctx, tx, req, reason, changes)
		})
	case domain.TargetKindPaidInvoice:
		changes, err := parseChanges(paidInvoiceFields, req.Changes)
		if err != nil {
			return nil, fmt.Errorf("Amend: %w", err)
		}
		return s.inTx(ctx, func(tx *sql.Tx) (*AmendResult, error) {
			return s.amendPaidInvoice(ctx, tx, req, reason, changes)
		})
	default:
		return nil, fmt.Errorf("Amend: %q: %w", req.Kind, domain.ErrInvalidTargetKind)
	}
}

// inTx runs fn after taking the balance lock, the same first lock every
// ledger mutation takes, and commits when fn wrote something.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) (*AmendResult, error)) (*AmendResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Amend: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.balances.GetOrCreateForUpdate(ctx, tx); err != nil {
		return nil, fmt.Errorf("Amend: %w", err)
	}

	result, err := fn(tx)
	if err != nil {
		return nil, fmt.Errorf("Amend: %w", err)
	}
	if len(result.Corrections) == 0 {
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Amend: commit: %w", err)
	}
	return result, nil
}

func (s *Service) amendBatch(ctx context.Context, tx *sql.Tx, req AmendRequest, reason string, changes []parsedChange) (*AmendResult, error) {
	batch, err := s.batches.GetForUpdate(ctx, tx, req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("amendBatch: %w", err)
	}

	corrections := diff(batchFields, batch, changes, domain.TargetKindBatch, req.TargetID, reason, req.Actor)
	result := &AmendResult{Batch: batch, Corrections: corrections}
	if len(corrections) == 0 {
		return result, nil
	}

	if err := s.batches.UpdateKey(ctx, tx, batch.ID, batch.PaymentDate, batch.BankReference); err != nil {
		return nil, fmt.Errorf("amendBatch: %w", err)
	}
	if err := s.writeCorrections(ctx, tx, corrections); err != nil {
		return nil, fmt.Errorf("amendBatch: %w", err)
	}

	logging.FromContext(ctx).Info("batch amended",
		"batch_id", batch.ID,
		"fields", len(corrections),
	)
	return result, nil
}

func (s *Service) amendPaidInvoice(ctx context.Context, tx *sql.Tx, req AmendRequest, reason string, changes []parsedChange) (*AmendResult, error) {
	line, err := s.lines.GetForUpdate(ctx, tx, req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("amendPaidInvoice: %w", err)
	}
	if _, err := s.batches.GetForUpdate(ctx, tx, line.BatchID); err != nil {
		return nil, fmt.Errorf("amendPaidInvoice: %w", err)
	}

	corrections := diff(paidInvoiceFields, line, changes, domain.TargetKindPaidInvoice, req.TargetID, reason, req.Actor)
	result := &AmendResult{PaidInvoice: line, Corrections: corrections}
	if len(corrections) == 0 {
		return result, nil
	}

	if err := s.lines.Update(ctx, tx, line); err != nil {
		return nil, fmt.Errorf("amendPaidInvoice: %w", err)
	}
	if err := s.writeCorrections(ctx, tx, corrections); err != nil {
		return nil, fmt.Errorf("amendPaidInvoice: %w", err)
	}

	lines, err := s.lines.ListByBatch(ctx, tx, line.BatchID)
	if err != nil {
		return nil, fmt.Errorf("amendPaidInvoice: %w", err)
	}
	amounts := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		amounts[i] = l.Amount
	}
	total := money.Sum(amounts...)
	if err := s.batches.UpdateTotal(ctx, tx, line.BatchID, total); err != nil {
		return nil, fmt.Errorf("amendPaidInvoice: %w", err)
	}

	logging.FromContext(ctx).Info("paid invoice amended",
		"paid_invoice_id", line.ID,
		"batch_id", line.BatchID,
		"fields", len(corrections),
		"batch_total", money.String(total),
	)
	return result, nil
}

// diff applies every change whose canonical value differs from the current one
// to target and returns one correction per applied change.
func diff[T any](fields map[string]fieldSpec[T], target *T, changes []parsedChange, kind domain.TargetKind, targetID uuid.UUID, reason, actor string) []domain.PaymentCorrection {
	now := time.Now().UTC()
	var corrections []domain.PaymentCorrection
	for _, c := range changes {
		spec := fields[c.field]
		old := spec.get(target)
		if old == c.value {
			continue
		}
		spec.set(target, c.value)
		corrections = append(corrections, domain.PaymentCorrection{
			ID:         uuid.New(),
			TargetKind: kind,
			TargetID:   targetID,
			Field:      c.field,
			OldValue:   old,
			NewValue:   c.value,
			Reason:     reason,
			Actor:      actor,
			CreatedAt:  now,
		})
	}
	return corrections
}

func (s *Service) writeCorrections(ctx context.Context, tx *sql.Tx, corrections []domain.PaymentCorrection) error {
	for i := range corrections {
		if err := s.corrections.Create(ctx, tx, &corrections[i]); err != nil {
			return fmt.Errorf("writeCorrections: %w", err)
		}
	}
	return nil
}
