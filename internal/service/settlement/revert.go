package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

type RevertRequest struct {
	InvoiceID uuid.UUID
	Reason    string
	Actor     string
}

// Revert undoes the payment of a single invoice: its line leaves the batch,
// the invoice returns to pending and the amount debited at commit goes back to
// available funds, whatever later corrections did to the line.
// A batch left without lines is removed.
func (s *Service) Revert(ctx context.Context, req RevertRequest) (*domain.Invoice, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("Revert: %w", domain.ErrEmptyReason)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Revert: begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := s.balances.GetOrCreateForUpdate(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}

	inv, err := s.invoices.GetForUpdate(ctx, tx, req.InvoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Revert: %s: %w", req.InvoiceID, domain.ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("Revert: %w", err)
	}
	if inv.Status != domain.InvoiceStatusPaid {
		return nil, fmt.Errorf("Revert: %s: %w", inv.InvoiceNumber, domain.ErrInvoiceNotPaid)
	}

	line, err := s.lines.GetByInvoiceIDForUpdate(ctx, tx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}

	batch, err := s.batches.GetForUpdate(ctx, tx, line.BatchID)
	if err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}

	if err := s.invoices.MarkPending(ctx, tx, inv.ID); err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}
	if err := s.lines.Delete(ctx, tx, line.ID); err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}

	remaining, err := s.lines.ListByBatch(ctx, tx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}
	batchRemoved := len(remaining) == 0
	if batchRemoved {
		if err := s.batches.Delete(ctx, tx, batch.ID); err != nil {
			return nil, fmt.Errorf("Revert: %w", err)
		}
	} else {
		if err := s.batches.UpdateTotal(ctx, tx, batch.ID, money.Sum(amounts(remaining)...)); err != nil {
			return nil, fmt.Errorf("Revert: %w", err)
		}
	}

	balance.AvailableFunds = money.Add(balance.AvailableFunds, line.DebitedAmount)
	balance.BalanceAfter = money.Sub(balance.AvailableFunds, balance.Planned)
	if err := s.balances.Update(ctx, tx, balance); err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}

	correction := &domain.PaymentCorrection{
		ID:         uuid.New(),
		TargetKind: domain.TargetKindInvoice,
		TargetID:   inv.ID,
		Field:      "status",
		OldValue:   string(domain.InvoiceStatusPaid),
		NewValue:   string(domain.InvoiceStatusPending),
		Reason:     strings.TrimSpace(req.Reason),
		Actor:      req.Actor,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.corrections.Create(ctx, tx, correction); err != nil {
		return nil, fmt.Errorf("Revert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Revert: commit: %w", err)
	}

	log.Info("payment reverted",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"batch_id", batch.ID,
		"batch_removed", batchRemoved,
		"refunded", money.String(line.DebitedAmount),
	)

	inv.Status = domain.InvoiceStatusPending
	inv.PaidInvoiceID = nil
	return inv, nil
}
