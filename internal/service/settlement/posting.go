package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/bookkeeping"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
)

// postToLedger sends the expense entry for the newly paid lines. A failed post
// is parked in the outbox for the retrier and reported as a warning; it never
// undoes the committed payment.
func (s *Service) postToLedger(ctx context.Context, batch *domain.PaymentBatch, lines []domain.PaidInvoice) *Warning {
	log := logging.FromContext(ctx)

	if s.poster == nil {
		log.Warn("bookkeeping post requested but no cashbook is configured", "batch_id", batch.ID)
		return &Warning{
			Code:    WarnBookkeepingDisabled,
			Message: "bookkeeping is not configured; no expense entry was posted",
		}
	}

	entry := bookkeeping.BuildEntry(batch.PaymentDate, batch.BankReference, lines)
	postErr := s.poster.PostExpense(ctx, entry)
	if postErr == nil {
		log.Info("bookkeeping entry posted", "batch_id", batch.ID, "allocations", len(entry.Allocations))
		return nil
	}

	log.Warn("bookkeeping post failed", "batch_id", batch.ID, "error", postErr)

	reason := postErr.Error()
	now := time.Now().UTC()
	posting := &domain.Posting{
		ID:          uuid.New(),
		BatchID:     batch.ID,
		PaymentDate: entry.Date,
		Reference:   entry.Reference,
		Description: entry.Description,
		Allocations: entry.Allocations,
		Status:      domain.PostingStatusPending,
		Attempts:    1,
		LastError:   &reason,
		LastAttempt: &now,
		CreatedAt:   now,
	}

	msg := fmt.Sprintf("bookkeeping post failed, queued for retry: %v", postErr)
	if err := s.postings.Create(ctx, posting); err != nil {
		log.Error("failed to queue bookkeeping post", "batch_id", batch.ID, "error", err)
		msg = fmt.Sprintf("bookkeeping post failed and could not be queued: %v", postErr)
	}

	return &Warning{Code: WarnBookkeepingFailed, Message: msg}
}
