package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
)

type CommitRequest struct {
	PaymentDate   time.Time
	BankReference string
	InvoiceIDs    []uuid.UUID
	PostToLedger  bool
}

// Warning is a non-fatal problem reported alongside a successful result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnDuplicateInvoiceNumber = "duplicate_invoice_number"
	WarnBookkeepingFailed      = "bookkeeping_post_failed"
	WarnBookkeepingDisabled    = "bookkeeping_disabled"
)

type CommitResult struct {
	Batch     *domain.PaymentBatch
	NewlyPaid []domain.PaidInvoice
	// Skipped holds the ids of requested invoices whose number the batch already had.
	Skipped  []uuid.UUID
	Warnings []Warning
}

func (r CommitRequest) validate() error {
	if r.PaymentDate.IsZero() {
		return domain.ErrMissingPaymentDate
	}
	if strings.TrimSpace(r.BankReference) == "" {
		return domain.ErrMissingBankReference
	}
	if len(r.InvoiceIDs) == 0 {
		return domain.ErrNoInvoices
	}
	return nil
}

// dedupeIDs drops repeated ids, keeping first occurrence order.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Commit pays the requested pending invoices under the batch keyed by
// (PaymentDate, BankReference). Either every step up to the balance update and
// simulation cleanup is applied or none is. The bookkeeping post runs after the
// transaction and can only add warnings.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("Commit: %w", err)
	}
	req.PaymentDate = domain.DateOnly(req.PaymentDate)
	req.BankReference = strings.TrimSpace(req.BankReference)
	req.InvoiceIDs = dedupeIDs(req.InvoiceIDs)

	ctx = logging.With(ctx,
		"bank_reference", req.BankReference,
		"payment_date", req.PaymentDate.Format(time.DateOnly),
	)
	log := logging.FromContext(ctx)

	result, balance, err := s.executeCommit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Commit: %w", err)
	}

	if len(result.NewlyPaid) == 0 {
		log.Info("commit paid nothing new",
			"skipped", len(result.Skipped),
		)
		return result, nil
	}

	log.Info("payment committed",
		"batch_id", result.Batch.ID,
		"paid_now", money.String(money.Sub(result.Batch.BalanceBefore, result.Batch.BalanceAfter)),
		"batch_total", money.String(result.Batch.TotalAmount),
		"available_funds", money.String(balance.AvailableFunds),
	)

	if req.PostToLedger {
		if w := s.postToLedger(ctx, result.Batch, result.NewlyPaid); w != nil {
			result.Warnings = append(result.Warnings, *w)
		}
	}

	return result, nil
}

func (s *Service) executeCommit(ctx context.Context, req CommitRequest) (*CommitResult, *domain.Balance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := s.balances.GetOrCreateForUpdate(ctx, tx)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}

	invoices, err := s.lockPendingInvoices(ctx, tx, req.InvoiceIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}

	batch, created, err := s.lockOrCreateBatch(ctx, tx, req.PaymentDate, req.BankReference)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}

	existing, err := s.lines.ListByBatch(ctx, tx, batch.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}
	numbers := make(map[string]struct{}, len(existing)+len(invoices))
	for _, l := range existing {
		numbers[l.InvoiceNumber] = struct{}{}
	}

	result := &CommitResult{Batch: batch}
	now := time.Now().UTC()
	for _, inv := range invoices {
		if _, dup := numbers[inv.InvoiceNumber]; dup {
			result.Skipped = append(result.Skipped, inv.ID)
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnDuplicateInvoiceNumber,
				Message: fmt.Sprintf("invoice %s is already part of batch %s; left pending", inv.InvoiceNumber, batch.ID),
			})
			continue
		}

		line := domain.SnapshotInvoice(inv, batch.ID, now)
		if err := s.lines.Create(ctx, tx, line); err != nil {
			return nil, nil, fmt.Errorf("executeCommit: snapshot %s: %w", inv.InvoiceNumber, err)
		}
		if err := s.invoices.MarkPaid(ctx, tx, inv.ID, line.ID); err != nil {
			return nil, nil, fmt.Errorf("executeCommit: mark paid %s: %w", inv.InvoiceNumber, err)
		}
		numbers[inv.InvoiceNumber] = struct{}{}
		result.NewlyPaid = append(result.NewlyPaid, *line)
	}

	// Nothing new: the batch already held every requested number. Leaving
	// without commit discards a batch row created in this call.
	if len(result.NewlyPaid) == 0 {
		if created {
			result.Batch = nil
		}
		return result, balance, nil
	}

	all, err := s.lines.ListByBatch(ctx, tx, batch.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}
	total := money.Sum(amounts(all)...)
	paidNow := money.Sum(amounts(result.NewlyPaid)...)

	before := balance.AvailableFunds
	after := money.Sub(before, paidNow)
	if err := s.batches.UpdateTotals(ctx, tx, batch.ID, total, before, after); err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}
	batch.TotalAmount = total
	batch.BalanceBefore = before
	batch.BalanceAfter = after
	batch.UpdatedAt = now

	balance.AvailableFunds = after
	balance.BalanceAfter = money.Sub(after, balance.Planned)
	if err := s.balances.Update(ctx, tx, balance); err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}

	paidIDs := make([]uuid.UUID, len(result.NewlyPaid))
	for i, l := range result.NewlyPaid {
		paidIDs[i] = l.InvoiceID
	}
	removed, err := s.simulations.DeleteReferencing(ctx, tx, paidIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("executeCommit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("executeCommit: commit: %w", err)
	}

	if removed > 0 {
		logging.FromContext(ctx).Info("stale simulations removed", "batch_id", batch.ID, "count", removed)
	}
	return result, balance, nil
}

// lockPendingInvoices locks every id and returns the invoices in request order.
func (s *Service) lockPendingInvoices(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) ([]*domain.Invoice, error) {
	locked, err := s.invoices.GetManyForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("lockPendingInvoices: %w", err)
	}

	invoices := make([]*domain.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, ok := locked[id]
		if !ok {
			return nil, fmt.Errorf("lockPendingInvoices: %s: %w", id, domain.ErrInvoiceNotFound)
		}
		if !inv.IsPending() {
			return nil, fmt.Errorf("lockPendingInvoices: %s (%s): %w", inv.InvoiceNumber, id, domain.ErrInvoiceNotPending)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// lockOrCreateBatch resolves the batch for the key, creating it when absent.
// A concurrent insert of the same key or a batch vanishing between insert and
// select is retried against the row that now exists.
func (s *Service) lockOrCreateBatch(ctx context.Context, tx *sql.Tx, paymentDate time.Time, bankReference string) (*domain.PaymentBatch, bool, error) {
	for attempt := 1; attempt <= s.keyMaxRetries; attempt++ {
		if _, err := tx.ExecContext(ctx, `SAVEPOINT batch_key`); err != nil {
			return nil, false, fmt.Errorf("lockOrCreateBatch: savepoint: %w", err)
		}

		batch, created, retry, err := s.tryLockOrCreateBatch(ctx, tx, paymentDate, bankReference)
		if err != nil {
			return nil, false, fmt.Errorf("lockOrCreateBatch: %w", err)
		}
		if !retry {
			if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT batch_key`); err != nil {
				return nil, false, fmt.Errorf("lockOrCreateBatch: release savepoint: %w", err)
			}
			return batch, created, nil
		}

		if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT batch_key`); err != nil {
			return nil, false, fmt.Errorf("lockOrCreateBatch: rollback to savepoint: %w", err)
		}
		logging.FromContext(ctx).Warn("batch key collision, retrying",
			"bank_reference", bankReference,
			"attempt", attempt,
		)
	}
	return nil, false, fmt.Errorf("lockOrCreateBatch: %s %q: %w", paymentDate.Format(time.DateOnly), bankReference, domain.ErrVersionConflict)
}

// tryLockOrCreateBatch reports (batch, created, retry, err).
func (s *Service) tryLockOrCreateBatch(ctx context.Context, tx *sql.Tx, paymentDate time.Time, bankReference string) (*domain.PaymentBatch, bool, bool, error) {
	now := time.Now().UTC()
	candidate := &domain.PaymentBatch{
		ID:            uuid.New(),
		PaymentDate:   paymentDate,
		BankReference: bankReference,
		TotalAmount:   decimal.Zero,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	inserted, err := s.batches.InsertIfAbsent(ctx, tx, candidate)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, false, true, nil
		}
		return nil, false, false, err
	}
	if inserted {
		return candidate, true, false, nil
	}

	batch, err := s.batches.GetByKeyForUpdate(ctx, tx, paymentDate, bankReference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, true, nil
		}
		return nil, false, false, err
	}
	return batch, false, false, nil
}

func amounts(lines []domain.PaidInvoice) []decimal.Decimal {
	out := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		out[i] = l.Amount
	}
	return out
}
