package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/report"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
	"github.com/josh-kwaku/settlement-ledger/internal/testutil"
)

var march1 = testutil.Day(2025, time.March, 1)

// batchesThen runs after once the batch list has been read.
type batchesThen struct {
	*repository.BatchRepository
	after func()
	seen  []domain.PaymentBatch
}

func (b *batchesThen) ListByMonth(ctx context.Context, q repository.Querier, year int, month time.Month) ([]domain.PaymentBatch, error) {
	batches, err := b.BatchRepository.ListByMonth(ctx, q, year, month)
	b.seen = batches
	if b.after != nil {
		b.after()
		b.after = nil
	}
	return batches, err
}

func TestMonthly_LinesMatchBatchTotalsUnderConcurrentCommit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	payments := settlement.NewService(
		repository.NewInvoiceRepository(db),
		repository.NewBatchRepository(db),
		repository.NewPaidInvoiceRepository(db),
		repository.NewBalanceRepository(db),
		repository.NewSimulationRepository(db),
		repository.NewCorrectionRepository(db),
		repository.NewPostingRepository(db),
		nil,
		db,
		3,
	)
	commit := func(inv *domain.Invoice) {
		_, err := payments.Commit(ctx, settlement.CommitRequest{
			PaymentDate:   march1,
			BankReference: "1001",
			InvoiceIDs:    []uuid.UUID{inv.ID},
		})
		require.NoError(t, err)
	}

	testutil.SeedBalance(t, db, "1000.00", "0")
	commit(testutil.SeedInvoice(t, db, "1", "100.00", domain.CategoryFuel))
	late := testutil.SeedInvoice(t, db, "2", "50.00", domain.CategoryFuel)

	batches := &batchesThen{
		BatchRepository: repository.NewBatchRepository(db),
		after:           func() { commit(late) },
	}
	svc := report.NewService(batches, repository.NewPaidInvoiceRepository(db), db)

	r, err := svc.Monthly(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, batches.seen, 1)
	require.Len(t, r.Dates, 1)
	require.Len(t, r.Dates[0].Blocks, 1)

	block := r.Dates[0].Blocks[0]
	assert.Len(t, block.Invoices, 1)
	assert.Equal(t, batches.seen[0].TotalAmount.StringFixed(2), block.Subtotal.StringFixed(2))
	assert.Equal(t, "100.00", r.GrandTotal.StringFixed(2))

	r, err = svc.Monthly(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, "150.00", r.GrandTotal.StringFixed(2))
	assert.Equal(t, batches.seen[0].TotalAmount.StringFixed(2), r.GrandTotal.StringFixed(2))
}

func TestBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := report.NewService(repository.NewBatchRepository(db), repository.NewPaidInvoiceRepository(db), db)

	_, _, err := svc.Batch(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
