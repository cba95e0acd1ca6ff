package settlement_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/settlement-ledger/internal/bookkeeping"
	"github.com/josh-kwaku/settlement-ledger/internal/bookkeeping/mocks"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
	"github.com/josh-kwaku/settlement-ledger/internal/testutil"
)

var march1 = testutil.Day(2025, time.March, 1)

func setupSettlementService(t *testing.T, db *sql.DB, poster bookkeeping.Poster) *settlement.Service {
	t.Helper()
	return settlement.NewService(
		repository.NewInvoiceRepository(db),
		repository.NewBatchRepository(db),
		repository.NewPaidInvoiceRepository(db),
		repository.NewBalanceRepository(db),
		repository.NewSimulationRepository(db),
		repository.NewCorrectionRepository(db),
		repository.NewPostingRepository(db),
		poster,
		db,
		3,
	)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func TestCommit_TwoInvoicesNewBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "1000.00", "100.00")
	a := testutil.SeedInvoice(t, db, "A", "120.50", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, db, "B", "79.50", domain.CategoryLPG)

	res, err := svc.Commit(ctx, settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: "1001",
		InvoiceIDs:    []uuid.UUID{a.ID, b.ID},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Batch)
	assertMoney(t, "200.00", res.Batch.TotalAmount)
	assertMoney(t, "1000.00", res.Batch.BalanceBefore)
	assertMoney(t, "800.00", res.Batch.BalanceAfter)
	assert.Len(t, res.NewlyPaid, 2)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.Warnings)

	bal := testutil.GetBalance(t, db)
	assertMoney(t, "800.00", bal.AvailableFunds)
	assertMoney(t, "700.00", bal.BalanceAfter)
	assert.Equal(t, int64(1), bal.Version)

	assert.Equal(t, domain.InvoiceStatusPaid, testutil.GetInvoiceStatus(t, db, a.ID))
	assert.Equal(t, domain.InvoiceStatusPaid, testutil.GetInvoiceStatus(t, db, b.ID))

	inv, err := repository.NewInvoiceRepository(db).GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, inv.PaidInvoiceID)
	assert.Equal(t, res.NewlyPaid[0].ID, *inv.PaidInvoiceID)
}

func TestCommit_ReusesBatchAndDecrementsOnlyNewAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "1000.00", "0")
	a := testutil.SeedInvoice(t, db, "A", "120.50", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, db, "B", "79.50", domain.CategoryFuel)

	first, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)

	second, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{b.ID}})
	require.NoError(t, err)

	assert.Equal(t, first.Batch.ID, second.Batch.ID)
	assertMoney(t, "200.00", second.Batch.TotalAmount)
	assertMoney(t, "879.50", second.Batch.BalanceBefore)
	assertMoney(t, "800.00", second.Batch.BalanceAfter)
	assert.Equal(t, 1, testutil.CountRows(t, db, "payment_batches"))
	assert.Equal(t, 2, testutil.CountPaidInvoices(t, db, first.Batch.ID))

	bal := testutil.GetBalance(t, db)
	assertMoney(t, "800.00", bal.AvailableFunds)
}

func TestCommit_CreatesBalanceLazily(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)

	a := testutil.SeedInvoice(t, db, "7", "10.00", domain.CategoryOther)
	_, err := svc.Commit(context.Background(), settlement.CommitRequest{PaymentDate: march1, BankReference: "X", InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)

	bal := testutil.GetBalance(t, db)
	assertMoney(t, "-10.00", bal.AvailableFunds)
	assertMoney(t, "-10.00", bal.BalanceAfter)
}

func TestCommit_RepeatedIDsPaidOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)

	testutil.SeedBalance(t, db, "500.00", "0")
	a := testutil.SeedInvoice(t, db, "12", "40.00", domain.CategoryRent)

	res, err := svc.Commit(context.Background(), settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: "1001",
		InvoiceIDs:    []uuid.UUID{a.ID, a.ID, a.ID},
	})
	require.NoError(t, err)
	assert.Len(t, res.NewlyPaid, 1)
	assertMoney(t, "460.00", testutil.GetBalance(t, db).AvailableFunds)
}

func TestCommit_SameNumberAlreadyInBatchIsSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "500.00", "0")
	original := testutil.SeedInvoice(t, db, "55", "30.00", domain.CategoryFuel)
	resubmitted := testutil.SeedInvoice(t, db, "55", "30.00", domain.CategoryFuel)
	other := testutil.SeedInvoice(t, db, "56", "20.00", domain.CategoryFuel)

	first, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{original.ID}})
	require.NoError(t, err)

	res, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{resubmitted.ID, other.ID}})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{resubmitted.ID}, res.Skipped)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, settlement.WarnDuplicateInvoiceNumber, res.Warnings[0].Code)
	require.Len(t, res.NewlyPaid, 1)
	assert.Equal(t, "56", res.NewlyPaid[0].InvoiceNumber)

	assert.Equal(t, domain.InvoiceStatusPending, testutil.GetInvoiceStatus(t, db, resubmitted.ID))
	assert.Equal(t, 2, testutil.CountPaidInvoices(t, db, first.Batch.ID))
	assertMoney(t, "50.00", res.Batch.TotalAmount)
	assertMoney(t, "450.00", testutil.GetBalance(t, db).AvailableFunds)
}

func TestCommit_AllSkippedChangesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "500.00", "0")
	original := testutil.SeedInvoice(t, db, "55", "30.00", domain.CategoryFuel)
	resubmitted := testutil.SeedInvoice(t, db, "55", "30.00", domain.CategoryFuel)

	_, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{original.ID}})
	require.NoError(t, err)
	before := testutil.GetBalance(t, db)

	res, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{resubmitted.ID}})
	require.NoError(t, err)
	assert.Empty(t, res.NewlyPaid)
	assert.Len(t, res.Skipped, 1)

	after := testutil.GetBalance(t, db)
	assert.Equal(t, before.Version, after.Version)
	assertMoney(t, "470.00", after.AvailableFunds)
}

func TestCommit_PaidInvoiceRollsBackEverything(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "500.00", "0")
	a := testutil.SeedInvoice(t, db, "1", "10.00", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, db, "2", "20.00", domain.CategoryFuel)

	_, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)
	balanceBefore := testutil.GetBalance(t, db)

	_, err = svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "2002", InvoiceIDs: []uuid.UUID{b.ID, a.ID}})
	require.ErrorIs(t, err, domain.ErrInvoiceNotPending)
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	assert.Equal(t, balanceBefore, testutil.GetBalance(t, db))
	assert.Equal(t, domain.InvoiceStatusPending, testutil.GetInvoiceStatus(t, db, b.ID))
	assert.Equal(t, 1, testutil.CountRows(t, db, "payment_batches"))
	assert.Equal(t, 1, testutil.CountRows(t, db, "paid_invoices"))
}

func TestCommit_UnknownInvoice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)

	a := testutil.SeedInvoice(t, db, "1", "10.00", domain.CategoryFuel)
	_, err := svc.Commit(context.Background(), settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: "1001",
		InvoiceIDs:    []uuid.UUID{a.ID, uuid.New()},
	})
	require.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	assert.Equal(t, domain.InvoiceStatusPending, testutil.GetInvoiceStatus(t, db, a.ID))
	assert.Equal(t, 0, testutil.CountRows(t, db, "payment_batches"))
}

func TestCommit_RemovesStaleSimulations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()
	sims := repository.NewSimulationRepository(db)

	a := testutil.SeedInvoice(t, db, "1", "10.00", domain.CategoryFuel)
	c := testutil.SeedInvoice(t, db, "3", "30.00", domain.CategoryFuel)

	stale := &domain.PaymentSimulation{
		ID: uuid.New(), SimulationDate: march1, InvoiceIDs: []uuid.UUID{c.ID, a.ID},
		TransferDescription: "Payment of invoices: 1, 3", CreatedAt: time.Now().UTC(),
	}
	unrelated := &domain.PaymentSimulation{
		ID: uuid.New(), SimulationDate: march1, InvoiceIDs: []uuid.UUID{c.ID},
		TransferDescription: "Payment of invoices: 3", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, sims.Create(ctx, stale))
	require.NoError(t, sims.Create(ctx, unrelated))

	_, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)

	_, err = sims.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	kept, err := sims.GetByID(ctx, unrelated.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID}, kept.InvoiceIDs)
}

func TestCommit_ConcurrentSameKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "1000.00", "0")
	const n = 8
	invoices := make([]*domain.Invoice, n)
	for i := range invoices {
		invoices[i] = testutil.SeedInvoice(t, db, uuid.NewString()[:6], "12.50", domain.CategoryFuel)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range invoices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Commit(ctx, settlement.CommitRequest{
				PaymentDate:   march1,
				BankReference: "RACE-1",
				InvoiceIDs:    []uuid.UUID{invoices[i].ID},
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, testutil.CountRows(t, db, "payment_batches"))
	assert.Equal(t, n, testutil.CountRows(t, db, "paid_invoices"))

	bal := testutil.GetBalance(t, db)
	assertMoney(t, "900.00", bal.AvailableFunds)
	assert.Equal(t, int64(n), bal.Version)

	var total decimal.Decimal
	require.NoError(t, db.QueryRow(`SELECT total_amount FROM payment_batches`).Scan(&total))
	assertMoney(t, "100.00", total)
}

func TestCommit_BookkeepingPosted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctrl := gomock.NewController(t)
	poster := mocks.NewMockPoster(ctrl)
	svc := setupSettlementService(t, db, poster)

	a := testutil.SeedInvoice(t, db, "10", "75.00", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, db, "9", "50.00", domain.CategoryRent)

	poster.EXPECT().
		PostExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e bookkeeping.Entry) error {
			assert.Equal(t, march1, e.Date)
			assert.Equal(t, "1001", e.Reference)
			assert.Equal(t, "Payment of invoices: 9, 10", e.Description)
			require.Len(t, e.Allocations, 2)
			return nil
		})

	res, err := svc.Commit(context.Background(), settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: "1001",
		InvoiceIDs:    []uuid.UUID{a.ID, b.ID},
		PostToLedger:  true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 0, testutil.CountRows(t, db, "bookkeeping_postings"))
}

func TestCommit_BookkeepingFailureIsAWarning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctrl := gomock.NewController(t)
	poster := mocks.NewMockPoster(ctrl)
	svc := setupSettlementService(t, db, poster)

	testutil.SeedBalance(t, db, "100.00", "0")
	a := testutil.SeedInvoice(t, db, "1", "25.00", domain.CategoryLubricants)

	poster.EXPECT().PostExpense(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	res, err := svc.Commit(context.Background(), settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: "1001",
		InvoiceIDs:    []uuid.UUID{a.ID},
		PostToLedger:  true,
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, settlement.WarnBookkeepingFailed, res.Warnings[0].Code)
	assert.Contains(t, res.Warnings[0].Message, "connection refused")

	assert.Equal(t, domain.InvoiceStatusPaid, testutil.GetInvoiceStatus(t, db, a.ID))
	assertMoney(t, "75.00", testutil.GetBalance(t, db).AvailableFunds)
	assert.Equal(t, 1, testutil.CountRows(t, db, "bookkeeping_postings"))
}

func TestCommit_BookkeepingNotConfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)

	a := testutil.SeedInvoice(t, db, "1", "25.00", domain.CategoryFuel)
	res, err := svc.Commit(context.Background(), settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: "1001",
		InvoiceIDs:    []uuid.UUID{a.ID},
		PostToLedger:  true,
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, settlement.WarnBookkeepingDisabled, res.Warnings[0].Code)
}

func TestRevert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	testutil.SeedBalance(t, db, "1000.00", "0")
	a := testutil.SeedInvoice(t, db, "A", "120.50", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, db, "B", "79.50", domain.CategoryFuel)

	res, err := svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1001", InvoiceIDs: []uuid.UUID{a.ID, b.ID}})
	require.NoError(t, err)
	batchID := res.Batch.ID

	inv, err := svc.Revert(ctx, settlement.RevertRequest{InvoiceID: a.ID, Reason: "paid twice by mistake", Actor: "ops@station"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
	assert.Nil(t, inv.PaidInvoiceID)

	batch, err := repository.NewBatchRepository(db).GetByID(ctx, batchID)
	require.NoError(t, err)
	assertMoney(t, "79.50", batch.TotalAmount)
	assertMoney(t, "920.50", testutil.GetBalance(t, db).AvailableFunds)
	assert.Equal(t, 1, testutil.CountCorrections(t, db, domain.TargetKindInvoice, a.ID))

	history, err := repository.NewCorrectionRepository(db).ListByTarget(ctx, domain.TargetKindInvoice, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "status", history[0].Field)
	assert.Equal(t, "paid", history[0].OldValue)
	assert.Equal(t, "pending", history[0].NewValue)
	assert.Equal(t, "ops@station", history[0].Actor)

	_, err = svc.Revert(ctx, settlement.RevertRequest{InvoiceID: b.ID, Reason: "bank returned transfer", Actor: "ops@station"})
	require.NoError(t, err)

	_, err = repository.NewBatchRepository(db).GetByID(ctx, batchID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assertMoney(t, "1000.00", testutil.GetBalance(t, db).AvailableFunds)

	// A reverted invoice can be paid again.
	_, err = svc.Commit(ctx, settlement.CommitRequest{PaymentDate: march1, BankReference: "1002", InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)
}

func TestRevert_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	pending := testutil.SeedInvoice(t, db, "1", "10.00", domain.CategoryFuel)

	_, err := svc.Revert(ctx, settlement.RevertRequest{InvoiceID: pending.ID, Reason: "oops"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotPaid)

	_, err = svc.Revert(ctx, settlement.RevertRequest{InvoiceID: uuid.New(), Reason: "oops"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	assert.Equal(t, 0, testutil.CountRows(t, db, "payment_corrections"))
}

func TestSetFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)
	ctx := context.Background()

	available := decimal.RequireFromString("2500.005")
	planned := decimal.RequireFromString("300")

	bal, err := svc.SetFunds(ctx, settlement.FundsUpdate{AvailableFunds: &available, Planned: &planned, Reason: "opening balance", Actor: "owner"})
	require.NoError(t, err)
	assertMoney(t, "2500.01", bal.AvailableFunds)
	assertMoney(t, "2200.01", bal.BalanceAfter)
	assert.Equal(t, 2, testutil.CountCorrections(t, db, domain.TargetKindBalance, settlement.BalanceTargetID()))

	bal, err = svc.SetFunds(ctx, settlement.FundsUpdate{Planned: &planned, Reason: "no-op", Actor: "owner"})
	require.NoError(t, err)
	assertMoney(t, "300.00", bal.Planned)
	assert.Equal(t, 2, testutil.CountCorrections(t, db, domain.TargetKindBalance, settlement.BalanceTargetID()))

	_, err = svc.SetFunds(ctx, settlement.FundsUpdate{Planned: &planned, Reason: " "})
	assert.ErrorIs(t, err, domain.ErrEmptyReason)

	got, err := svc.GetBalance(ctx)
	require.NoError(t, err)
	assertMoney(t, "2500.01", got.AvailableFunds)
}

func TestGetBalance_NoneYet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupSettlementService(t, db, nil)

	bal, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.AvailableFunds.IsZero())
}
