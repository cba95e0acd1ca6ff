package correction_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
	"github.com/josh-kwaku/settlement-ledger/internal/service/correction"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
	"github.com/josh-kwaku/settlement-ledger/internal/testutil"
)

var march1 = testutil.Day(2025, time.March, 1)

type fixture struct {
	db         *sql.DB
	svc        *correction.Service
	settlement *settlement.Service
	batches    *repository.BatchRepository
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return fixture{
		db: db,
		svc: correction.NewService(
			repository.NewBatchRepository(db),
			repository.NewPaidInvoiceRepository(db),
			repository.NewBalanceRepository(db),
			repository.NewCorrectionRepository(db),
			db,
		),
		settlement: settlement.NewService(
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
		),
		batches: repository.NewBatchRepository(db),
	}
}

func (f fixture) commit(t *testing.T, ref string, invoices ...*domain.Invoice) *settlement.CommitResult {
	t.Helper()
	ids := make([]uuid.UUID, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	res, err := f.settlement.Commit(context.Background(), settlement.CommitRequest{
		PaymentDate:   march1,
		BankReference: ref,
		InvoiceIDs:    ids,
	})
	require.NoError(t, err)
	return res
}

func TestAmend_PaidInvoiceAmountRecomputesBatchTotal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "1000.00", "0")
	a := testutil.SeedInvoice(t, f.db, "A", "120.50", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, f.db, "B", "79.50", domain.CategoryFuel)
	res := f.commit(t, "1001", a, b)
	balanceBefore := testutil.GetBalance(t, f.db)

	line := res.NewlyPaid[0]
	out, err := f.svc.Amend(ctx, correction.AmendRequest{
		Kind:     domain.TargetKindPaidInvoice,
		TargetID: line.ID,
		Changes: []correction.FieldChange{
			{Field: correction.FieldAmount, Value: "125.00"},
			{Field: correction.FieldCategory, Value: "fuel"},
		},
		Reason: "supplier issued corrected invoice",
		Actor:  "accountant",
	})
	require.NoError(t, err)
	require.Len(t, out.Corrections, 1)
	assert.Equal(t, "120.50", out.Corrections[0].OldValue)
	assert.Equal(t, "125.00", out.Corrections[0].NewValue)
	assert.Equal(t, "125.00", out.PaidInvoice.Amount.StringFixed(2))

	batch, err := f.batches.GetByID(ctx, res.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "204.50", batch.TotalAmount.StringFixed(2))
	assert.Equal(t, res.Batch.BalanceBefore.StringFixed(2), batch.BalanceBefore.StringFixed(2))
	assert.Equal(t, res.Batch.BalanceAfter.StringFixed(2), batch.BalanceAfter.StringFixed(2))

	assert.Equal(t, balanceBefore, testutil.GetBalance(t, f.db))
	assert.Equal(t, 1, testutil.CountCorrections(t, f.db, domain.TargetKindPaidInvoice, line.ID))
}

func TestAmend_EmptyReasonLeavesEverythingUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := testutil.SeedInvoice(t, f.db, "A", "10.00", domain.CategoryFuel)
	res := f.commit(t, "1001", a)

	for _, reason := range []string{"", "   "} {
		_, err := f.svc.Amend(ctx, correction.AmendRequest{
			Kind:     domain.TargetKindBatch,
			TargetID: res.Batch.ID,
			Changes:  []correction.FieldChange{{Field: correction.FieldBankReference, Value: "2002"}},
			Reason:   reason,
		})
		require.ErrorIs(t, err, domain.ErrEmptyReason)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	batch, err := f.batches.GetByID(ctx, res.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "1001", batch.BankReference)
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "payment_corrections"))
}

func TestAmend_BatchKey(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := testutil.SeedInvoice(t, f.db, "A", "10.00", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, f.db, "B", "20.00", domain.CategoryFuel)
	first := f.commit(t, "1001", a)
	second := f.commit(t, "1002", b)

	out, err := f.svc.Amend(ctx, correction.AmendRequest{
		Kind:     domain.TargetKindBatch,
		TargetID: first.Batch.ID,
		Changes: []correction.FieldChange{
			{Field: correction.FieldPaymentDate, Value: "2025-03-02"},
			{Field: correction.FieldBankReference, Value: "1001"},
		},
		Reason: "bank statement shows the 2nd",
		Actor:  "accountant",
	})
	require.NoError(t, err)
	require.Len(t, out.Corrections, 1)
	assert.Equal(t, correction.FieldPaymentDate, out.Corrections[0].Field)
	assert.Equal(t, "2025-03-01", out.Corrections[0].OldValue)
	assert.Equal(t, "2025-03-02", out.Corrections[0].NewValue)

	batch, err := f.batches.GetByID(ctx, first.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.Day(2025, time.March, 2), batch.PaymentDate)

	_, err = f.svc.Amend(ctx, correction.AmendRequest{
		Kind:     domain.TargetKindBatch,
		TargetID: second.Batch.ID,
		Changes: []correction.FieldChange{
			{Field: correction.FieldPaymentDate, Value: "2025-03-02"},
			{Field: correction.FieldBankReference, Value: "1001"},
		},
		Reason: "merge attempt",
	})
	require.ErrorIs(t, err, domain.ErrBatchKeyExists)
	assert.Equal(t, 0, testutil.CountCorrections(t, f.db, domain.TargetKindBatch, second.Batch.ID))
}

func TestAmend_NoRealChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := testutil.SeedInvoice(t, f.db, "A", "10.00", domain.CategoryFuel)
	res := f.commit(t, "1001", a)

	out, err := f.svc.Amend(ctx, correction.AmendRequest{
		Kind:     domain.TargetKindPaidInvoice,
		TargetID: res.NewlyPaid[0].ID,
		Changes:  []correction.FieldChange{{Field: correction.FieldAmount, Value: "10"}},
		Reason:   "double-checking",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Corrections)
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "payment_corrections"))
}

func TestAmend_DuplicateInvoiceNumberInBatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := testutil.SeedInvoice(t, f.db, "1", "10.00", domain.CategoryFuel)
	b := testutil.SeedInvoice(t, f.db, "2", "20.00", domain.CategoryFuel)
	res := f.commit(t, "1001", a, b)

	_, err := f.svc.Amend(ctx, correction.AmendRequest{
		Kind:     domain.TargetKindPaidInvoice,
		TargetID: res.NewlyPaid[1].ID,
		Changes:  []correction.FieldChange{{Field: correction.FieldInvoiceNumber, Value: "1"}},
		Reason:   "typo",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)
}

func TestAmend_NonPositiveAmountRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "500.00", "0")
	a := testutil.SeedInvoice(t, f.db, "A", "100.00", domain.CategoryFuel)
	res := f.commit(t, "1001", a)

	for _, amount := range []string{"0", "-50"} {
		_, err := f.svc.Amend(ctx, correction.AmendRequest{
			Kind:     domain.TargetKindPaidInvoice,
			TargetID: res.NewlyPaid[0].ID,
			Changes:  []correction.FieldChange{{Field: correction.FieldAmount, Value: amount}},
			Reason:   "credit note",
		})
		require.ErrorIs(t, err, domain.ErrInvalidFieldValue, amount)
	}

	batch, err := f.batches.GetByID(ctx, res.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", batch.TotalAmount.StringFixed(2))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "payment_corrections"))
}

func TestRevert_AfterAmountCorrectionRefundsDebitedAmount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "1000.00", "0")
	a := testutil.SeedInvoice(t, f.db, "A", "100.00", domain.CategoryFuel)
	res := f.commit(t, "1001", a)
	assert.Equal(t, "900.00", testutil.GetBalance(t, f.db).AvailableFunds.StringFixed(2))

	_, err := f.svc.Amend(ctx, correction.AmendRequest{
		Kind:     domain.TargetKindPaidInvoice,
		TargetID: res.NewlyPaid[0].ID,
		Changes:  []correction.FieldChange{{Field: correction.FieldAmount, Value: "80.00"}},
		Reason:   "supplier discount",
		Actor:    "accountant",
	})
	require.NoError(t, err)
	assert.Equal(t, "900.00", testutil.GetBalance(t, f.db).AvailableFunds.StringFixed(2))

	_, err = f.settlement.Revert(ctx, settlement.RevertRequest{InvoiceID: a.ID, Reason: "bank returned transfer", Actor: "accountant"})
	require.NoError(t, err)

	bal := testutil.GetBalance(t, f.db)
	assert.Equal(t, "1000.00", bal.AvailableFunds.StringFixed(2))
	assert.Equal(t, "1000.00", bal.BalanceAfter.StringFixed(2))
	assert.Equal(t, domain.InvoiceStatusPending, testutil.GetInvoiceStatus(t, f.db, a.ID))
}

func TestAmend_UnknownTarget(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Amend(context.Background(), correction.AmendRequest{
		Kind:     domain.TargetKindBatch,
		TargetID: uuid.New(),
		Changes:  []correction.FieldChange{{Field: correction.FieldBankReference, Value: "X"}},
		Reason:   "fix",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Amend(context.Background(), correction.AmendRequest{
		Kind:     domain.TargetKindBalance,
		TargetID: uuid.New(),
		Reason:   "fix",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTargetKind)
}

func TestHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := testutil.SeedInvoice(t, f.db, "A", "10.00", domain.CategoryFuel)
	res := f.commit(t, "1001", a)
	lineID := res.NewlyPaid[0].ID

	for _, notes := range []string{"first", "second"} {
		_, err := f.svc.Amend(ctx, correction.AmendRequest{
			Kind:     domain.TargetKindPaidInvoice,
			TargetID: lineID,
			Changes:  []correction.FieldChange{{Field: correction.FieldNotes, Value: notes}},
			Reason:   "annotate",
			Actor:    "ops",
		})
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, domain.TargetKindPaidInvoice, lineID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "", history[0].OldValue)
	assert.Equal(t, "first", history[0].NewValue)
	assert.Equal(t, "first", history[1].OldValue)
	assert.Equal(t, "second", history[1].NewValue)

	_, err = f.svc.History(ctx, domain.TargetKind("vendor"), lineID)
	assert.ErrorIs(t, err, domain.ErrInvalidTargetKind)
}
