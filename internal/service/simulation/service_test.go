package simulation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

type fakeInvoices map[uuid.UUID]*domain.Invoice

func (f fakeInvoices) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Invoice, error) {
	out := make(map[uuid.UUID]*domain.Invoice)
	for _, id := range ids {
		if inv, ok := f[id]; ok {
			out[id] = inv
		}
	}
	return out, nil
}

type fakeBalance struct {
	balance *domain.Balance
	err     error
}

func (f fakeBalance) Get(context.Context) (*domain.Balance, error) {
	return f.balance, f.err
}

type fakeSimulations struct {
	stored    map[uuid.UUID]*domain.PaymentSimulation
	createErr error
}

func (f *fakeSimulations) Create(_ context.Context, s *domain.PaymentSimulation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.stored[s.ID] = s
	return nil
}

func (f *fakeSimulations) GetByID(_ context.Context, id uuid.UUID) (*domain.PaymentSimulation, error) {
	s, ok := f.stored[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSimulations) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.stored[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.stored, id)
	return nil
}

func pending(number, amount string) *domain.Invoice {
	return &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Amount:        decimal.RequireFromString(amount),
		Category:      domain.CategoryFuel,
		Status:        domain.InvoiceStatusPending,
	}
}

func newTestService(invoices fakeInvoices, bal fakeBalance) (*Service, *fakeSimulations) {
	sims := &fakeSimulations{stored: make(map[uuid.UUID]*domain.PaymentSimulation)}
	return NewService(invoices, bal, sims), sims
}

func TestSimulate(t *testing.T) {
	a, b, c := pending("10", "0.10"), pending("9", "0.20"), pending("A1", "100.00")
	svc, sims := newTestService(
		fakeInvoices{a.ID: a, b.ID: b, c.ID: c},
		fakeBalance{balance: &domain.Balance{AvailableFunds: decimal.RequireFromString("500")}},
	)

	date := time.Date(2025, time.March, 5, 14, 0, 0, 0, time.UTC)
	sim, err := svc.Simulate(context.Background(), SimulateRequest{Date: date, InvoiceIDs: []uuid.UUID{c.ID, a.ID, b.ID, a.ID}})
	require.NoError(t, err)

	assert.Equal(t, "100.30", sim.TotalAmount.StringFixed(2))
	assert.Equal(t, "500.00", sim.BalanceBefore.StringFixed(2))
	assert.Equal(t, "399.70", sim.BalanceAfter.StringFixed(2))
	assert.Equal(t, "Payment of invoices: 9, 10, A1", sim.TransferDescription)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, sim.InvoiceIDs)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), sim.SimulationDate)
	assert.Contains(t, sims.stored, sim.ID)
}

func TestSimulate_NoBalanceYet(t *testing.T) {
	a := pending("1", "25.00")
	svc, _ := newTestService(fakeInvoices{a.ID: a}, fakeBalance{err: domain.ErrNotFound})

	sim, err := svc.Simulate(context.Background(), SimulateRequest{Date: time.Now(), InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, "-25.00", sim.BalanceAfter.StringFixed(2))
}

func TestSimulate_Rejections(t *testing.T) {
	paid := pending("2", "5.00")
	paid.Status = domain.InvoiceStatusPaid
	ok := pending("3", "5.00")

	tests := []struct {
		name    string
		req     SimulateRequest
		balance fakeBalance
		wantErr error
	}{
		{"missing date", SimulateRequest{InvoiceIDs: []uuid.UUID{ok.ID}}, fakeBalance{}, domain.ErrValidation},
		{"no invoices", SimulateRequest{Date: time.Now()}, fakeBalance{}, domain.ErrNoInvoices},
		{"unknown invoice", SimulateRequest{Date: time.Now(), InvoiceIDs: []uuid.UUID{ok.ID, uuid.New()}}, fakeBalance{}, domain.ErrInvoiceNotFound},
		{"paid invoice", SimulateRequest{Date: time.Now(), InvoiceIDs: []uuid.UUID{paid.ID}}, fakeBalance{}, domain.ErrInvoiceNotPending},
		{"balance read fails", SimulateRequest{Date: time.Now(), InvoiceIDs: []uuid.UUID{ok.ID}}, fakeBalance{err: errors.New("conn reset")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sims := newTestService(fakeInvoices{paid.ID: paid, ok.ID: ok}, tt.balance)
			_, err := svc.Simulate(context.Background(), tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, sims.stored)
		})
	}
}

func TestSimulate_InvoicePaidBeforeStore(t *testing.T) {
	a := pending("1", "25.00")
	svc, sims := newTestService(fakeInvoices{a.ID: a}, fakeBalance{err: domain.ErrNotFound})
	sims.createErr = fmt.Errorf("Create: 1: %w", domain.ErrInvoiceNotPending)

	_, err := svc.Simulate(context.Background(), SimulateRequest{Date: time.Now(), InvoiceIDs: []uuid.UUID{a.ID}})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotPending)
	assert.Empty(t, sims.stored)
}

func TestGetAndDiscard(t *testing.T) {
	a := pending("1", "25.00")
	svc, _ := newTestService(fakeInvoices{a.ID: a}, fakeBalance{err: domain.ErrNotFound})
	ctx := context.Background()

	sim, err := svc.Simulate(ctx, SimulateRequest{Date: time.Now(), InvoiceIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)

	got, err := svc.Get(ctx, sim.ID)
	require.NoError(t, err)
	assert.Equal(t, sim, got)

	require.NoError(t, svc.Discard(ctx, sim.ID))
	_, err = svc.Get(ctx, sim.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Discard(ctx, sim.ID), domain.ErrNotFound)
}
