// Package simulation stores previews of a payment without committing it.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/report"
)

type invoiceReader interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Invoice, error)
}

type balanceReader interface {
	Get(ctx context.Context) (*domain.Balance, error)
}

type simulationRepo interface {
	Create(ctx context.Context, s *domain.PaymentSimulation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentSimulation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	invoices    invoiceReader
	balances    balanceReader
	simulations simulationRepo
}

func NewService(invoices invoiceReader, balances balanceReader, simulations simulationRepo) *Service {
	return &Service{
		invoices:    invoices,
		balances:    balances,
		simulations: simulations,
	}
}

type SimulateRequest struct {
	Date       time.Time
	InvoiceIDs []uuid.UUID
}

// Simulate previews paying the invoices on Date and stores the preview. It
// reads the balance but never writes ledger state. The store re-checks that
// every invoice is still pending under lock.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (*domain.PaymentSimulation, error) {
	if req.Date.IsZero() {
		return nil, fmt.Errorf("Simulate: %w", domain.ErrMissingPaymentDate)
	}
	if len(req.InvoiceIDs) == 0 {
		return nil, fmt.Errorf("Simulate: %w", domain.ErrNoInvoices)
	}
	ids := uniqueIDs(req.InvoiceIDs)

	found, err := s.invoices.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("Simulate: %w", err)
	}

	amounts := make([]decimal.Decimal, 0, len(ids))
	numbers := make([]string, 0, len(ids))
	for _, id := range ids {
		inv, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("Simulate: %s: %w", id, domain.ErrInvoiceNotFound)
		}
		if !inv.IsPending() {
			return nil, fmt.Errorf("Simulate: %s (%s): %w", inv.InvoiceNumber, id, domain.ErrInvoiceNotPending)
		}
		amounts = append(amounts, inv.Amount)
		numbers = append(numbers, inv.InvoiceNumber)
	}

	available := decimal.Zero
	balance, err := s.balances.Get(ctx)
	switch {
	case err == nil:
		available = balance.AvailableFunds
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("Simulate: %w", err)
	}

	total := money.Sum(amounts...)
	sim := &domain.PaymentSimulation{
		ID:                  uuid.New(),
		SimulationDate:      domain.DateOnly(req.Date),
		InvoiceIDs:          ids,
		TotalAmount:         total,
		BalanceBefore:       money.Round(available),
		BalanceAfter:        money.Sub(available, total),
		TransferDescription: report.TransferDescription(numbers),
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.simulations.Create(ctx, sim); err != nil {
		return nil, fmt.Errorf("Simulate: %w", err)
	}

	logging.FromContext(ctx).Info("payment simulated",
		"simulation_id", sim.ID,
		"invoices", len(ids),
		"total", money.String(total),
		"balance_after", money.String(sim.BalanceAfter),
	)
	return sim, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.PaymentSimulation, error) {
	sim, err := s.simulations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return sim, nil
}

// Discard deletes a stored preview on request.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.simulations.Delete(ctx, id); err != nil {
		return fmt.Errorf("Discard: %w", err)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
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
