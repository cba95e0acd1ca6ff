// Package invoice admits vendor bills into the ledger as pending invoices.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

type invoiceRepo interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	ListPending(ctx context.Context) ([]domain.Invoice, error)
}

type Service struct {
	invoices invoiceRepo
}

func NewService(invoices invoiceRepo) *Service {
	return &Service{invoices: invoices}
}

type ImportRequest struct {
	InvoiceNumber string
	Amount        string
	Category      string
	InvoiceDate   time.Time
	DueDate       time.Time
	Notes         string
}

func (r ImportRequest) toInvoice(now time.Time) (*domain.Invoice, error) {
	number := strings.TrimSpace(r.InvoiceNumber)
	if number == "" {
		return nil, fmt.Errorf("invoice_number: %w", domain.ErrInvalidFieldValue)
	}

	amount, err := money.Parse(strings.TrimSpace(r.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("amount: %w", domain.ErrInvalidFieldValue)
	}

	category, err := domain.ParseCategory(r.Category)
	if err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}

	if r.InvoiceDate.IsZero() || r.DueDate.IsZero() {
		return nil, fmt.Errorf("invoice_date and due_date are required: %w", domain.ErrInvalidFieldValue)
	}

	return &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Amount:        amount,
		Category:      category,
		InvoiceDate:   domain.DateOnly(r.InvoiceDate),
		DueDate:       domain.DateOnly(r.DueDate),
		Notes:         r.Notes,
		Status:        domain.InvoiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Import stores a new pending invoice. Invoice numbers need not be unique
// across invoices; uniqueness is only enforced within a payment batch.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*domain.Invoice, error) {
	inv, err := req.toInvoice(time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("Import: %w", err)
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("Import: %w", err)
	}

	logging.FromContext(ctx).Info("invoice imported",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"amount", money.String(inv.Amount),
	)
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return inv, nil
}

func (s *Service) ListPending(ctx context.Context) ([]domain.Invoice, error) {
	invoices, err := s.invoices.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return invoices, nil
}
