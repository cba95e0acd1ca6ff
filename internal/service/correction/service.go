// Package correction amends committed payment records and keeps the
// append-only log of every change.
package correction

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
)

type batchRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.PaymentBatch, error)
	UpdateKey(ctx context.Context, tx *sql.Tx, id uuid.UUID, paymentDate time.Time, bankReference string) error
	UpdateTotal(ctx context.Context, tx *sql.Tx, id uuid.UUID, total decimal.Decimal) error
}

type paidInvoiceRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.PaidInvoice, error)
	ListByBatch(ctx context.Context, q repository.Querier, batchID uuid.UUID) ([]domain.PaidInvoice, error)
	Update(ctx context.Context, tx *sql.Tx, p *domain.PaidInvoice) error
}

type balanceLocker interface {
	GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx) (*domain.Balance, error)
}

type correctionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.PaymentCorrection) error
	ListByTarget(ctx context.Context, kind domain.TargetKind, targetID uuid.UUID) ([]domain.PaymentCorrection, error)
}

type Service struct {
	batches     batchRepo
	lines       paidInvoiceRepo
	balances    balanceLocker
	corrections correctionRepo
	db          *sql.DB
}

func NewService(
	batches batchRepo,
	lines paidInvoiceRepo,
	balances balanceLocker,
	corrections correctionRepo,
	db *sql.DB,
) *Service {
	return &Service{
		batches:     batches,
		lines:       lines,
		balances:    balances,
		corrections: corrections,
		db:          db,
	}
}

// History lists the corrections recorded against a target, oldest first.
func (s *Service) History(ctx context.Context, kind domain.TargetKind, targetID uuid.UUID) ([]domain.PaymentCorrection, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("History: %q: %w", kind, domain.ErrInvalidTargetKind)
	}
	corrections, err := s.corrections.ListByTarget(ctx, kind, targetID)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return corrections, nil
}
