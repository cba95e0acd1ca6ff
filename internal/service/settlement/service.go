// Package settlement commits pending invoices into payment batches, keeps the
// cash balance in step and reverts single payments.
package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/bookkeeping"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/repository"
)

type invoiceRepo interface {
	GetManyForUpdate(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) (map[uuid.UUID]*domain.Invoice, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, id, paidInvoiceID uuid.UUID) error
	MarkPending(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type batchRepo interface {
	InsertIfAbsent(ctx context.Context, tx *sql.Tx, b *domain.PaymentBatch) (bool, error)
	GetByKeyForUpdate(ctx context.Context, tx *sql.Tx, paymentDate time.Time, bankReference string) (*domain.PaymentBatch, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.PaymentBatch, error)
	UpdateTotals(ctx context.Context, tx *sql.Tx, id uuid.UUID, total, before, after decimal.Decimal) error
	UpdateTotal(ctx context.Context, tx *sql.Tx, id uuid.UUID, total decimal.Decimal) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type paidInvoiceRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.PaidInvoice) error
	ListByBatch(ctx context.Context, q repository.Querier, batchID uuid.UUID) ([]domain.PaidInvoice, error)
	GetByInvoiceIDForUpdate(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) (*domain.PaidInvoice, error)
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type balanceRepo interface {
	GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx) (*domain.Balance, error)
	Get(ctx context.Context) (*domain.Balance, error)
	Update(ctx context.Context, tx *sql.Tx, b *domain.Balance) error
}

type simulationRepo interface {
	DeleteReferencing(ctx context.Context, tx *sql.Tx, invoiceIDs []uuid.UUID) (int64, error)
}

type correctionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.PaymentCorrection) error
}

type postingRepo interface {
	Create(ctx context.Context, p *domain.Posting) error
}

type Service struct {
	invoices      invoiceRepo
	batches       batchRepo
	lines         paidInvoiceRepo
	balances      balanceRepo
	simulations   simulationRepo
	corrections   correctionRepo
	postings      postingRepo
	poster        bookkeeping.Poster
	db            *sql.DB
	keyMaxRetries int
}

// NewService builds the engine. poster may be nil, in which case ledger posts
// requested by Commit are reported as skipped.
func NewService(
	invoices invoiceRepo,
	batches batchRepo,
	lines paidInvoiceRepo,
	balances balanceRepo,
	simulations simulationRepo,
	corrections correctionRepo,
	postings postingRepo,
	poster bookkeeping.Poster,
	db *sql.DB,
	keyMaxRetries int,
) *Service {
	if keyMaxRetries < 1 {
		keyMaxRetries = 1
	}
	return &Service{
		invoices:      invoices,
		batches:       batches,
		lines:         lines,
		balances:      balances,
		simulations:   simulations,
		corrections:   corrections,
		postings:      postings,
		poster:        poster,
		db:            db,
		keyMaxRetries: keyMaxRetries,
	}
}

// GetBalance returns the current balance, or a zero balance if none exists yet.
func (s *Service) GetBalance(ctx context.Context) (*domain.Balance, error) {
	b, err := s.balances.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Balance{}, nil
		}
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return b, nil
}
