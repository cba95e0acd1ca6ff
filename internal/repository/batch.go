package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const batchColumns = `id, payment_date, bank_reference, total_amount,
	balance_before, balance_after, created_at, updated_at`

// BatchKeyConstraint is the unique constraint on (payment_date, bank_reference).
const BatchKeyConstraint = "uq_payment_batches_key"

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// InsertIfAbsent creates b unless a batch with the same key exists. It reports
// whether the row was inserted; a concurrent insert of the same key yields false.
func (r *BatchRepository) InsertIfAbsent(ctx context.Context, tx *sql.Tx, b *domain.PaymentBatch) (bool, error) {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx,
		`INSERT INTO payment_batches (
			id, payment_date, bank_reference, total_amount,
			balance_before, balance_after, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT `+BatchKeyConstraint+` DO NOTHING
		RETURNING id`,
		b.ID, dateParam(b.PaymentDate), b.BankReference, b.TotalAmount,
		b.BalanceBefore, b.BalanceAfter, b.CreatedAt, b.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("InsertIfAbsent: %w", err)
	}
	return true, nil
}

func (r *BatchRepository) GetByKeyForUpdate(ctx context.Context, tx *sql.Tx, paymentDate time.Time, bankReference string) (*domain.PaymentBatch, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM payment_batches
		WHERE payment_date = $1 AND bank_reference = $2 FOR UPDATE`,
		dateParam(paymentDate), bankReference,
	)
	b, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByKeyForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByKeyForUpdate: %w", err)
	}
	return b, nil
}

func (r *BatchRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.PaymentBatch, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM payment_batches WHERE id = $1 FOR UPDATE`, id,
	)
	b, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return b, nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentBatch, error) {
	return r.Get(ctx, r.db, id)
}

// Get reads one batch through q without locking it.
func (r *BatchRepository) Get(ctx context.Context, q Querier, id uuid.UUID) (*domain.PaymentBatch, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM payment_batches WHERE id = $1`, id,
	)
	b, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return b, nil
}

// ListByMonth returns every batch whose payment date falls in the calendar month.
func (r *BatchRepository) ListByMonth(ctx context.Context, q Querier, year int, month time.Month) ([]domain.PaymentBatch, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := q.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM payment_batches
		WHERE payment_date >= $1 AND payment_date < $2
		ORDER BY payment_date, bank_reference`,
		dateParam(start), dateParam(end),
	)
	if err != nil {
		return nil, fmt.Errorf("ListByMonth: %w", err)
	}
	defer rows.Close()

	var batches []domain.PaymentBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByMonth: scan: %w", err)
		}
		batches = append(batches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByMonth: rows: %w", err)
	}
	return batches, nil
}

// UpdateTotals stores the recomputed total and the balance snapshot.
func (r *BatchRepository) UpdateTotals(ctx context.Context, tx *sql.Tx, id uuid.UUID, total, before, after decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_batches
		SET total_amount = $1, balance_before = $2, balance_after = $3, updated_at = now()
		WHERE id = $4`,
		total, before, after, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateTotals: %w", err)
	}
	return expectOneRow(res, "UpdateTotals")
}

// UpdateTotal changes only the total, leaving the balance snapshot untouched.
func (r *BatchRepository) UpdateTotal(ctx context.Context, tx *sql.Tx, id uuid.UUID, total decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_batches SET total_amount = $1, updated_at = now() WHERE id = $2`,
		total, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateTotal: %w", err)
	}
	return expectOneRow(res, "UpdateTotal")
}

// UpdateKey changes the payment date and bank reference. A collision with
// another batch is reported as domain.ErrBatchKeyExists.
func (r *BatchRepository) UpdateKey(ctx context.Context, tx *sql.Tx, id uuid.UUID, paymentDate time.Time, bankReference string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_batches SET payment_date = $1, bank_reference = $2, updated_at = now()
		WHERE id = $3`,
		dateParam(paymentDate), bankReference, id,
	)
	if err != nil {
		if IsConstraint(err, BatchKeyConstraint) {
			return fmt.Errorf("UpdateKey: %w", domain.ErrBatchKeyExists)
		}
		return fmt.Errorf("UpdateKey: %w", err)
	}
	return expectOneRow(res, "UpdateKey")
}

func (r *BatchRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM payment_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res, "Delete")
}

func expectOneRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func scanBatch(s scanner) (*domain.PaymentBatch, error) {
	var b domain.PaymentBatch
	err := s.Scan(
		&b.ID, &b.PaymentDate, &b.BankReference, &b.TotalAmount,
		&b.BalanceBefore, &b.BalanceAfter, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.PaymentDate = domain.DateOnly(b.PaymentDate)
	return &b, nil
}
