package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const paidInvoiceColumns = `id, batch_id, invoice_id, invoice_number, amount, debited_amount,
	category, invoice_date, due_date, notes, paid_at`

// PaidInvoiceNumberConstraint enforces one invoice number per batch.
const PaidInvoiceNumberConstraint = "uq_paid_invoices_batch_number"

type PaidInvoiceRepository struct {
	db *sql.DB
}

func NewPaidInvoiceRepository(db *sql.DB) *PaidInvoiceRepository {
	return &PaidInvoiceRepository{db: db}
}

func (r *PaidInvoiceRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.PaidInvoice) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO paid_invoices (
			id, batch_id, invoice_id, invoice_number, amount, debited_amount,
			category, invoice_date, due_date, notes, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.BatchID, p.InvoiceID, p.InvoiceNumber, p.Amount, p.DebitedAmount,
		p.Category, dateParam(p.InvoiceDate), dateParam(p.DueDate), p.Notes, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ListByBatch reads through q so callers inside a transaction see their own writes.
func (r *PaidInvoiceRepository) ListByBatch(ctx context.Context, q Querier, batchID uuid.UUID) ([]domain.PaidInvoice, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+paidInvoiceColumns+` FROM paid_invoices
		WHERE batch_id = $1 ORDER BY paid_at, invoice_number`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByBatch: %w", err)
	}
	defer rows.Close()

	lines, err := collectPaidInvoices(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByBatch: %w", err)
	}
	return lines, nil
}

// ListByBatches groups the lines of every batch in batchIDs by batch id.
func (r *PaidInvoiceRepository) ListByBatches(ctx context.Context, q Querier, batchIDs []uuid.UUID) (map[uuid.UUID][]domain.PaidInvoice, error) {
	result := make(map[uuid.UUID][]domain.PaidInvoice, len(batchIDs))
	if len(batchIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+paidInvoiceColumns+` FROM paid_invoices
		WHERE batch_id = ANY($1::uuid[]) ORDER BY batch_id, invoice_number`, uuidArray(batchIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("ListByBatches: %w", err)
	}
	defer rows.Close()

	lines, err := collectPaidInvoices(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByBatches: %w", err)
	}
	for _, l := range lines {
		result[l.BatchID] = append(result[l.BatchID], l)
	}
	return result, nil
}

func (r *PaidInvoiceRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.PaidInvoice, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paidInvoiceColumns+` FROM paid_invoices WHERE id = $1 FOR UPDATE`, id,
	)
	p, err := scanPaidInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

func (r *PaidInvoiceRepository) GetByInvoiceIDForUpdate(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) (*domain.PaidInvoice, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paidInvoiceColumns+` FROM paid_invoices WHERE invoice_id = $1 FOR UPDATE`, invoiceID,
	)
	p, err := scanPaidInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByInvoiceIDForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByInvoiceIDForUpdate: %w", err)
	}
	return p, nil
}

// Update rewrites the correctable fields of a line.
func (r *PaidInvoiceRepository) Update(ctx context.Context, tx *sql.Tx, p *domain.PaidInvoice) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE paid_invoices
		SET invoice_number = $1, amount = $2, category = $3,
			invoice_date = $4, due_date = $5, notes = $6
		WHERE id = $7`,
		p.InvoiceNumber, p.Amount, p.Category,
		dateParam(p.InvoiceDate), dateParam(p.DueDate), p.Notes, p.ID,
	)
	if err != nil {
		if IsConstraint(err, PaidInvoiceNumberConstraint) {
			return fmt.Errorf("Update: invoice number %q: %w", p.InvoiceNumber, domain.ErrInvalidFieldValue)
		}
		return fmt.Errorf("Update: %w", err)
	}
	return expectOneRow(res, "Update")
}

func (r *PaidInvoiceRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM paid_invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res, "Delete")
}

func collectPaidInvoices(rows *sql.Rows) ([]domain.PaidInvoice, error) {
	var lines []domain.PaidInvoice
	for rows.Next() {
		p, err := scanPaidInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		lines = append(lines, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return lines, nil
}

func scanPaidInvoice(s scanner) (*domain.PaidInvoice, error) {
	var p domain.PaidInvoice
	err := s.Scan(
		&p.ID, &p.BatchID, &p.InvoiceID, &p.InvoiceNumber, &p.Amount, &p.DebitedAmount,
		&p.Category, &p.InvoiceDate, &p.DueDate, &p.Notes, &p.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	p.InvoiceDate = domain.DateOnly(p.InvoiceDate)
	p.DueDate = domain.DateOnly(p.DueDate)
	return &p, nil
}
