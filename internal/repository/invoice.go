package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const invoiceColumns = `id, invoice_number, amount, category, invoice_date, due_date,
	notes, status, paid_invoice_id, created_at, updated_at`

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (
			id, invoice_number, amount, category, invoice_date, due_date,
			notes, status, paid_invoice_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, inv.InvoiceNumber, inv.Amount, inv.Category,
		dateParam(inv.InvoiceDate), dateParam(inv.DueDate),
		inv.Notes, inv.Status, inv.PaidInvoiceID, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) ListPending(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		WHERE status = $1 ORDER BY due_date, invoice_number`, domain.InvoiceStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	defer rows.Close()

	invoices, err := collectInvoices(rows)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return invoices, nil
}

// GetMany returns the invoices found for ids, keyed by id. Missing ids are absent.
func (r *InvoiceRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Invoice, error) {
	return getManyInvoices(ctx, r.db, ids, "")
}

// GetManyForUpdate locks the invoice rows for ids in id order.
func (r *InvoiceRepository) GetManyForUpdate(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) (map[uuid.UUID]*domain.Invoice, error) {
	return getManyInvoices(ctx, tx, ids, " FOR UPDATE")
}

func getManyInvoices(ctx context.Context, q Querier, ids []uuid.UUID, lock string) (map[uuid.UUID]*domain.Invoice, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		WHERE id = ANY($1::uuid[]) ORDER BY id`+lock, uuidArray(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("GetMany: %w", err)
	}
	defer rows.Close()

	invoices, err := collectInvoices(rows)
	if err != nil {
		return nil, fmt.Errorf("GetMany: %w", err)
	}

	result := make(map[uuid.UUID]*domain.Invoice, len(invoices))
	for i := range invoices {
		result[invoices[i].ID] = &invoices[i]
	}
	return result, nil
}

func (r *InvoiceRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id,
	)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) MarkPaid(ctx context.Context, tx *sql.Tx, id, paidInvoiceID uuid.UUID) error {
	return setInvoiceStatus(ctx, tx, "MarkPaid", id, domain.InvoiceStatusPaid, &paidInvoiceID)
}

func (r *InvoiceRepository) MarkPending(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	return setInvoiceStatus(ctx, tx, "MarkPending", id, domain.InvoiceStatusPending, nil)
}

func setInvoiceStatus(ctx context.Context, tx *sql.Tx, op string, id uuid.UUID, status domain.InvoiceStatus, paidInvoiceID *uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET status = $1, paid_invoice_id = $2, updated_at = now() WHERE id = $3`,
		status, paidInvoiceID, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func collectInvoices(rows *sql.Rows) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return invoices, nil
}

func scanInvoice(s scanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var paidInvoiceID uuid.NullUUID
	err := s.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.Amount, &inv.Category,
		&inv.InvoiceDate, &inv.DueDate, &inv.Notes, &inv.Status,
		&paidInvoiceID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidInvoiceID.Valid {
		inv.PaidInvoiceID = &paidInvoiceID.UUID
	}
	inv.InvoiceDate = domain.DateOnly(inv.InvoiceDate)
	inv.DueDate = domain.DateOnly(inv.DueDate)
	return &inv, nil
}
