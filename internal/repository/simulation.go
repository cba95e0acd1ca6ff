package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const simulationColumns = `id, simulation_date, total_amount, balance_before,
	balance_after, transfer_description, created_at`

type SimulationRepository struct {
	db *sql.DB
}

func NewSimulationRepository(db *sql.DB) *SimulationRepository {
	return &SimulationRepository{db: db}
}

// Create stores the preview only while every referenced invoice is still
// pending. The invoice rows stay share-locked until the insert commits, so a
// concurrent commit either finishes first and fails the check, or waits and
// then removes this preview.
func (r *SimulationRepository) Create(ctx context.Context, s *domain.PaymentSimulation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Create: begin: %w", err)
	}
	defer tx.Rollback()

	if err := lockPendingForShare(ctx, tx, s.InvoiceIDs); err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payment_simulations (
			id, simulation_date, total_amount, balance_before,
			balance_after, transfer_description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, dateParam(s.SimulationDate), s.TotalAmount, s.BalanceBefore,
		s.BalanceAfter, s.TransferDescription, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	for i, invoiceID := range s.InvoiceIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO payment_simulation_invoices (simulation_id, position, invoice_id)
			VALUES ($1, $2, $3)`,
			s.ID, i, invoiceID,
		)
		if err != nil {
			return fmt.Errorf("Create: invoice %s: %w", invoiceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Create: commit: %w", err)
	}
	return nil
}

func lockPendingForShare(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, invoice_number, status FROM invoices
		WHERE id = ANY($1::uuid[]) ORDER BY id FOR SHARE`, uuidArray(ids),
	)
	if err != nil {
		return fmt.Errorf("lock invoices: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]struct{}, len(ids))
	for rows.Next() {
		var (
			id     uuid.UUID
			number string
			status domain.InvoiceStatus
		)
		if err := rows.Scan(&id, &number, &status); err != nil {
			return fmt.Errorf("lock invoices: scan: %w", err)
		}
		if status != domain.InvoiceStatusPending {
			return fmt.Errorf("%s (%s): %w", number, id, domain.ErrInvoiceNotPending)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock invoices: rows: %w", err)
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%s: %w", id, domain.ErrInvoiceNotFound)
		}
	}
	return nil
}

func (r *SimulationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentSimulation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+simulationColumns+` FROM payment_simulations WHERE id = $1`, id,
	)
	var s domain.PaymentSimulation
	err := row.Scan(
		&s.ID, &s.SimulationDate, &s.TotalAmount, &s.BalanceBefore,
		&s.BalanceAfter, &s.TransferDescription, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	s.SimulationDate = domain.DateOnly(s.SimulationDate)

	rows, err := r.db.QueryContext(ctx,
		`SELECT invoice_id FROM payment_simulation_invoices
		WHERE simulation_id = $1 ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByID: invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID uuid.UUID
		if err := rows.Scan(&invoiceID); err != nil {
			return nil, fmt.Errorf("GetByID: scan invoice: %w", err)
		}
		s.InvoiceIDs = append(s.InvoiceIDs, invoiceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByID: rows: %w", err)
	}
	return &s, nil
}

func (r *SimulationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_simulations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return expectOneRow(res, "Delete")
}

// DeleteReferencing removes every simulation that lists any of invoiceIDs and
// returns how many were removed.
func (r *SimulationRepository) DeleteReferencing(ctx context.Context, tx *sql.Tx, invoiceIDs []uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM payment_simulations WHERE id IN (
			SELECT simulation_id FROM payment_simulation_invoices
			WHERE invoice_id = ANY($1::uuid[])
		)`, uuidArray(invoiceIDs),
	)
	if err != nil {
		return 0, fmt.Errorf("DeleteReferencing: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteReferencing: rows affected: %w", err)
	}
	return n, nil
}
