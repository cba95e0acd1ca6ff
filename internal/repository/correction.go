package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const correctionColumns = `id, target_kind, target_id, field, old_value, new_value,
	reason, actor, created_at`

// CorrectionRepository is append-only: there is no update or delete.
type CorrectionRepository struct {
	db *sql.DB
}

func NewCorrectionRepository(db *sql.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

func (r *CorrectionRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.PaymentCorrection) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payment_corrections (
			id, target_kind, target_id, field, old_value, new_value, reason, actor, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.TargetKind, c.TargetID, c.Field, c.OldValue, c.NewValue,
		c.Reason, c.Actor, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CorrectionRepository) ListByTarget(ctx context.Context, kind domain.TargetKind, targetID uuid.UUID) ([]domain.PaymentCorrection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+correctionColumns+` FROM payment_corrections
		WHERE target_kind = $1 AND target_id = $2 ORDER BY created_at, id`,
		kind, targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByTarget: %w", err)
	}
	defer rows.Close()

	var corrections []domain.PaymentCorrection
	for rows.Next() {
		var c domain.PaymentCorrection
		err := rows.Scan(
			&c.ID, &c.TargetKind, &c.TargetID, &c.Field, &c.OldValue, &c.NewValue,
			&c.Reason, &c.Actor, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ListByTarget: scan: %w", err)
		}
		corrections = append(corrections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByTarget: rows: %w", err)
	}
	return corrections, nil
}
