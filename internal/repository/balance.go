package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const balanceColumns = `available_funds, planned, balance_after, version, updated_at`

type BalanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetOrCreateForUpdate locks the singleton balance row, creating it with zero
// funds on first use. Every mutation takes this lock first, which serializes them.
func (r *BalanceRepository) GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx) (*domain.Balance, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO balances (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, domain.BalanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateForUpdate: insert: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE id = $1 FOR UPDATE`, domain.BalanceID,
	)
	b, err := scanBalance(row)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateForUpdate: %w", err)
	}
	return b, nil
}

// Get returns domain.ErrNotFound when no balance has been recorded yet.
func (r *BalanceRepository) Get(ctx context.Context) (*domain.Balance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE id = $1`, domain.BalanceID,
	)
	b, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return b, nil
}

// Update writes b if its Version still matches the stored one and bumps the version.
func (r *BalanceRepository) Update(ctx context.Context, tx *sql.Tx, b *domain.Balance) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE balances
		SET available_funds = $1, planned = $2, balance_after = $3,
			version = version + 1, updated_at = now()
		WHERE id = $4 AND version = $5`,
		b.AvailableFunds, b.Planned, b.BalanceAfter, domain.BalanceID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	b.Version++
	return nil
}

func scanBalance(s scanner) (*domain.Balance, error) {
	var b domain.Balance
	err := s.Scan(&b.AvailableFunds, &b.Planned, &b.BalanceAfter, &b.Version, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
