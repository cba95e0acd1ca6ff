package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

const postingColumns = `id, batch_id, payment_date, reference, description, allocations,
	status, attempts, last_error, last_attempt, created_at`

// PostingRepository is the outbox of bookkeeping entries awaiting delivery.
type PostingRepository struct {
	db *sql.DB
}

func NewPostingRepository(db *sql.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

func (r *PostingRepository) Create(ctx context.Context, p *domain.Posting) error {
	allocations, err := json.Marshal(p.Allocations)
	if err != nil {
		return fmt.Errorf("Create: marshal allocations: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bookkeeping_postings (
			id, batch_id, payment_date, reference, description, allocations,
			status, attempts, last_error, last_attempt, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.BatchID, dateParam(p.PaymentDate), p.Reference, p.Description, string(allocations),
		p.Status, p.Attempts, p.LastError, p.LastAttempt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetPending claims up to limit pending rows inside tx. SKIP LOCKED keeps two
// retriers from picking up the same posting.
func (r *PostingRepository) GetPending(ctx context.Context, tx *sql.Tx, limit int) ([]domain.Posting, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM bookkeeping_postings
		WHERE status = $1 ORDER BY created_at LIMIT $2 FOR UPDATE SKIP LOCKED`,
		domain.PostingStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var postings []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return postings, nil
}

// RecordAttempt counts one delivery attempt and moves the row to status.
func (r *PostingRepository) RecordAttempt(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PostingStatus, lastErr *string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookkeeping_postings
		SET status = $1, attempts = attempts + 1, last_error = $2, last_attempt = $3
		WHERE id = $4`,
		status, lastErr, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("RecordAttempt: %w", err)
	}
	return expectOneRow(res, "RecordAttempt")
}

func (r *PostingRepository) MarkDispatched(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	return r.RecordAttempt(ctx, tx, id, domain.PostingStatusDispatched, nil)
}

func (r *PostingRepository) MarkFailed(ctx context.Context, tx *sql.Tx, id uuid.UUID, reason string) error {
	return r.RecordAttempt(ctx, tx, id, domain.PostingStatusFailed, &reason)
}

func scanPosting(s scanner) (*domain.Posting, error) {
	var p domain.Posting
	var allocations []byte
	var lastError sql.NullString
	var lastAttempt sql.NullTime
	err := s.Scan(
		&p.ID, &p.BatchID, &p.PaymentDate, &p.Reference, &p.Description, &allocations,
		&p.Status, &p.Attempts, &lastError, &lastAttempt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(allocations, &p.Allocations); err != nil {
		return nil, fmt.Errorf("unmarshal allocations: %w", err)
	}
	if lastError.Valid {
		p.LastError = &lastError.String
	}
	if lastAttempt.Valid {
		p.LastAttempt = &lastAttempt.Time
	}
	p.PaymentDate = domain.DateOnly(p.PaymentDate)
	return &p, nil
}
