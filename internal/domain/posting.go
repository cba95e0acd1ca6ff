package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PostingStatus string

const (
	PostingStatusPending    PostingStatus = "pending"
	PostingStatusDispatched PostingStatus = "dispatched"
	PostingStatusFailed     PostingStatus = "failed"
)

// Allocation is one bookkeeping bucket line of an expense entry.
type Allocation struct {
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
}

// Posting is an outbox row for a bookkeeping entry whose first post attempt failed.
type Posting struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	PaymentDate time.Time
	Reference   string
	Description string
	Allocations []Allocation
	Status      PostingStatus
	Attempts    int
	LastError   *string
	LastAttempt *time.Time
	CreatedAt   time.Time
}
