package domain

import (
	"time"

	"github.com/google/uuid"
)

type TargetKind string

const (
	TargetKindBatch       TargetKind = "batch"
	TargetKindPaidInvoice TargetKind = "paid_invoice"
	TargetKindInvoice     TargetKind = "invoice"
	TargetKindBalance     TargetKind = "balance"
)

func (k TargetKind) IsValid() bool {
	switch k {
	case TargetKindBatch, TargetKindPaidInvoice, TargetKindInvoice, TargetKindBalance:
		return true
	default:
		return false
	}
}

// PaymentCorrection is an append-only audit row; it is never updated or deleted.
type PaymentCorrection struct {
	ID         uuid.UUID
	TargetKind TargetKind
	TargetID   uuid.UUID
	Field      string
	OldValue   string
	NewValue   string
	Reason     string
	Actor      string
	CreatedAt  time.Time
}
