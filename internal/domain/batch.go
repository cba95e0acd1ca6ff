package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentBatch is one committed payment event, unique per (PaymentDate, BankReference).
// BalanceBefore and BalanceAfter are a snapshot taken the last time the batch was
// extended and are never re-derived.
type PaymentBatch struct {
	ID            uuid.UUID
	PaymentDate   time.Time
	BankReference string
	TotalAmount   decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaidInvoice is the immutable copy of an Invoice taken when it was paid. Only the
// correction log may change it. DebitedAmount is what the commit took from
// available funds and is never corrected.
type PaidInvoice struct {
	ID            uuid.UUID
	BatchID       uuid.UUID
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Amount        decimal.Decimal
	DebitedAmount decimal.Decimal
	Category      Category
	InvoiceDate   time.Time
	DueDate       time.Time
	Notes         string
	PaidAt        time.Time
}

// SnapshotInvoice copies the economically relevant fields of inv into a new line
// owned by batchID.
func SnapshotInvoice(inv *Invoice, batchID uuid.UUID, paidAt time.Time) *PaidInvoice {
	return &PaidInvoice{
		ID:            uuid.New(),
		BatchID:       batchID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        inv.Amount,
		DebitedAmount: inv.Amount,
		Category:      inv.Category,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		PaidAt:        paidAt,
	}
}

// DateOnly truncates t to a UTC calendar date, keeping the wall-clock year, month and day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
