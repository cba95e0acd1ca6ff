package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// Invoice is a vendor bill as imported. The ledger only flips Status and
// PaidInvoiceID; every other field belongs to the import process.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	Amount        decimal.Decimal
	Category      Category
	InvoiceDate   time.Time
	DueDate       time.Time
	Notes         string
	Status        InvoiceStatus
	PaidInvoiceID *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}
