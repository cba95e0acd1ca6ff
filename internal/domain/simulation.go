package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentSimulation is a stored preview. It is deleted, never updated, once any of
// its invoices is committed.
type PaymentSimulation struct {
	ID                  uuid.UUID
	SimulationDate      time.Time
	InvoiceIDs          []uuid.UUID
	TotalAmount         decimal.Decimal
	BalanceBefore       decimal.Decimal
	BalanceAfter        decimal.Decimal
	TransferDescription string
	CreatedAt           time.Time
}
