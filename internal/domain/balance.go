package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceID is the primary key of the singleton balance row.
const BalanceID = 1

type Balance struct {
	AvailableFunds decimal.Decimal
	Planned        decimal.Decimal
	BalanceAfter   decimal.Decimal
	Version        int64
	UpdatedAt      time.Time
}
