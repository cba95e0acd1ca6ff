// Package bookkeeping posts committed payments to the external cashbook as
// expense entries and retries the ones that could not be delivered.
package bookkeeping

//go:generate mockgen -destination=mocks/mock_poster.go -package=mocks -source=poster.go Poster

import (
	"context"
	"time"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

// Entry is one expense entry for the cashbook.
type Entry struct {
	Date        time.Time
	Reference   string
	Description string
	Allocations []domain.Allocation
}

type Poster interface {
	PostExpense(ctx context.Context, entry Entry) error
}
