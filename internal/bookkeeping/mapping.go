package bookkeeping

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/report"
)

type Bucket string

const (
	BucketFuelPurchases Bucket = "fuel_purchases"
	BucketGasPurchases  Bucket = "gas_purchases"
	BucketLubricants    Bucket = "lubricants"
	BucketPremises      Bucket = "premises"
	BucketMaintenance   Bucket = "maintenance"
	BucketGeneral       Bucket = "general_expenses"
)

// categoryBuckets must list every domain.Category; mapping_test enforces it.
var categoryBuckets = map[domain.Category]Bucket{
	domain.CategoryFuel:        BucketFuelPurchases,
	domain.CategoryLPG:         BucketGasPurchases,
	domain.CategoryLubricants:  BucketLubricants,
	domain.CategoryRent:        BucketPremises,
	domain.CategoryUtilities:   BucketPremises,
	domain.CategoryMaintenance: BucketMaintenance,
	domain.CategoryOther:       BucketGeneral,
}

// BucketFor returns the cashbook bucket of c. A value outside the known
// categories, which can only come from bad stored data, lands in BucketGeneral.
func BucketFor(c domain.Category) Bucket {
	if b, ok := categoryBuckets[c]; ok {
		return b
	}
	return BucketGeneral
}

// BuildEntry groups lines by bucket in first-seen order.
func BuildEntry(date time.Time, reference string, lines []domain.PaidInvoice) Entry {
	var order []Bucket
	totals := make(map[Bucket]decimal.Decimal)
	numbers := make([]string, 0, len(lines))

	for _, l := range lines {
		b := BucketFor(l.Category)
		if _, seen := totals[b]; !seen {
			order = append(order, b)
		}
		totals[b] = money.Add(totals[b], l.Amount)
		numbers = append(numbers, l.InvoiceNumber)
	}

	allocations := make([]domain.Allocation, 0, len(order))
	for _, b := range order {
		allocations = append(allocations, domain.Allocation{Bucket: string(b), Amount: totals[b]})
	}

	return Entry{
		Date:        domain.DateOnly(date),
		Reference:   reference,
		Description: report.TransferDescription(numbers),
		Allocations: allocations,
	}
}

// EntryFromPosting rebuilds the entry stored in an outbox row.
func EntryFromPosting(p domain.Posting) Entry {
	return Entry{
		Date:        p.PaymentDate,
		Reference:   p.Reference,
		Description: p.Description,
		Allocations: p.Allocations,
	}
}
