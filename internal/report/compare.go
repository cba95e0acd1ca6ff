package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// CompareNumericAware orders a and b numerically when both parse fully as numbers,
// and as plain strings otherwise. Numerically equal values such as "09" and "9"
// fall back to string order so the result stays total.
func CompareNumericAware(a, b string) int {
	da, errA := decimal.NewFromString(strings.TrimSpace(a))
	db, errB := decimal.NewFromString(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		if c := da.Cmp(db); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// SortNumericAware returns a sorted copy of values.
func SortNumericAware(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	slices.SortFunc(out, CompareNumericAware)
	return out
}

// TransferDescription is the bank transfer text for a set of invoice numbers.
func TransferDescription(invoiceNumbers []string) string {
	return "Payment of invoices: " + strings.Join(SortNumericAware(invoiceNumbers), ", ")
}
