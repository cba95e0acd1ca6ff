package correction

import (
	"fmt"
	"strings"
	"time"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

const (
	FieldPaymentDate   = "payment_date"
	FieldBankReference = "bank_reference"
	FieldInvoiceNumber = "invoice_number"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldInvoiceDate   = "invoice_date"
	FieldDueDate       = "due_date"
	FieldNotes         = "notes"
)

// FieldChange asks for Field to become Value, given in its canonical text form.
type FieldChange struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// A fieldSpec normalizes a requested value and reads or writes the canonical
// value on a target.
type fieldSpec[T any] struct {
	parse func(string) (string, error)
	get   func(*T) string
	set   func(*T, string)
}

var batchFields = map[string]fieldSpec[domain.PaymentBatch]{
	FieldPaymentDate: {
		parse: parseDate,
		get:   func(b *domain.PaymentBatch) string { return formatDate(b.PaymentDate) },
		set:   func(b *domain.PaymentBatch, v string) { b.PaymentDate = mustDate(v) },
	},
	FieldBankReference: {
		parse: parseNonBlank,
		get:   func(b *domain.PaymentBatch) string { return b.BankReference },
		set:   func(b *domain.PaymentBatch, v string) { b.BankReference = v },
	},
}

var paidInvoiceFields = map[string]fieldSpec[domain.PaidInvoice]{
	FieldInvoiceNumber: {
		parse: parseNonBlank,
		get:   func(p *domain.PaidInvoice) string { return p.InvoiceNumber },
		set:   func(p *domain.PaidInvoice, v string) { p.InvoiceNumber = v },
	},
	FieldAmount: {
		parse: parseAmount,
		get:   func(p *domain.PaidInvoice) string { return money.String(p.Amount) },
		set: func(p *domain.PaidInvoice, v string) {
			d, _ := money.Parse(v)
			p.Amount = d
		},
	},
	FieldCategory: {
		parse: parseCategory,
		get:   func(p *domain.PaidInvoice) string { return string(p.Category) },
		set:   func(p *domain.PaidInvoice, v string) { p.Category = domain.Category(v) },
	},
	FieldInvoiceDate: {
		parse: parseDate,
		get:   func(p *domain.PaidInvoice) string { return formatDate(p.InvoiceDate) },
		set:   func(p *domain.PaidInvoice, v string) { p.InvoiceDate = mustDate(v) },
	},
	FieldDueDate: {
		parse: parseDate,
		get:   func(p *domain.PaidInvoice) string { return formatDate(p.DueDate) },
		set:   func(p *domain.PaidInvoice, v string) { p.DueDate = mustDate(v) },
	},
	FieldNotes: {
		parse: func(v string) (string, error) { return v, nil },
		get:   func(p *domain.PaidInvoice) string { return p.Notes },
		set:   func(p *domain.PaidInvoice, v string) { p.Notes = v },
	},
}

type parsedChange struct {
	field string
	value string
}

// parseChanges validates every change against the field table before anything
// is read from storage. A later change to the same field wins.
func parseChanges[T any](fields map[string]fieldSpec[T], changes []FieldChange) ([]parsedChange, error) {
	out := make([]parsedChange, 0, len(changes))
	index := make(map[string]int, len(changes))
	for _, c := range changes {
		spec, ok := fields[c.Field]
		if !ok {
			return nil, fmt.Errorf("%q: %w", c.Field, domain.ErrUnknownField)
		}
		v, err := spec.parse(c.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Field, err)
		}
		if i, seen := index[c.Field]; seen {
			out[i].value = v
			continue
		}
		index[c.Field] = len(out)
		out = append(out, parsedChange{field: c.Field, value: v})
	}
	return out, nil
}

func parseDate(v string) (string, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("date %q: %w", v, domain.ErrInvalidFieldValue)
	}
	return formatDate(t), nil
}

func mustDate(v string) time.Time {
	t, _ := time.Parse(time.DateOnly, v)
	return t
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseNonBlank(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("blank value: %w", domain.ErrInvalidFieldValue)
	}
	return v, nil
}

func parseAmount(v string) (string, error) {
	d, err := money.Parse(strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("amount %q: %w", v, domain.ErrInvalidFieldValue)
	}
	if !money.Round(d).IsPositive() {
		return "", fmt.Errorf("amount %q must be positive: %w", v, domain.ErrInvalidFieldValue)
	}
	return money.String(d), nil
}

func parseCategory(v string) (string, error) {
	c, err := domain.ParseCategory(v)
	if err != nil {
		return "", err
	}
	return string(c), nil
}
