// Package report builds the monthly settlement report from committed batches.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

const (
	NoReferenceLabel = "(No Ref)"
	dateLabelLayout  = "2006-01-02"
)

// BatchLines is a committed batch together with its paid-invoice lines.
type BatchLines struct {
	Batch domain.PaymentBatch
	Lines []domain.PaidInvoice
}

type Report struct {
	Year       int
	Month      time.Month
	Dates      []DateGroup
	GrandTotal decimal.Decimal
	Warnings   []string
}

type DateGroup struct {
	Date   time.Time
	Label  string
	Blocks []Block
}

// Block is one batch within a payment date.
type Block struct {
	BatchID          uuid.UUID
	BankReference    string
	DisplayReference string
	Invoices         []domain.PaidInvoice
	Subtotal         decimal.Decimal
}

// GroupByMonth keeps the batches paid in year/month, groups them by payment day and
// orders references and invoice numbers numeric-aware. It does not mutate its input.
func GroupByMonth(batches []BatchLines, year int, month time.Month) *Report {
	r := &Report{Year: year, Month: month, GrandTotal: decimal.Zero}

	byDay := make(map[string]*DateGroup)
	for _, bl := range batches {
		y, m, _ := bl.Batch.PaymentDate.Date()
		if y != year || m != month {
			continue
		}

		day := domain.DateOnly(bl.Batch.PaymentDate)
		label := day.Format(dateLabelLayout)
		group, ok := byDay[label]
		if !ok {
			group = &DateGroup{Date: day, Label: label}
			byDay[label] = group
		}

		block := newBlock(bl)
		if block.DisplayReference == NoReferenceLabel {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("%s: batch %s has no bank reference", label, bl.Batch.ID))
		}
		group.Blocks = append(group.Blocks, block)
	}

	for _, group := range byDay {
		slices.SortFunc(group.Blocks, func(a, b Block) int {
			if c := CompareNumericAware(a.BankReference, b.BankReference); c != 0 {
				return c
			}
			return strings.Compare(a.BatchID.String(), b.BatchID.String())
		})
		r.Dates = append(r.Dates, *group)
	}
	slices.SortFunc(r.Dates, func(a, b DateGroup) int {
		return a.Date.Compare(b.Date)
	})

	for _, group := range r.Dates {
		for _, block := range group.Blocks {
			r.GrandTotal = money.Add(r.GrandTotal, block.Subtotal)
		}
	}
	slices.Sort(r.Warnings)

	return r
}

func newBlock(bl BatchLines) Block {
	lines := slices.Clone(bl.Lines)
	slices.SortFunc(lines, func(a, b domain.PaidInvoice) int {
		if c := CompareNumericAware(a.InvoiceNumber, b.InvoiceNumber); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = money.Add(subtotal, line.Amount)
	}

	display := bl.Batch.BankReference
	if strings.TrimSpace(display) == "" {
		display = NoReferenceLabel
	}

	return Block{
		BatchID:          bl.Batch.ID,
		BankReference:    bl.Batch.BankReference,
		DisplayReference: display,
		Invoices:         lines,
		Subtotal:         subtotal,
	}
}
