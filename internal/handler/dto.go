package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

const dateLayout = time.DateOnly

type invoiceDTO struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	Amount        string     `json:"amount"`
	Category      string     `json:"category"`
	InvoiceDate   string     `json:"invoice_date"`
	DueDate       string     `json:"due_date"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	PaidInvoiceID *uuid.UUID `json:"paid_invoice_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toInvoiceDTO(inv *domain.Invoice) invoiceDTO {
	return invoiceDTO{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        money.String(inv.Amount),
		Category:      string(inv.Category),
		InvoiceDate:   inv.InvoiceDate.Format(dateLayout),
		DueDate:       inv.DueDate.Format(dateLayout),
		Notes:         inv.Notes,
		Status:        string(inv.Status),
		PaidInvoiceID: inv.PaidInvoiceID,
		CreatedAt:     inv.CreatedAt,
	}
}

type batchDTO struct {
	ID            uuid.UUID `json:"id"`
	PaymentDate   string    `json:"payment_date"`
	BankReference string    `json:"bank_reference"`
	TotalAmount   string    `json:"total_amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toBatchDTO(b *domain.PaymentBatch) *batchDTO {
	if b == nil {
		return nil
	}
	return &batchDTO{
		ID:            b.ID,
		PaymentDate:   b.PaymentDate.Format(dateLayout),
		BankReference: b.BankReference,
		TotalAmount:   money.String(b.TotalAmount),
		BalanceBefore: money.String(b.BalanceBefore),
		BalanceAfter:  money.String(b.BalanceAfter),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type paidInvoiceDTO struct {
	ID            uuid.UUID `json:"id"`
	BatchID       uuid.UUID `json:"batch_id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        string    `json:"amount"`
	Category      string    `json:"category"`
	InvoiceDate   string    `json:"invoice_date"`
	DueDate       string    `json:"due_date"`
	Notes         string    `json:"notes,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
}

func toPaidInvoiceDTO(p *domain.PaidInvoice) paidInvoiceDTO {
	return paidInvoiceDTO{
		ID:            p.ID,
		BatchID:       p.BatchID,
		InvoiceID:     p.InvoiceID,
		InvoiceNumber: p.InvoiceNumber,
		Amount:        money.String(p.Amount),
		Category:      string(p.Category),
		InvoiceDate:   p.InvoiceDate.Format(dateLayout),
		DueDate:       p.DueDate.Format(dateLayout),
		Notes:         p.Notes,
		PaidAt:        p.PaidAt,
	}
}

func toPaidInvoiceDTOs(lines []domain.PaidInvoice) []paidInvoiceDTO {
	out := make([]paidInvoiceDTO, len(lines))
	for i := range lines {
		out[i] = toPaidInvoiceDTO(&lines[i])
	}
	return out
}

type balanceDTO struct {
	AvailableFunds string    `json:"available_funds"`
	Planned        string    `json:"planned"`
	BalanceAfter   string    `json:"balance_after"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toBalanceDTO(b *domain.Balance) balanceDTO {
	return balanceDTO{
		AvailableFunds: money.String(b.AvailableFunds),
		Planned:        money.String(b.Planned),
		BalanceAfter:   money.String(b.BalanceAfter),
		Version:        b.Version,
		UpdatedAt:      b.UpdatedAt,
	}
}

type correctionDTO struct {
	ID         uuid.UUID `json:"id"`
	TargetKind string    `json:"target_kind"`
	TargetID   uuid.UUID `json:"target_id"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCorrectionDTOs(cs []domain.PaymentCorrection) []correctionDTO {
	out := make([]correctionDTO, len(cs))
	for i, c := range cs {
		out[i] = correctionDTO{
			ID:         c.ID,
			TargetKind: string(c.TargetKind),
			TargetID:   c.TargetID,
			Field:      c.Field,
			OldValue:   c.OldValue,
			NewValue:   c.NewValue,
			Reason:     c.Reason,
			Actor:      c.Actor,
			CreatedAt:  c.CreatedAt,
		}
	}
	return out
}

type simulationDTO struct {
	ID                  uuid.UUID   `json:"id"`
	SimulationDate      string      `json:"simulation_date"`
	InvoiceIDs          []uuid.UUID `json:"invoice_ids"`
	TotalAmount         string      `json:"total_amount"`
	BalanceBefore       string      `json:"balance_before"`
	BalanceAfter        string      `json:"balance_after"`
	TransferDescription string      `json:"transfer_description"`
	CreatedAt           time.Time   `json:"created_at"`
}

func toSimulationDTO(s *domain.PaymentSimulation) simulationDTO {
	return simulationDTO{
		ID:                  s.ID,
		SimulationDate:      s.SimulationDate.Format(dateLayout),
		InvoiceIDs:          s.InvoiceIDs,
		TotalAmount:         money.String(s.TotalAmount),
		BalanceBefore:       money.String(s.BalanceBefore),
		BalanceAfter:        money.String(s.BalanceAfter),
		TransferDescription: s.TransferDescription,
		CreatedAt:           s.CreatedAt,
	}
}

func parseDate(field, value string, errs []FieldError) (time.Time, []FieldError) {
	if value == "" {
		return time.Time{}, append(errs, FieldError{Field: field, Message: "required"})
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, append(errs, FieldError{Field: field, Message: "must be a date in YYYY-MM-DD form"})
	}
	return t, errs
}

func parseIDs(field string, values []string, errs []FieldError) ([]uuid.UUID, []FieldError) {
	if len(values) == 0 {
		return nil, append(errs, FieldError{Field: field, Message: "must contain at least one id"})
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, append(errs, FieldError{Field: field, Message: "must contain valid UUIDs"})
		}
		ids = append(ids, id)
	}
	return ids, errs
}
