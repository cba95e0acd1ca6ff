package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/service/invoice"
)

type invoiceService interface {
	Import(ctx context.Context, req invoice.ImportRequest) (*domain.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	ListPending(ctx context.Context) ([]domain.Invoice, error)
}

type InvoiceHandler struct {
	invoices invoiceService
}

func NewInvoiceHandler(invoices invoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type importInvoiceRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	InvoiceDate   string `json:"invoice_date"`
	DueDate       string `json:"due_date"`
	Notes         string `json:"notes"`
}

func (r importInvoiceRequest) parse() (invoice.ImportRequest, []FieldError) {
	var errs []FieldError

	if strings.TrimSpace(r.InvoiceNumber) == "" {
		errs = append(errs, FieldError{Field: "invoice_number", Message: "required"})
	}
	if strings.TrimSpace(r.Amount) == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	if _, err := domain.ParseCategory(r.Category); err != nil {
		errs = append(errs, FieldError{Field: "category", Message: "must be a known category"})
	}

	invoiceDate, errs := parseDate("invoice_date", r.InvoiceDate, errs)
	dueDate, errs := parseDate("due_date", r.DueDate, errs)

	return invoice.ImportRequest{
		InvoiceNumber: r.InvoiceNumber,
		Amount:        r.Amount,
		Category:      r.Category,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Notes:         r.Notes,
	}, errs
}

func (h *InvoiceHandler) Import(w http.ResponseWriter, r *http.Request) {
	var body importInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	req, fields := body.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	inv, err := h.invoices.Import(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("invoice import failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/invoices/%s", inv.ID))
	RespondSuccess(w, http.StatusCreated, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, fields := parsePathID(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.ListPending(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list invoices", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]invoiceDTO, len(invoices))
	for i := range invoices {
		out[i] = toInvoiceDTO(&invoices[i])
	}
	RespondSuccess(w, http.StatusOK, out)
}
