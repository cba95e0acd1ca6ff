package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/auth"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
)

type settlementService interface {
	Commit(ctx context.Context, req settlement.CommitRequest) (*settlement.CommitResult, error)
	Revert(ctx context.Context, req settlement.RevertRequest) (*domain.Invoice, error)
}

type PaymentHandler struct {
	settlements settlementService
}

func NewPaymentHandler(settlements settlementService) *PaymentHandler {
	return &PaymentHandler{settlements: settlements}
}

type commitPaymentRequest struct {
	PaymentDate   string   `json:"payment_date"`
	BankReference string   `json:"bank_reference"`
	InvoiceIDs    []string `json:"invoice_ids"`
	PostToLedger  bool     `json:"post_to_ledger"`
}

func (r commitPaymentRequest) parse() (settlement.CommitRequest, []FieldError) {
	var errs []FieldError

	date, errs := parseDate("payment_date", r.PaymentDate, errs)

	if strings.TrimSpace(r.BankReference) == "" {
		errs = append(errs, FieldError{Field: "bank_reference", Message: "required"})
	}

	ids, errs := parseIDs("invoice_ids", r.InvoiceIDs, errs)

	return settlement.CommitRequest{
		PaymentDate:   date,
		BankReference: r.BankReference,
		InvoiceIDs:    ids,
		PostToLedger:  r.PostToLedger,
	}, errs
}

type commitResultDTO struct {
	Batch     *batchDTO            `json:"batch"`
	NewlyPaid []paidInvoiceDTO     `json:"newly_paid"`
	Skipped   []uuid.UUID          `json:"skipped"`
	Warnings  []settlement.Warning `json:"warnings"`
}

func (h *PaymentHandler) Commit(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var body commitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	req, fields := body.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.settlements.Commit(r.Context(), req)
	if err != nil {
		log.Warn("payment commit failed", "bank_reference", req.BankReference, "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := commitResultDTO{
		Batch:     toBatchDTO(res.Batch),
		NewlyPaid: toPaidInvoiceDTOs(res.NewlyPaid),
		Skipped:   res.Skipped,
		Warnings:  res.Warnings,
	}
	if dto.Skipped == nil {
		dto.Skipped = []uuid.UUID{}
	}
	if dto.Warnings == nil {
		dto.Warnings = []settlement.Warning{}
	}
	RespondSuccess(w, http.StatusOK, dto)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandler) Revert(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	invoiceID, fields := parsePathID(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var body reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	inv, err := h.settlements.Revert(r.Context(), settlement.RevertRequest{
		InvoiceID: invoiceID,
		Reason:    body.Reason,
		Actor:     actor,
	})
	if err != nil {
		log.Warn("payment revert failed", "invoice_id", invoiceID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toInvoiceDTO(inv))
}
