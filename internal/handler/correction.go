package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/auth"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/service/correction"
)

type correctionService interface {
	Amend(ctx context.Context, req correction.AmendRequest) (*correction.AmendResult, error)
	History(ctx context.Context, kind domain.TargetKind, targetID uuid.UUID) ([]domain.PaymentCorrection, error)
}

type CorrectionHandler struct {
	corrections correctionService
}

func NewCorrectionHandler(corrections correctionService) *CorrectionHandler {
	return &CorrectionHandler{corrections: corrections}
}

type amendRequest struct {
	Changes []correction.FieldChange `json:"changes"`
	Reason  string                   `json:"reason"`
}

func (r amendRequest) Validate() []FieldError {
	var errs []FieldError

	if len(r.Changes) == 0 {
		errs = append(errs, FieldError{Field: "changes", Message: "must contain at least one change"})
	}
	for _, c := range r.Changes {
		if c.Field == "" {
			errs = append(errs, FieldError{Field: "changes", Message: "every change needs a field"})
			break
		}
	}

	return errs
}

type amendResultDTO struct {
	Batch       *batchDTO       `json:"batch,omitempty"`
	PaidInvoice *paidInvoiceDTO `json:"paid_invoice,omitempty"`
	Corrections []correctionDTO `json:"corrections"`
}

func (h *CorrectionHandler) AmendBatch(w http.ResponseWriter, r *http.Request) {
	h.amend(w, r, domain.TargetKindBatch)
}

func (h *CorrectionHandler) AmendPaidInvoice(w http.ResponseWriter, r *http.Request) {
	h.amend(w, r, domain.TargetKindPaidInvoice)
}

func (h *CorrectionHandler) amend(w http.ResponseWriter, r *http.Request, kind domain.TargetKind) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	targetID, fields := parsePathID(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var body amendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := body.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.corrections.Amend(r.Context(), correction.AmendRequest{
		Kind:     kind,
		TargetID: targetID,
		Changes:  body.Changes,
		Reason:   body.Reason,
		Actor:    actor,
	})
	if err != nil {
		log.Warn("amend failed", "target_kind", kind, "target_id", targetID, "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := amendResultDTO{
		Batch:       toBatchDTO(res.Batch),
		Corrections: toCorrectionDTOs(res.Corrections),
	}
	if res.PaidInvoice != nil {
		p := toPaidInvoiceDTO(res.PaidInvoice)
		dto.PaidInvoice = &p
	}
	RespondSuccess(w, http.StatusOK, dto)
}

func (h *CorrectionHandler) History(w http.ResponseWriter, r *http.Request) {
	var fields []FieldError

	kind := domain.TargetKind(r.URL.Query().Get("kind"))
	if !kind.IsValid() {
		fields = append(fields, FieldError{Field: "kind", Message: "must be batch, paid_invoice, invoice, or balance"})
	}

	targetID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		fields = append(fields, FieldError{Field: "id", Message: "must be a valid UUID"})
	}

	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	history, err := h.corrections.History(r.Context(), kind, targetID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load corrections", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCorrectionDTOs(history))
}
