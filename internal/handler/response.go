package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps the most specific sentinel first, then falls back
// to the error class.
func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrMissingPaymentDate):
		appErr = ErrMissingPaymentDate
	case errors.Is(err, domain.ErrMissingBankReference):
		appErr = ErrMissingBankReference
	case errors.Is(err, domain.ErrNoInvoices):
		appErr = ErrNoInvoices
	case errors.Is(err, domain.ErrEmptyReason):
		appErr = ErrEmptyReason
	case errors.Is(err, domain.ErrUnknownField):
		appErr = ErrUnknownField
	case errors.Is(err, domain.ErrInvalidFieldValue):
		appErr = ErrInvalidFieldValue
	case errors.Is(err, domain.ErrInvalidTargetKind):
		appErr = ErrInvalidTargetKind
	case errors.Is(err, domain.ErrValidation):
		appErr = ErrValidationFailed
	case errors.Is(err, domain.ErrInvoiceNotFound):
		appErr = ErrInvoiceNotFound
	case errors.Is(err, domain.ErrInvoiceNotPending):
		appErr = ErrInvoiceNotPending
	case errors.Is(err, domain.ErrInvoiceNotPaid):
		appErr = ErrInvoiceNotPaid
	case errors.Is(err, domain.ErrBatchKeyExists):
		appErr = ErrBatchKeyExists
	case errors.Is(err, domain.ErrVersionConflict):
		appErr = ErrVersionConflict
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, detailsFor(err, appErr))
}

// detailsFor exposes the wrapped message for field-level validation errors so
// the caller can tell which field was rejected.
func detailsFor(err error, appErr *AppError) any {
	switch appErr {
	case ErrUnknownField, ErrInvalidFieldValue, ErrValidationFailed:
		return err.Error()
	default:
		return nil
	}
}

func parsePathID(r *http.Request) (uuid.UUID, []FieldError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, []FieldError{{Field: "id", Message: "must be a valid UUID"}}
	}
	return id, nil
}
