package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrMissingPaymentDate   = &AppError{http.StatusBadRequest, "MISSING_PAYMENT_DATE", "Payment date is required"}
	ErrMissingBankReference = &AppError{http.StatusBadRequest, "MISSING_BANK_REFERENCE", "Bank reference is required"}
	ErrNoInvoices           = &AppError{http.StatusBadRequest, "NO_INVOICES", "At least one invoice is required"}
	ErrEmptyReason          = &AppError{http.StatusBadRequest, "EMPTY_REASON", "A correction reason is required"}
	ErrUnknownField         = &AppError{http.StatusBadRequest, "UNKNOWN_FIELD", "Field cannot be corrected"}
	ErrInvalidFieldValue    = &AppError{http.StatusBadRequest, "INVALID_FIELD_VALUE", "Field value is invalid"}
	ErrInvalidTargetKind    = &AppError{http.StatusBadRequest, "INVALID_TARGET_KIND", "Unknown correction target"}

	ErrInvoiceNotFound   = &AppError{http.StatusUnprocessableEntity, "INVOICE_NOT_FOUND", "Invoice not found"}
	ErrInvoiceNotPending = &AppError{http.StatusConflict, "INVOICE_NOT_PENDING", "Invoice is not pending"}
	ErrInvoiceNotPaid    = &AppError{http.StatusConflict, "INVOICE_NOT_PAID", "Invoice is not paid"}
	ErrBatchKeyExists    = &AppError{http.StatusConflict, "BATCH_KEY_EXISTS", "A batch already exists for this date and reference"}
	ErrVersionConflict   = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
)
