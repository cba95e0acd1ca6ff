package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrStateConflict   = errors.New("state conflict")
	ErrVersionConflict = errors.New("optimistic lock conflict")
)

var (
	ErrMissingPaymentDate   = fmt.Errorf("payment date is required: %w", ErrValidation)
	ErrMissingBankReference = fmt.Errorf("bank reference is required: %w", ErrValidation)
	ErrNoInvoices           = fmt.Errorf("at least one invoice is required: %w", ErrValidation)
	ErrEmptyReason          = fmt.Errorf("correction reason is required: %w", ErrValidation)
	ErrUnknownField         = fmt.Errorf("unknown field: %w", ErrValidation)
	ErrInvalidFieldValue    = fmt.Errorf("invalid field value: %w", ErrValidation)
	ErrInvalidTargetKind    = fmt.Errorf("invalid correction target: %w", ErrValidation)
)

var (
	ErrInvoiceNotFound   = fmt.Errorf("invoice not found: %w", ErrStateConflict)
	ErrInvoiceNotPending = fmt.Errorf("invoice is not pending: %w", ErrStateConflict)
	ErrInvoiceNotPaid    = fmt.Errorf("invoice is not paid: %w", ErrStateConflict)
	ErrBatchKeyExists    = fmt.Errorf("a batch already exists for this date and reference: %w", ErrStateConflict)
)
