package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/auth"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
)

type balanceService interface {
	GetBalance(ctx context.Context) (*domain.Balance, error)
	SetFunds(ctx context.Context, req settlement.FundsUpdate) (*domain.Balance, error)
}

type BalanceHandler struct {
	balances balanceService
}

func NewBalanceHandler(balances balanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.balances.GetBalance(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load balance", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toBalanceDTO(b))
}

type setFundsRequest struct {
	AvailableFunds *string `json:"available_funds"`
	Planned        *string `json:"planned"`
	Reason         string  `json:"reason"`
}

func (r setFundsRequest) parse() (*decimal.Decimal, *decimal.Decimal, []FieldError) {
	var errs []FieldError

	parse := func(field string, v *string) *decimal.Decimal {
		if v == nil {
			return nil
		}
		d, err := money.Parse(*v)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: "must be a decimal amount"})
			return nil
		}
		return &d
	}

	available := parse("available_funds", r.AvailableFunds)
	planned := parse("planned", r.Planned)
	if r.AvailableFunds == nil && r.Planned == nil {
		errs = append(errs, FieldError{Field: "available_funds", Message: "available_funds or planned is required"})
	}
	return available, planned, errs
}

func (h *BalanceHandler) SetFunds(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var body setFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	available, planned, fields := body.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	b, err := h.balances.SetFunds(r.Context(), settlement.FundsUpdate{
		AvailableFunds: available,
		Planned:        planned,
		Reason:         body.Reason,
		Actor:          actor,
	})
	if err != nil {
		log.Warn("set funds failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBalanceDTO(b))
}
