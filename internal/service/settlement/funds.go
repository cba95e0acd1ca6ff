package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

// FundsUpdate sets the cash figures directly. Nil fields stay as they are.
type FundsUpdate struct {
	AvailableFunds *decimal.Decimal
	Planned        *decimal.Decimal
	Reason         string
	Actor          string
}

// balanceTargetID is the correction target id used for the singleton balance.
var balanceTargetID = uuid.UUID{15: domain.BalanceID}

// SetFunds overwrites available funds and/or planned, logging one correction per
// changed figure.
func (s *Service) SetFunds(ctx context.Context, req FundsUpdate) (*domain.Balance, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("SetFunds: %w", domain.ErrEmptyReason)
	}
	if req.AvailableFunds == nil && req.Planned == nil {
		return nil, fmt.Errorf("SetFunds: nothing to change: %w", domain.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SetFunds: begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := s.balances.GetOrCreateForUpdate(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("SetFunds: %w", err)
	}

	now := time.Now().UTC()
	var corrections []*domain.PaymentCorrection
	apply := func(field string, current *decimal.Decimal, next *decimal.Decimal) {
		if next == nil {
			return
		}
		value := money.Round(*next)
		if money.String(value) == money.String(*current) {
			return
		}
		corrections = append(corrections, &domain.PaymentCorrection{
			ID:         uuid.New(),
			TargetKind: domain.TargetKindBalance,
			TargetID:   balanceTargetID,
			Field:      field,
			OldValue:   money.String(*current),
			NewValue:   money.String(value),
			Reason:     strings.TrimSpace(req.Reason),
			Actor:      req.Actor,
			CreatedAt:  now,
		})
		*current = value
	}
	apply("available_funds", &balance.AvailableFunds, req.AvailableFunds)
	apply("planned", &balance.Planned, req.Planned)

	if len(corrections) == 0 {
		return balance, nil
	}

	balance.BalanceAfter = money.Sub(balance.AvailableFunds, balance.Planned)
	if err := s.balances.Update(ctx, tx, balance); err != nil {
		return nil, fmt.Errorf("SetFunds: %w", err)
	}
	for _, c := range corrections {
		if err := s.corrections.Create(ctx, tx, c); err != nil {
			return nil, fmt.Errorf("SetFunds: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SetFunds: commit: %w", err)
	}

	logging.FromContext(ctx).Info("balance set",
		"available_funds", money.String(balance.AvailableFunds),
		"planned", money.String(balance.Planned),
	)
	return balance, nil
}

// BalanceTargetID is the id under which balance corrections are recorded.
func BalanceTargetID() uuid.UUID {
	return balanceTargetID
}
