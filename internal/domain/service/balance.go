// Package service provides implementations of domain services that implement core business logic.
// This package depends only on domain models and repository interfaces (not implementations).
package service

import (
	"fmt"

	"sweepDeskApp/internal/domain/model"
)

// Balance thresholds in SOL. MinRequired is the floor below which a paused
// session cannot be resumed: one minimum trade plus the fee reserve plus a
// safety buffer.
const (
	MinTradeAmount = 0.001
	FeeReserve     = 0.00204
	SafetyBuffer   = 0.001
	MinRequired    = MinTradeAmount + FeeReserve + SafetyBuffer
)

// Classify maps a session balance to its sufficiency class. It is pure and
// total over non-negative balances; a negative balance is a caller error
// and is rejected rather than clamped.
func Classify(balance float64) (model.BalanceCheck, error) {
	if balance < 0 {
		return model.BalanceCheck{}, fmt.Errorf("%w: negative balance %f", model.ErrMalformedInput, balance)
	}

	switch {
	case balance >= MinRequired:
		return model.BalanceCheck{
			Status:  model.BalanceGood,
			Message: "sufficient for all operations",
		}, nil
	case balance >= MinTradeAmount:
		return model.BalanceCheck{
			Status:  model.BalanceLow,
			Message: "can pause, but cannot resume",
		}, nil
	default:
		return model.BalanceCheck{
			Status:  model.BalanceCritical,
			Message: "cannot pause or resume",
		}, nil
	}
}
