package service

import (
	"sweepDeskApp/internal/domain/model"
)

// Validate computes the legality of pause, resume and stop for a session
// snapshot. Each operation is evaluated independently. A blocked operation
// is a normal result, not an error; Validate only fails on malformed input
// (negative balance).
//
// Results must never be cached across a balance or status change: this is
// a UX gate, and the authoritative check happens in the session-control
// subsystem at execution time.
func Validate(session model.Session) (model.SessionValidation, error) {
	v := model.SessionValidation{SessionID: session.ID}

	if session.Status.Terminal() {
		blocked := model.ValidationResult{
			CanProceed: false,
			Error: &model.OperationError{
				Kind:    model.KindValidationBlocked,
				Reason:  model.BlockSessionTerminal,
				Message: "session terminal",
			},
		}
		v.Pause, v.Resume, v.Stop = blocked, blocked, blocked
		return v, nil
	}

	check, err := Classify(session.Balance)
	if err != nil {
		return model.SessionValidation{}, err
	}
	paused := session.Status == model.SessionPaused || session.IsPaused

	// Stop is always available for a non-terminal session: it is the
	// escape hatch and requires no further trading capital.
	v.Stop = model.ValidationResult{CanProceed: true}

	// Pause requires an actively running session; an unknown status from
	// the control API is not pausable.
	switch {
	case paused || session.Status != model.SessionActive:
		v.Pause = blockedResult(model.BlockNotActive, "session is not running")
	case check.Status == model.BalanceCritical:
		v.Pause = blockedResult(model.BlockInsufficientBalance, "balance too low to pause safely")
	default:
		v.Pause = model.ValidationResult{CanProceed: true}
	}

	// Resuming restarts trading, so it needs the full trade + fee + buffer
	// minimum; a low balance can hold a pause but cannot fund a resume.
	switch {
	case !paused:
		v.Resume = blockedResult(model.BlockNotPaused, "session is not paused")
	case check.Status != model.BalanceGood:
		v.Resume = blockedResult(model.BlockInsufficientBalance, "balance too low to resume trading")
	default:
		v.Resume = model.ValidationResult{CanProceed: true}
	}

	return v, nil
}

func blockedResult(reason model.BlockReason, msg string) model.ValidationResult {
	return model.ValidationResult{
		CanProceed: false,
		Error: &model.OperationError{
			Kind:    model.KindValidationBlocked,
			Reason:  reason,
			Message: msg,
		},
	}
}
