package model

// SessionStatus is the lifecycle state of a trading session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionStopped   SessionStatus = "stopped"
)

// Terminal reports whether the session can no longer be controlled.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionStopped
}

// Session is a read snapshot of a trading session owned by the
// session-control subsystem. Balance is SOL-denominated.
type Session struct {
	ID       string        `json:"id"`
	Status   SessionStatus `json:"status"`
	Balance  float64       `json:"balance"`
	IsPaused bool          `json:"is_paused"`
}

// BalanceStatus is the tri-state sufficiency classification of a balance.
type BalanceStatus string

const (
	BalanceGood     BalanceStatus = "good"
	BalanceLow      BalanceStatus = "low"
	BalanceCritical BalanceStatus = "critical"
)

// BalanceCheck is the result of classifying a session balance.
type BalanceCheck struct {
	Status  BalanceStatus `json:"status"`
	Message string        `json:"message"`
}

// Operation identifies a session control action.
type Operation string

const (
	OpPause  Operation = "pause"
	OpResume Operation = "resume"
	OpStop   Operation = "stop"
)

// ValidationResult tells whether one control action may proceed right now.
type ValidationResult struct {
	CanProceed bool            `json:"can_proceed"`
	Error      *OperationError `json:"error,omitempty"`
}

// SessionValidation bundles the validation results for all three controls.
// It is recomputed on every trigger and never served past its inputs.
type SessionValidation struct {
	SessionID string           `json:"session_id"`
	Pause     ValidationResult `json:"pause"`
	Resume    ValidationResult `json:"resume"`
	Stop      ValidationResult `json:"stop"`
}
