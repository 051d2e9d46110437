package model

import "errors"

// Failure modes of the external collaborators, shared across layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnavailable        = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrMalformedInput     = errors.New("malformed input")
)

// ErrorKind classifies an operation failure for callers and the UI.
type ErrorKind string

const (
	KindValidationBlocked  ErrorKind = "validation_blocked"
	KindTransferFailed     ErrorKind = "transfer_failed"
	KindBackendUnavailable ErrorKind = "backend_unavailable"
	KindMalformedInput     ErrorKind = "malformed_input"
)

// BlockReason distinguishes why a control action is currently illegal.
// Each reason carries a different remediation for the user.
type BlockReason string

const (
	BlockNotPaused           BlockReason = "not_paused"
	BlockNotActive           BlockReason = "not_active"
	BlockInsufficientBalance BlockReason = "insufficient_balance"
	BlockSessionTerminal     BlockReason = "session_terminal"
)

// OperationError describes why an operation is blocked or failed.
type OperationError struct {
	Kind    ErrorKind   `json:"kind"`
	Reason  BlockReason `json:"reason,omitempty"`
	Message string      `json:"message"`
}

func (e *OperationError) Error() string { return e.Message }

// Advice is the user-facing rendering of an OperationError.
type Advice struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Describe maps an OperationError to a message and remediation hint,
// keyed by the explicit reason/kind rather than error-shape sniffing.
func Describe(e *OperationError) Advice {
	if e == nil {
		return Advice{}
	}

	switch e.Reason {
	case BlockNotPaused:
		return Advice{Message: e.Message, Suggestion: "pause the session before resuming"}
	case BlockNotActive:
		return Advice{Message: e.Message, Suggestion: "only a running session can be paused"}
	case BlockInsufficientBalance:
		return Advice{Message: e.Message, Suggestion: "top up the session balance or stop the session"}
	case BlockSessionTerminal:
		return Advice{Message: e.Message, Suggestion: "the session has ended; start a new one"}
	}

	switch e.Kind {
	case KindTransferFailed:
		return Advice{Message: e.Message, Suggestion: "retry the sweep; failed wallets remain recoverable"}
	case KindBackendUnavailable:
		return Advice{Message: e.Message, Suggestion: "retry once the backend is reachable"}
	case KindMalformedInput:
		return Advice{Message: e.Message, Suggestion: "check the session id and wallet address"}
	}
	return Advice{Message: e.Message}
}
