package useCases

import (
	"context"
	"net/http"

	"sweepDeskApp/internal/domain/model"
)

// RecoveryService defines the interface for fund-recovery status and sweeps.
type RecoveryService interface {
	GetStatus(ctx context.Context, sessionID string) (*model.RecoveryStatus, error)
	Sweep(ctx context.Context, sessionID string) *model.SweepResults
}

// Validation defines the interface for serving current operation-validation
// results and applying refresh triggers.
type Validation interface {
	RegisterSession(session model.Session) model.SessionValidation
	BalanceChanged(sessionID string, balance float64) (model.SessionValidation, bool)
	PauseFlagChanged(sessionID string, paused bool) (model.SessionValidation, bool)
	Current(sessionID string) (model.SessionValidation, bool)
}

// Broadcaster defines an interface for pushing updates to WebSocket/API layers.
type Broadcaster interface {
	BroadcastValidation(v *model.SessionValidation)
	BroadcastRecovery(status *model.RecoveryStatus)
	Handler() func(http.ResponseWriter, *http.Request)
}
