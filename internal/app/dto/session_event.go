package dto

import (
	"time"

	"sweepDeskApp/internal/domain/model"
)

// EventType names a validation refresh trigger.
type EventType string

const (
	EventSessionRegistered EventType = "session_registered"
	EventBalanceChanged    EventType = "balance_changed"
	EventPauseChanged      EventType = "pause_changed"
)

// SessionEvent is the wire representation of a refresh trigger for the
// validation controller. Status/Balance/IsPaused are only meaningful for
// the event types that carry them.
type SessionEvent struct {
	ID        string              `json:"id"`
	Type      EventType           `json:"type"`
	SessionID string              `json:"session_id"`
	Status    model.SessionStatus `json:"status,omitempty"`
	Balance   float64             `json:"balance"`
	IsPaused  bool                `json:"is_paused"`
	Timestamp time.Time           `json:"timestamp"`
}

// Session converts a session_registered event to a domain session snapshot.
func (e *SessionEvent) Session() model.Session {
	return model.Session{
		ID:       e.SessionID,
		Status:   e.Status,
		Balance:  e.Balance,
		IsPaused: e.IsPaused,
	}
}

// RegisteredEvent builds a session_registered event from a domain session.
func RegisteredEvent(id string, session model.Session) *SessionEvent {
	return &SessionEvent{
		ID:        id,
		Type:      EventSessionRegistered,
		SessionID: session.ID,
		Status:    session.Status,
		Balance:   session.Balance,
		IsPaused:  session.IsPaused,
		Timestamp: time.Now().UTC(),
	}
}
