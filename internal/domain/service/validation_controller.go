package service

import (
	"sync"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/useCases"
)

// ValidationController keeps the last computed validation per session and
// recomputes it on exactly three triggers: session registration, balance
// change, pause-flag change. There is no TTL; a result is a pure
// re-derivation keyed by (sessionId, balance, isPaused) and is never served
// past its triggering inputs.
//
// Each trigger is issued a generation number under the lock. A computation
// is only stored if no later trigger has been applied, so concurrent
// triggers collapse to the last-issued recomputation and a slow early
// trigger can never overwrite a fresher result.
type ValidationController struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	snapshot   model.Session
	issuedGen  uint64
	appliedGen uint64
	validation model.SessionValidation
}

func NewValidationController() *ValidationController {
	return &ValidationController{
		sessions: make(map[string]*sessionEntry),
	}
}

// RegisterSession installs (or replaces) the tracked snapshot for a session
// identity and recomputes its validation.
func (c *ValidationController) RegisterSession(session model.Session) model.SessionValidation {
	c.mu.Lock()
	entry, ok := c.sessions[session.ID]
	if !ok {
		entry = &sessionEntry{}
		c.sessions[session.ID] = entry
	}
	entry.snapshot = session
	gen := c.issue(entry)
	snapshot := entry.snapshot
	c.mu.Unlock()

	v, _ := c.recompute(session.ID, gen, snapshot)
	return v
}

// BalanceChanged applies a balance trigger. It reports false and leaves the
// tracked state untouched for unknown sessions or malformed balances.
func (c *ValidationController) BalanceChanged(sessionID string, balance float64) (model.SessionValidation, bool) {
	if balance < 0 {
		return model.SessionValidation{}, false
	}

	c.mu.Lock()
	entry, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return model.SessionValidation{}, false
	}
	entry.snapshot.Balance = balance
	gen := c.issue(entry)
	snapshot := entry.snapshot
	c.mu.Unlock()

	return c.recompute(sessionID, gen, snapshot)
}

// PauseFlagChanged applies a pause-flag trigger. The status field is kept
// coherent with the flag for non-terminal sessions.
func (c *ValidationController) PauseFlagChanged(sessionID string, paused bool) (model.SessionValidation, bool) {
	c.mu.Lock()
	entry, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return model.SessionValidation{}, false
	}
	entry.snapshot.IsPaused = paused
	if !entry.snapshot.Status.Terminal() {
		if paused {
			entry.snapshot.Status = model.SessionPaused
		} else {
			entry.snapshot.Status = model.SessionActive
		}
	}
	gen := c.issue(entry)
	snapshot := entry.snapshot
	c.mu.Unlock()

	return c.recompute(sessionID, gen, snapshot)
}

// Current returns the last stored validation for the session.
func (c *ValidationController) Current(sessionID string) (model.SessionValidation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.sessions[sessionID]
	if !ok || entry.appliedGen == 0 {
		return model.SessionValidation{}, false
	}
	return entry.validation, true
}

// issue assigns the next trigger generation. Caller holds the lock.
func (c *ValidationController) issue(entry *sessionEntry) uint64 {
	entry.issuedGen++
	return entry.issuedGen
}

// recompute validates the snapshot and stores the result unless a
// later-issued trigger has already been applied.
func (c *ValidationController) recompute(sessionID string, gen uint64, snapshot model.Session) (model.SessionValidation, bool) {
	v, err := Validate(snapshot)
	if err != nil {
		return model.SessionValidation{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.sessions[sessionID]
	if !ok {
		return model.SessionValidation{}, false
	}
	if gen >= entry.appliedGen {
		entry.appliedGen = gen
		entry.validation = v
	}
	return entry.validation, true
}

// Ensure interface compliance
var _ useCases.Validation = (*ValidationController)(nil)
