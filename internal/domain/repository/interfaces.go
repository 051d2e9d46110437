// Package repository defines all the collaborator interfaces used by domain services.
// Following the dependency inversion principle, domain logic depends on these interfaces,
// and infrastructure implementations provide concrete implementations.
package repository

import (
	"context"

	"sweepDeskApp/internal/domain/model"
)

// WalletStore is the live ephemeral-wallet state for trading sessions.
// The wallet set is owned by the trading-session subsystem; implementations
// must give read-after-write consistency so a sweep outcome is visible to
// the next status read.
type WalletStore interface {
	// Vault returns the fund-recovery destination address for the session.
	// Fails with model.ErrNotFound for an unknown session.
	Vault(ctx context.Context, sessionID string) (string, error)

	// List returns the session's wallets in creation order.
	// Fails with model.ErrNotFound for an unknown session.
	List(ctx context.Context, sessionID string) ([]model.EphemeralWallet, error)

	// Get returns a single wallet snapshot. Used to re-check a wallet
	// immediately before submitting a transfer for it.
	Get(ctx context.Context, sessionID, address string) (*model.EphemeralWallet, error)

	// RegisterSession creates the wallet set for a session with its vault.
	RegisterSession(ctx context.Context, sessionID, vault string) error

	// PutWallet appends or replaces a wallet record. Appending preserves
	// creation order for List.
	PutWallet(ctx context.Context, sessionID string, wallet model.EphemeralWallet) error

	// MarkSwept records a successful sweep: status becomes swept, the
	// sweep error is cleared and the attempt counter is incremented.
	MarkSwept(ctx context.Context, sessionID, address string) error

	// RecordFailure records a failed sweep attempt: the attempt counter is
	// incremented, the error message and attempt time are set, and the
	// wallet status is left unchanged.
	RecordFailure(ctx context.Context, sessionID, address, errMsg string) error
}

// SessionControl is the authoritative session-control API. Pause, Resume
// and Stop are re-validated server-side; the local validator is a UX gate
// only. Calls fail with model.ErrUnauthorized, model.ErrNotFound,
// model.ErrPreconditionFailed or model.ErrUnavailable.
type SessionControl interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
}

// TransferBackend executes a single on-chain transfer. It owns the
// at-most-once guarantee per wallet; the orchestrator's contract is to
// never submit a transfer for a wallet not currently recoverable.
type TransferBackend interface {
	// Transfer moves amount from the wallet to the vault and returns the
	// transaction signature. Fails with model.ErrUnavailable when the
	// executor itself cannot be reached.
	Transfer(ctx context.Context, from, to string, amount float64) (string, error)
}

// SweepAudit is the durable, append-only record of every sweep attempt.
// Implementations may write asynchronously; a nil audit sink is allowed
// and sweeps proceed without it.
type SweepAudit interface {
	// RecordAttempt persists one audit row.
	RecordAttempt(ctx context.Context, attempt *model.SweepAttempt) error

	// AttemptsForSession returns the recorded attempts for a session in
	// attempt order, for ops inspection and reconciliation.
	AttemptsForSession(ctx context.Context, sessionID string) ([]*model.SweepAttempt, error)
}
