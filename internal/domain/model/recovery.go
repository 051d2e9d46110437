package model

import "time"

// WalletStatus is the lifecycle state of an ephemeral wallet.
type WalletStatus string

const (
	WalletIdle   WalletStatus = "idle"
	WalletFunded WalletStatus = "funded"
	WalletSwept  WalletStatus = "swept"
)

// EphemeralWallet is a short-lived session-scoped wallet used to execute
// trades. Wallets are retained as audit records after sweeping; they are
// never deleted while the session is active.
type EphemeralWallet struct {
	Address          string       `json:"address"`
	Status           WalletStatus `json:"status"`
	Balance          float64      `json:"balance"`
	SweepAttempts    int          `json:"sweep_attempts"`
	LastSweepAttempt *time.Time   `json:"last_sweep_attempt,omitempty"`
	SweepError       string       `json:"sweep_error,omitempty"`
	NeedsRecovery    bool         `json:"needs_recovery"`
}

// Recoverable reports whether the wallet holds stranded funds worth
// sweeping: balance above the dust threshold and not already swept.
func (w *EphemeralWallet) Recoverable(dustThreshold float64) bool {
	return w.Balance > dustThreshold && w.Status != WalletSwept
}

// RecoverySummary is the rollup over a session's wallet set.
type RecoverySummary struct {
	Total                int     `json:"total"`
	Swept                int     `json:"swept"`
	NeedsRecovery        int     `json:"needs_recovery"`
	TotalStrandedBalance float64 `json:"total_stranded_balance"`
}

// RecoveryStatus is a point-in-time view of all ephemeral wallets for a
// session, in wallet creation order. It is always recomputed from the live
// wallet set, never persisted.
type RecoveryStatus struct {
	SessionID    string            `json:"session_id"`
	VaultAddress string            `json:"vault_address"`
	Wallets      []EphemeralWallet `json:"ephemeral_wallets"`
	Summary      RecoverySummary   `json:"summary"`
}

// BuildRecoveryStatus derives NeedsRecovery for every wallet and computes
// the summary. Wallet order is preserved as given (creation order).
func BuildRecoveryStatus(sessionID, vault string, wallets []EphemeralWallet, dustThreshold float64) *RecoveryStatus {
	status := &RecoveryStatus{
		SessionID:    sessionID,
		VaultAddress: vault,
		Wallets:      make([]EphemeralWallet, len(wallets)),
	}
	status.Summary.Total = len(wallets)

	for i, w := range wallets {
		w.NeedsRecovery = w.Recoverable(dustThreshold)
		status.Wallets[i] = w

		if w.Status == WalletSwept {
			status.Summary.Swept++
		}
		if w.NeedsRecovery {
			status.Summary.NeedsRecovery++
			status.Summary.TotalStrandedBalance += w.Balance
		}
	}

	return status
}
