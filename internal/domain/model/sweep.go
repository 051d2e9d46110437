package model

import "time"

// SweepResult records one per-wallet transfer attempt within a sweep.
type SweepResult struct {
	Address   string `json:"address"`
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SweepSummary counts the outcome of a sweep batch.
type SweepSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SweepResults is the outcome of one sweep invocation. Results preserve
// the order in which wallets were evaluated. Error is set only when the
// whole sweep could not execute, in which case Results is absent.
type SweepResults struct {
	Success   bool          `json:"success"`
	SessionID string        `json:"session_id,omitempty"`
	Summary   *SweepSummary `json:"summary,omitempty"`
	Results   []SweepResult `json:"results,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// SweepAttempt is one durable audit row, written for every transfer
// attempt a sweep makes.
type SweepAttempt struct {
	SessionID     string    `json:"session_id"`
	WalletAddress string    `json:"wallet_address"`
	VaultAddress  string    `json:"vault_address"`
	Amount        float64   `json:"amount"`
	Success       bool      `json:"success"`
	Signature     string    `json:"signature,omitempty"`
	Error         string    `json:"error,omitempty"`
	AttemptedAt   time.Time `json:"attempted_at"`
}
