package service

import (
	"context"
	"log"
	"sync"
	"time"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
	"sweepDeskApp/internal/domain/useCases"
)

// DefaultDustThreshold is the rent-exempt minimum for a zero-data account
// in SOL. A confirmed sweep can leave at most this much behind, so balances
// at or below it do not count as stranded.
const DefaultDustThreshold = 0.00089088

// RecoveryService aggregates ephemeral-wallet recovery state and executes
// sweeps back to the session vault. It holds no lock on the wallet set
// itself; every wallet is re-checked at submission time so a concurrent
// change between planning and execution cannot cause a double transfer.
type RecoveryService struct {
	wallets     repository.WalletStore
	transfers   repository.TransferBackend
	audit       repository.SweepAudit  // optional, may be nil
	broadcaster useCases.Broadcaster   // optional, may be nil
	dust        float64
	settleDelay time.Duration

	mu       sync.Mutex
	inflight map[string]struct{} // sessions with a sweep currently running
}

// NewRecoveryService creates a RecoveryService. audit and broadcaster may
// be nil; dust <= 0 falls back to DefaultDustThreshold.
func NewRecoveryService(
	wallets repository.WalletStore,
	transfers repository.TransferBackend,
	audit repository.SweepAudit,
	broadcaster useCases.Broadcaster,
	dust float64,
	settleDelay time.Duration,
) *RecoveryService {
	if dust <= 0 {
		dust = DefaultDustThreshold
	}
	return &RecoveryService{
		wallets:     wallets,
		transfers:   transfers,
		audit:       audit,
		broadcaster: broadcaster,
		dust:        dust,
		settleDelay: settleDelay,
		inflight:    make(map[string]struct{}),
	}
}

// GetStatus builds a point-in-time RecoveryStatus for the session. It is a
// pure read: repeated calls are safe and nothing is cached between them.
func (s *RecoveryService) GetStatus(ctx context.Context, sessionID string) (*model.RecoveryStatus, error) {
	vault, err := s.wallets.Vault(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	list, err := s.wallets.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return model.BuildRecoveryStatus(sessionID, vault, list, s.dust), nil
}

// Sweep transfers every recoverable wallet balance to the vault. Per-wallet
// failures are recorded and the batch continues; results preserve the order
// in which wallets were evaluated. When there is nothing to sweep the call
// succeeds with an empty result set, so re-invoking after a full recovery
// is a no-op. A whole-call failure (store or session unknown, backend
// unreachable, sweep already running) returns Error with no per-wallet rows.
func (s *RecoveryService) Sweep(ctx context.Context, sessionID string) *model.SweepResults {
	s.mu.Lock()
	if _, running := s.inflight[sessionID]; running {
		s.mu.Unlock()
		return &model.SweepResults{
			Success:   false,
			SessionID: sessionID,
			Error:     "sweep already in progress for this session",
		}
	}
	s.inflight[sessionID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, sessionID)
		s.mu.Unlock()
	}()

	vault, err := s.wallets.Vault(ctx, sessionID)
	if err != nil {
		return &model.SweepResults{Success: false, SessionID: sessionID, Error: err.Error()}
	}
	list, err := s.wallets.List(ctx, sessionID)
	if err != nil {
		return &model.SweepResults{Success: false, SessionID: sessionID, Error: err.Error()}
	}

	plan := make([]model.EphemeralWallet, 0, len(list))
	for _, w := range list {
		if w.Recoverable(s.dust) {
			plan = append(plan, w)
		}
	}

	results := make([]model.SweepResult, len(plan))
	var wg sync.WaitGroup
	for i := range plan {
		wg.Add(1)
		go func(idx int, wallet model.EphemeralWallet) {
			defer wg.Done()
			results[idx] = s.sweepWallet(ctx, sessionID, vault, wallet)
		}(i, plan[i])
	}
	wg.Wait()

	summary := &model.SweepSummary{Total: len(plan)}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	s.scheduleSettleRefresh(sessionID)

	return &model.SweepResults{
		Success:   summary.Failed == 0,
		SessionID: sessionID,
		Summary:   summary,
		Results:   results,
	}
}

// sweepWallet attempts the transfer for one planned wallet. The wallet is
// re-read first: if it stopped needing recovery since planning (swept
// elsewhere, drained below dust) no transfer is submitted.
func (s *RecoveryService) sweepWallet(ctx context.Context, sessionID, vault string, planned model.EphemeralWallet) model.SweepResult {
	fresh, err := s.wallets.Get(ctx, sessionID, planned.Address)
	if err != nil {
		return model.SweepResult{
			Address: planned.Address,
			Success: false,
			Error:   "could not re-check wallet: " + err.Error(),
		}
	}
	if !fresh.Recoverable(s.dust) {
		return model.SweepResult{
			Address: planned.Address,
			Success: true,
			Message: "already recovered",
		}
	}

	sig, err := s.transfers.Transfer(ctx, fresh.Address, vault, fresh.Balance)
	s.recordAttempt(ctx, &model.SweepAttempt{
		SessionID:     sessionID,
		WalletAddress: fresh.Address,
		VaultAddress:  vault,
		Amount:        fresh.Balance,
		Success:       err == nil,
		Signature:     sig,
		Error:         errString(err),
		AttemptedAt:   time.Now().UTC(),
	})

	if err != nil {
		if storeErr := s.wallets.RecordFailure(ctx, sessionID, fresh.Address, err.Error()); storeErr != nil {
			log.Printf("failed to record sweep failure for %s: %v", fresh.Address, storeErr)
		}
		return model.SweepResult{
			Address: fresh.Address,
			Success: false,
			Error:   err.Error(),
		}
	}

	if storeErr := s.wallets.MarkSwept(ctx, sessionID, fresh.Address); storeErr != nil {
		log.Printf("failed to mark wallet %s swept: %v", fresh.Address, storeErr)
	}
	return model.SweepResult{
		Address:   fresh.Address,
		Success:   true,
		Signature: sig,
		Message:   "swept to vault",
	}
}

// scheduleSettleRefresh re-aggregates and broadcasts the recovery status
// after a fixed delay, giving on-chain confirmation time to land. The sweep
// result itself is returned without waiting on this.
func (s *RecoveryService) scheduleSettleRefresh(sessionID string) {
	if s.broadcaster == nil || s.settleDelay <= 0 {
		return
	}
	go func() {
		time.Sleep(s.settleDelay)
		status, err := s.GetStatus(context.Background(), sessionID)
		if err != nil {
			log.Printf("post-sweep refresh for session %s failed: %v", sessionID, err)
			return
		}
		s.broadcaster.BroadcastRecovery(status)
	}()
}

func (s *RecoveryService) recordAttempt(ctx context.Context, attempt *model.SweepAttempt) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordAttempt(ctx, attempt); err != nil {
		log.Printf("failed to record sweep audit row: %v", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Ensure interface compliance
var _ useCases.RecoveryService = (*RecoveryService)(nil)
