package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/service"
	"sweepDeskApp/internal/infrastructure/cache"
)

// fakeTransfer implements TransferBackend with scriptable failures and an
// optional gate to hold transfers open.
type fakeTransfer struct {
	mu      sync.Mutex
	failFor map[string]error
	calls   []string
	gate    chan struct{}
}

func newFakeTransfer() *fakeTransfer {
	return &fakeTransfer{failFor: make(map[string]error)}
}

func (f *fakeTransfer) Transfer(ctx context.Context, from, to string, amount float64) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls = append(f.calls, from)
	err := f.failFor[from]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return "sig-" + from, nil
}

func (f *fakeTransfer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeBroadcaster records recovery broadcasts.
type fakeBroadcaster struct {
	mu         sync.Mutex
	recoveries []*model.RecoveryStatus
}

func (b *fakeBroadcaster) BroadcastValidation(v *model.SessionValidation) {}

func (b *fakeBroadcaster) BroadcastRecovery(status *model.RecoveryStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recoveries = append(b.recoveries, status)
}

func (b *fakeBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(http.ResponseWriter, *http.Request) {}
}

func (b *fakeBroadcaster) recoveryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.recoveries)
}

func seedSession(t *testing.T, store *cache.MemoryWalletStore, sessionID string, wallets ...model.EphemeralWallet) {
	t.Helper()
	ctx := context.Background()
	if err := store.RegisterSession(ctx, sessionID, "vault-1"); err != nil {
		t.Fatalf("failed to register session: %v", err)
	}
	for _, w := range wallets {
		if err := store.PutWallet(ctx, sessionID, w); err != nil {
			t.Fatalf("failed to seed wallet: %v", err)
		}
	}
}

func TestGetStatusAggregates(t *testing.T) {
	store := cache.NewMemoryWalletStore()
	seedSession(t, store, "s1",
		model.EphemeralWallet{Address: "w1", Status: model.WalletFunded, Balance: 0.05},
		model.EphemeralWallet{Address: "w2", Status: model.WalletSwept, Balance: 0},
		model.EphemeralWallet{Address: "w3", Status: model.WalletIdle, Balance: 0.0001},
	)

	svc := service.NewRecoveryService(store, newFakeTransfer(), nil, nil, 0, 0)
	status, err := svc.GetStatus(context.Background(), "s1")
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}

	if status.Summary.Total != len(status.Wallets) {
		t.Errorf("summary.total = %d, want %d", status.Summary.Total, len(status.Wallets))
	}
	if status.Summary.Total != 3 || status.Summary.Swept != 1 || status.Summary.NeedsRecovery != 1 {
		t.Errorf("unexpected summary: %+v", status.Summary)
	}
	// w3's balance is below the dust threshold and must not count as stranded
	if status.Summary.TotalStrandedBalance != 0.05 {
		t.Errorf("stranded balance = %f, want 0.05", status.Summary.TotalStrandedBalance)
	}
	if status.Wallets[0].Address != "w1" || status.Wallets[1].Address != "w2" || status.Wallets[2].Address != "w3" {
		t.Error("wallets must be reported in creation order")
	}
	if !status.Wallets[0].NeedsRecovery || status.Wallets[1].NeedsRecovery || status.Wallets[2].NeedsRecovery {
		t.Error("needs_recovery derivation is wrong")
	}
}

func TestGetStatusUnknownSession(t *testing.T) {
	svc := service.NewRecoveryService(cache.NewMemoryWalletStore(), newFakeTransfer(), nil, nil, 0, 0)
	_, err := svc.GetStatus(context.Background(), "ghost")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSweepThenStatusThenIdempotentResweep(t *testing.T) {
	store := cache.NewMemoryWalletStore()
	seedSession(t, store, "s1",
		model.EphemeralWallet{Address: "w1", Status: model.WalletFunded, Balance: 0.05},
		model.EphemeralWallet{Address: "w2", Status: model.WalletSwept, Balance: 0},
	)

	transfers := newFakeTransfer()
	svc := service.NewRecoveryService(store, transfers, nil, nil, 0, 0)

	results := svc.Sweep(context.Background(), "s1")
	if !results.Success {
		t.Fatalf("sweep failed: %s", results.Error)
	}
	if len(results.Results) != 1 || results.Results[0].Address != "w1" {
		t.Fatalf("expected exactly the funded wallet to be attempted, got %+v", results.Results)
	}
	if results.Summary.Total != 1 || results.Summary.Succeeded != 1 || results.Summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", results.Summary)
	}

	status, err := svc.GetStatus(context.Background(), "s1")
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if status.Wallets[0].Status != model.WalletSwept || status.Wallets[0].NeedsRecovery {
		t.Errorf("wallet w1 should be swept with needs_recovery false, got %+v", status.Wallets[0])
	}

	// Re-invoking on a fully recovered session is a no-op
	again := svc.Sweep(context.Background(), "s1")
	if !again.Success {
		t.Fatalf("idempotent re-sweep failed: %s", again.Error)
	}
	if again.Summary.Total != 0 || len(again.Results) != 0 {
		t.Errorf("re-sweep should attempt nothing, got %+v", again.Summary)
	}
	if transfers.callCount() != 1 {
		t.Errorf("expected 1 transfer in total, got %d", transfers.callCount())
	}
}

func TestSweepPartialFailure(t *testing.T) {
	store := cache.NewMemoryWalletStore()
	seedSession(t, store, "s1",
		model.EphemeralWallet{Address: "w1", Status: model.WalletFunded, Balance: 0.01},
		model.EphemeralWallet{Address: "w2", Status: model.WalletFunded, Balance: 0.02},
		model.EphemeralWallet{Address: "w3", Status: model.WalletFunded, Balance: 0.03},
	)

	transfers := newFakeTransfer()
	transfers.failFor["w2"] = errors.New("rpc timeout")
	svc := service.NewRecoveryService(store, transfers, nil, nil, 0, 0)

	results := svc.Sweep(context.Background(), "s1")
	if results.Success {
		t.Error("sweep with a failed wallet must not report success")
	}
	if results.Summary.Total != 3 || results.Summary.Succeeded != 2 || results.Summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", results.Summary)
	}

	// Results preserve input order even though transfers run concurrently
	for i, want := range []string{"w1", "w2", "w3"} {
		if results.Results[i].Address != want {
			t.Fatalf("result %d is %s, want %s", i, results.Results[i].Address, want)
		}
	}
	if results.Results[1].Success || results.Results[1].Error == "" {
		t.Errorf("w2 result should carry the failure: %+v", results.Results[1])
	}

	// The failed wallet stays recoverable with the attempt recorded
	w2, err := store.Get(context.Background(), "s1", "w2")
	if err != nil {
		t.Fatalf("failed to read w2: %v", err)
	}
	if w2.Status == model.WalletSwept {
		t.Error("failed wallet must not be marked swept")
	}
	if w2.SweepAttempts != 1 || w2.SweepError == "" || w2.LastSweepAttempt == nil {
		t.Errorf("failure not recorded on w2: %+v", w2)
	}
	if !w2.Recoverable(service.DefaultDustThreshold) {
		t.Error("failed wallet must still need recovery")
	}
}

func TestSweepUnknownSessionIsWholeCallFailure(t *testing.T) {
	svc := service.NewRecoveryService(cache.NewMemoryWalletStore(), newFakeTransfer(), nil, nil, 0, 0)

	results := svc.Sweep(context.Background(), "ghost")
	if results.Success {
		t.Error("sweep of an unknown session must fail")
	}
	if results.Error == "" {
		t.Error("whole-call failure must set the top-level error")
	}
	if results.Results != nil || results.Summary != nil {
		t.Error("whole-call failure must not fabricate partial data")
	}
}

func TestSweepRejectsConcurrentInvocation(t *testing.T) {
	store := cache.NewMemoryWalletStore()
	seedSession(t, store, "s1",
		model.EphemeralWallet{Address: "w1", Status: model.WalletFunded, Balance: 0.01},
	)

	transfers := newFakeTransfer()
	transfers.gate = make(chan struct{})
	svc := service.NewRecoveryService(store, transfers, nil, nil, 0, 0)

	done := make(chan *model.SweepResults, 1)
	go func() { done <- svc.Sweep(context.Background(), "s1") }()
	time.Sleep(50 * time.Millisecond)

	second := svc.Sweep(context.Background(), "s1")
	if second.Success || second.Error == "" {
		t.Errorf("concurrent sweep should be rejected as a normal failure, got %+v", second)
	}

	close(transfers.gate)
	first := <-done
	if !first.Success {
		t.Errorf("original sweep should complete successfully, got %+v", first)
	}
}

func TestSweepSchedulesSettleRefresh(t *testing.T) {
	store := cache.NewMemoryWalletStore()
	seedSession(t, store, "s1",
		model.EphemeralWallet{Address: "w1", Status: model.WalletFunded, Balance: 0.01},
	)

	broadcaster := &fakeBroadcaster{}
	svc := service.NewRecoveryService(store, newFakeTransfer(), nil, broadcaster, 0, 50*time.Millisecond)

	results := svc.Sweep(context.Background(), "s1")
	if !results.Success {
		t.Fatalf("sweep failed: %s", results.Error)
	}
	// The sweep returns before the refresh fires
	if broadcaster.recoveryCount() != 0 {
		t.Error("settle refresh must not block the sweep result")
	}

	time.Sleep(250 * time.Millisecond)
	if broadcaster.recoveryCount() != 1 {
		t.Errorf("expected 1 recovery broadcast after settle delay, got %d", broadcaster.recoveryCount())
	}
}
