package app_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"sweepDeskApp/internal/app"
	"sweepDeskApp/internal/app/dto"
	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/service"
)

// MockBroadcaster implements the Broadcaster interface for testing
type MockBroadcaster struct {
	validations []*model.SessionValidation
	mu          sync.Mutex
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{validations: make([]*model.SessionValidation, 0)}
}

func (b *MockBroadcaster) BroadcastValidation(v *model.SessionValidation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validations = append(b.validations, v)
}

func (b *MockBroadcaster) BroadcastRecovery(status *model.RecoveryStatus) {}

func (b *MockBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(http.ResponseWriter, *http.Request) {}
}

func (b *MockBroadcaster) GetValidations() []*model.SessionValidation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validations
}

func TestEventProcessor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventCh := make(chan *dto.SessionEvent, 10)
	controller := service.NewValidationController()
	broadcaster := NewMockBroadcaster()

	processor := app.NewEventProcessor(eventCh, controller, broadcaster)
	go processor.Run(ctx)

	now := time.Now()
	eventCh <- &dto.SessionEvent{
		ID: "e1", Type: dto.EventSessionRegistered, SessionID: "s1",
		Status: model.SessionActive, Balance: 0.05, Timestamp: now,
	}
	eventCh <- &dto.SessionEvent{
		ID: "e2", Type: dto.EventBalanceChanged, SessionID: "s1",
		Balance: 0.0005, Timestamp: now,
	}

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	v, ok := controller.Current("s1")
	if !ok {
		t.Fatal("session s1 should be tracked after the registered event")
	}
	if v.Pause.CanProceed {
		t.Error("pause should be blocked after the critical balance trigger")
	}

	// Pause-flag trigger
	eventCh <- &dto.SessionEvent{
		ID: "e3", Type: dto.EventPauseChanged, SessionID: "s1",
		IsPaused: true, Timestamp: now,
	}
	time.Sleep(100 * time.Millisecond)

	v, _ = controller.Current("s1")
	if v.Pause.CanProceed {
		t.Error("pause should stay blocked while paused")
	}
	if !v.Stop.CanProceed {
		t.Error("stop should remain legal")
	}

	// Test deduplication: replaying e2 with a healthy balance must be ignored
	eventCh <- &dto.SessionEvent{
		ID: "e2", Type: dto.EventBalanceChanged, SessionID: "s1",
		Balance: 1.0, Timestamp: now,
	}
	time.Sleep(100 * time.Millisecond)

	v, _ = controller.Current("s1")
	if v.Resume.CanProceed {
		t.Error("duplicate event must not have been applied (balance is still critical)")
	}

	// Verify broadcasts happened for each applied trigger
	if got := len(broadcaster.GetValidations()); got != 3 {
		t.Errorf("expected 3 validation broadcasts, got %d", got)
	}
}

// fakeAcker records committed event ids.
type fakeAcker struct {
	mu        sync.Mutex
	committed []string
}

func (a *fakeAcker) Commit(ctx context.Context, event *dto.SessionEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.committed = append(a.committed, event.ID)
	return nil
}

func (a *fakeAcker) committedIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.committed...)
}

func TestEventProcessorAcksHandledEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventCh := make(chan *dto.SessionEvent, 10)
	acker := &fakeAcker{}
	processor := app.NewEventProcessor(eventCh, service.NewValidationController(), NewMockBroadcaster())
	processor.Acker = acker
	go processor.Run(ctx)

	eventCh <- &dto.SessionEvent{
		ID: "e1", Type: dto.EventSessionRegistered, SessionID: "s1",
		Status: model.SessionActive, Balance: 0.05,
	}
	eventCh <- &dto.SessionEvent{
		ID: "e2", Type: dto.EventBalanceChanged, SessionID: "s1", Balance: 0.02,
	}
	// A trigger for an untracked session is dropped but still handled, so
	// its offset must be committed too
	eventCh <- &dto.SessionEvent{
		ID: "e3", Type: dto.EventBalanceChanged, SessionID: "ghost", Balance: 1,
	}
	time.Sleep(100 * time.Millisecond)

	got := acker.committedIDs()
	if len(got) != 3 {
		t.Fatalf("expected 3 committed events, got %d (%v)", len(got), got)
	}
	for i, want := range []string{"e1", "e2", "e3"} {
		if got[i] != want {
			t.Errorf("committed[%d] = %s, want %s", i, got[i], want)
		}
	}
}

func TestEventProcessorDropsUntrackedTriggers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventCh := make(chan *dto.SessionEvent, 10)
	controller := service.NewValidationController()
	broadcaster := NewMockBroadcaster()

	processor := app.NewEventProcessor(eventCh, controller, broadcaster)
	go processor.Run(ctx)

	eventCh <- &dto.SessionEvent{ID: "e1", Type: dto.EventBalanceChanged, SessionID: "ghost", Balance: 1}
	time.Sleep(100 * time.Millisecond)

	if len(broadcaster.GetValidations()) != 0 {
		t.Error("triggers for untracked sessions must not broadcast")
	}
}
