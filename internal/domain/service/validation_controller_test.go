package service_test

import (
	"testing"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/service"
)

func TestControllerRegisterAndCurrent(t *testing.T) {
	c := service.NewValidationController()

	if _, ok := c.Current("missing"); ok {
		t.Fatal("expected no validation for an untracked session")
	}

	v := c.RegisterSession(model.Session{ID: "s1", Status: model.SessionActive, Balance: 0.05})
	if !v.Pause.CanProceed {
		t.Error("pause should be legal after registering a funded active session")
	}

	current, ok := c.Current("s1")
	if !ok {
		t.Fatal("expected a current validation after registration")
	}
	if current.Pause.CanProceed != v.Pause.CanProceed {
		t.Error("Current should return the registered validation")
	}
}

func TestControllerBalanceTrigger(t *testing.T) {
	c := service.NewValidationController()
	c.RegisterSession(model.Session{ID: "s1", Status: model.SessionActive, Balance: 0.05})

	// Dropping below the minimum trade amount invalidates pause
	v, ok := c.BalanceChanged("s1", 0.0005)
	if !ok {
		t.Fatal("balance trigger for a tracked session should apply")
	}
	if v.Pause.CanProceed {
		t.Error("pause should be blocked after balance fell to critical")
	}
	if v.Pause.Error == nil || v.Pause.Error.Reason != model.BlockInsufficientBalance {
		t.Errorf("pause block reason = %v, want insufficient_balance", v.Pause.Error)
	}

	// Recovery of the balance re-enables pause
	v, _ = c.BalanceChanged("s1", 0.02)
	if !v.Pause.CanProceed {
		t.Error("pause should be legal again after balance recovered")
	}
}

func TestControllerPauseFlagTrigger(t *testing.T) {
	c := service.NewValidationController()
	c.RegisterSession(model.Session{ID: "s1", Status: model.SessionActive, Balance: 0.05})

	v, ok := c.PauseFlagChanged("s1", true)
	if !ok {
		t.Fatal("pause-flag trigger for a tracked session should apply")
	}
	if !v.Resume.CanProceed {
		t.Error("resume should be legal after pausing a funded session")
	}
	if v.Pause.CanProceed {
		t.Error("pause should be blocked while paused")
	}

	v, _ = c.PauseFlagChanged("s1", false)
	if !v.Pause.CanProceed {
		t.Error("pause should be legal after unpausing")
	}
	if v.Resume.CanProceed {
		t.Error("resume should be blocked after unpausing")
	}
}

func TestControllerIgnoresUntrackedAndMalformedTriggers(t *testing.T) {
	c := service.NewValidationController()

	if _, ok := c.BalanceChanged("ghost", 1.0); ok {
		t.Error("balance trigger for an unknown session must not apply")
	}
	if _, ok := c.PauseFlagChanged("ghost", true); ok {
		t.Error("pause trigger for an unknown session must not apply")
	}

	c.RegisterSession(model.Session{ID: "s1", Status: model.SessionActive, Balance: 0.05})
	if _, ok := c.BalanceChanged("s1", -5); ok {
		t.Error("negative balance trigger must be rejected")
	}

	// The previous validation is still served untouched
	v, ok := c.Current("s1")
	if !ok || !v.Pause.CanProceed {
		t.Error("rejected trigger must not disturb the stored validation")
	}
}

func TestControllerTerminalSessionStaysTerminal(t *testing.T) {
	c := service.NewValidationController()
	c.RegisterSession(model.Session{ID: "s1", Status: model.SessionStopped, Balance: 0.05})

	v, ok := c.PauseFlagChanged("s1", false)
	if !ok {
		t.Fatal("trigger should apply to a tracked terminal session")
	}
	for name, result := range map[string]model.ValidationResult{
		"pause": v.Pause, "resume": v.Resume, "stop": v.Stop,
	} {
		if result.CanProceed {
			t.Errorf("%s must remain blocked for a stopped session", name)
		}
	}
}

// A rapid trigger sequence must leave the last-issued result as current.
func TestControllerLatestTriggerWins(t *testing.T) {
	c := service.NewValidationController()
	c.RegisterSession(model.Session{ID: "s1", Status: model.SessionActive, Balance: 0.05})

	for i := 0; i < 100; i++ {
		c.BalanceChanged("s1", 0.0005)
		c.BalanceChanged("s1", 0.05)
	}

	v, ok := c.Current("s1")
	if !ok {
		t.Fatal("expected a current validation")
	}
	if !v.Pause.CanProceed {
		t.Error("current validation must reflect the last-issued balance")
	}
}
