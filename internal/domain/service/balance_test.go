package service_test

import (
	"errors"
	"testing"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/service"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		name    string
		balance float64
		want    model.BalanceStatus
	}{
		{"zero", 0, model.BalanceCritical},
		{"below min trade", 0.0005, model.BalanceCritical},
		{"just under min trade", 0.0009999, model.BalanceCritical},
		{"exactly min trade", 0.001, model.BalanceLow},
		{"between thresholds", 0.0025, model.BalanceLow},
		{"just under min required", 0.004, model.BalanceLow},
		{"exactly min required", service.MinRequired, model.BalanceGood},
		{"well funded", 0.05, model.BalanceGood},
	}

	for _, tc := range cases {
		check, err := service.Classify(tc.balance)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if check.Status != tc.want {
			t.Errorf("%s: balance %f classified as %s, want %s", tc.name, tc.balance, check.Status, tc.want)
		}
		if check.Message == "" {
			t.Errorf("%s: expected a message", tc.name)
		}
	}
}

func TestClassifyRejectsNegativeBalance(t *testing.T) {
	_, err := service.Classify(-0.001)
	if err == nil {
		t.Fatal("expected error for negative balance")
	}
	if !errors.Is(err, model.ErrMalformedInput) {
		t.Errorf("expected malformed-input error, got %v", err)
	}
}

// Classification must be monotonic: raising the balance never lowers the class.
func TestClassifyMonotonic(t *testing.T) {
	rank := map[model.BalanceStatus]int{
		model.BalanceCritical: 0,
		model.BalanceLow:      1,
		model.BalanceGood:     2,
	}

	prev := -1
	for _, b := range []float64{0, 0.0002, 0.0009, 0.001, 0.002, 0.004, service.MinRequired, 0.01, 1.0} {
		check, err := service.Classify(b)
		if err != nil {
			t.Fatalf("unexpected error at %f: %v", b, err)
		}
		if rank[check.Status] < prev {
			t.Errorf("classification regressed at balance %f: %s", b, check.Status)
		}
		prev = rank[check.Status]
	}
}
