package backoff

import (
	"testing"
	"time"
)

func TestCanTryNowInitiallyTrue(t *testing.T) {
	b := New(10*time.Millisecond, time.Second)
	if !b.CanTryNow(time.Now()) {
		t.Fatal("expected CanTryNow to be true before any ReportError")
	}
}

func TestReportErrorDoublesAndCaps(t *testing.T) {
	b := New(10*time.Millisecond, 35*time.Millisecond)
	now := time.Now()

	b.ReportError(now)
	if got := b.TimeUntilRetry(now); got != 20*time.Millisecond {
		t.Fatalf("expected 20ms after first ReportError, got %v", got)
	}

	b.ReportError(now)
	if got := b.TimeUntilRetry(now); got != 35*time.Millisecond {
		t.Fatalf("expected delay capped at max (35ms), got %v", got)
	}
}

func TestCanTryNowFalseWhileArmed(t *testing.T) {
	b := New(10*time.Millisecond, time.Second)
	now := time.Now()
	b.ReportError(now)

	if b.CanTryNow(now) {
		t.Fatal("expected CanTryNow to be false immediately after ReportError")
	}
	if !b.CanTryNow(now.Add(25 * time.Millisecond)) {
		t.Fatal("expected CanTryNow to be true once the delay has elapsed")
	}
}

func TestReportSuccessResets(t *testing.T) {
	b := New(10*time.Millisecond, time.Second)
	now := time.Now()
	b.ReportError(now)
	b.ReportError(now)

	b.ReportSuccess()

	if !b.CanTryNow(now) {
		t.Fatal("expected CanTryNow to be true right after ReportSuccess")
	}
	b.ReportError(now)
	if got := b.TimeUntilRetry(now); got != 20*time.Millisecond {
		t.Fatalf("expected delay to restart from initial (10ms, doubled to 20ms), got %v", got)
	}
}

func TestDeadlinePassed(t *testing.T) {
	b := New(10*time.Millisecond, time.Second)
	now := time.Now()
	b.ReportError(now)

	if b.DeadlinePassed(now) {
		t.Fatal("deadline should not be passed immediately")
	}
	if !b.DeadlinePassed(now.Add(time.Second)) {
		t.Fatal("deadline should be passed well after the delay")
	}
}
