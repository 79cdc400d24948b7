package replagent

import (
	"context"
	"testing"
	"time"

	"github.com/kvmesh/kvclient/config"
	"github.com/kvmesh/kvclient/kvstore"
)

func TestAgentConflictDefenceEndToEnd(t *testing.T) {
	store := newFakeStore()
	cfg := config.Default("N1")
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.MaxBackoff = 30 * time.Millisecond
	cfg.SweepPeriod = 0
	a := New(cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop()

	syncSubmit(a, func() {
		if _, err := a.PersistKey("A", "k", []byte("mine"), config.TTLInfinite); err != nil {
			t.Errorf("PersistKey: %v", err)
		}
	})

	store.inject(kvstore.Publication{
		Area: "A",
		KeyVals: map[string]kvstore.Value{
			"k": {Version: 1, OriginatorId: "N2", Data: dataPtr("theirs")},
		},
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if v, ok := store.snapshot("A", "k"); ok && v.Version == 2 && v.OriginatorId == "N1" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the agent to defend its persisted value against a conflicting remote write")
}

func TestAgentSweepRecoversLossEndToEnd(t *testing.T) {
	store := newFakeStore()
	cfg := config.Default("N1")
	cfg.SweepPeriod = 20 * time.Millisecond
	a := New(cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop()

	syncSubmit(a, func() {
		if _, err := a.PersistKey("A", "k", []byte("v"), config.TTLInfinite); err != nil {
			t.Errorf("PersistKey: %v", err)
		}
	})
	store.deleteKey("A", "k")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := store.snapshot("A", "k"); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the sweep engine to re-advertise a silently dropped key")
}

func TestAgentStartToleratesUnsupportedStreaming(t *testing.T) {
	store := newFakeStore()
	store.streamErr = kvstore.ErrStreamingUnsupported
	a := New(config.Default("N1"), store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("expected Start to tolerate an unsupported streaming feed, got %v", err)
	}
	defer a.Stop()

	var err error
	syncSubmit(a, func() {
		_, err = a.PersistKey("A", "k", []byte("v"), config.TTLInfinite)
	})
	if err != nil {
		t.Fatalf("expected local API calls to keep working without an inbound feed: %v", err)
	}
}

func TestAgentStopJoinsInboundReader(t *testing.T) {
	store := newFakeStore()
	a := New(config.Default("N1"), store)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Stop to return")
	}
}

func TestSafeCallSuppressesPanic(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	cb := Callback(func(string, *kvstore.Value) { panic("boom") })

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("expected safeCall to suppress the panic, got %v", r)
		}
	}()
	a.safeCall(cb, "k", nil)
}
