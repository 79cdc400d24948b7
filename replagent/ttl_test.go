package replagent

import (
	"testing"
	"time"

	"github.com/kvmesh/kvclient/config"
	"github.com/kvmesh/kvclient/kvstore"
)

func TestScheduleTtlUpdatesInstallsBackoffAndAdvertisesImmediately(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")

	a.scheduleTtlUpdates("A", "k", 1, 0, 40, true)

	if _, ok := at.ttlBackoffs["k"]; !ok {
		t.Fatal("expected a ttl backoff entry to be installed")
	}
	calls := store.lastSetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected advertiseImmediately to send a ttl update right away, got %d calls", len(calls))
	}
	v := calls[0].vals["k"]
	if v.HasData() {
		t.Fatal("expected the ttl engine's own update to carry no value (P4)")
	}
	if v.TTLVersion != 1 {
		t.Fatalf("expected ttlVersion to be bumped to 1, got %d", v.TTLVersion)
	}
}

func TestScheduleTtlUpdatesErasesOnInfiniteTTL(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	a.scheduleTtlUpdates("A", "k", 1, 0, 40, true)

	a.scheduleTtlUpdates("A", "k", 1, 1, config.TTLInfinite, false)

	if _, ok := at.ttlBackoffs["k"]; ok {
		t.Fatal("expected ttl backoff to be erased for an infinite ttl")
	}
}

func TestScheduleTtlUpdatesDelaysWhenNotImmediate(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	a.scheduleTtlUpdates("A", "k", 1, 0, 40, false)

	if len(store.lastSetCalls()) != 0 {
		t.Fatal("expected no immediate ttl update when advertiseImmediately is false")
	}
}

func TestAdvertiseTtlUpdatesAdoptsRacedLocalWrite(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	a.scheduleTtlUpdates("A", "k", 1, 0, 40, false)

	at.persisted["k"] = kvstore.Value{Version: 3, OriginatorId: "N1", Data: dataPtr("v"), TTLVersion: 2}

	time.Sleep(15 * time.Millisecond) // let the quarter-ttl backoff arm
	a.advertiseTtlUpdates()

	calls := store.lastSetCalls()
	if len(calls) == 0 {
		t.Fatal("expected a ttl update once the backoff allows it")
	}
	last := calls[len(calls)-1].vals["k"]
	if last.Version != 3 {
		t.Fatalf("expected the ttl value to adopt the raced persisted version 3, got %d", last.Version)
	}
}
