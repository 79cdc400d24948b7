package replagent

import (
	"errors"
	"testing"

	"github.com/kvmesh/kvclient/kvstore"
)

func TestAdvertisePendingKeysSendsAndClearsDirty(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("v"), TTLMs: kvstore.TTLInfinite}
	at.dirty["k"] = struct{}{}

	a.advertisePendingKeys()

	if _, dirty := at.dirty["k"]; dirty {
		t.Fatal("expected dirty to be cleared after a successful advertise")
	}
	calls := store.lastSetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one Set call, got %d", len(calls))
	}
	v, ok := calls[0].vals["k"]
	if !ok || string(*v.Data) != "v" {
		t.Fatalf("expected the persisted value to be advertised, got %+v", calls[0].vals)
	}
}

func TestAdvertisePendingKeysNoOpOnEmptyDirty(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("v")}
	at.dirty["k"] = struct{}{}

	a.advertisePendingKeys() // drains dirty
	a.advertisePendingKeys() // nothing left to send

	if len(store.lastSetCalls()) != 1 {
		t.Fatal("expected no second Set call once dirty is drained")
	}
}

func TestAdvertisePendingKeysLeavesDirtyOnFailure(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("v")}
	at.dirty["k"] = struct{}{}
	store.setErr = errors.New("transport failure")

	a.advertisePendingKeys()

	if _, dirty := at.dirty["k"]; !dirty {
		t.Fatal("expected the key to remain dirty after a failed Set, to retry on the next tick")
	}
}
