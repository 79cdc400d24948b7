package replagent

import (
	"errors"
	"testing"

	"github.com/kvmesh/kvclient/kvstore"
)

func TestCheckPersistKeyInStoreRecoversMissingKey(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	val := kvstore.Value{Version: 4, OriginatorId: "N1", Data: dataPtr("v"), TTLMs: kvstore.TTLInfinite}
	at.persisted["k"] = val
	// the fake store never received it - simulates a silent drop

	a.checkPersistKeyInStore()

	calls := store.lastSetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one recovery Set call, got %d", len(calls))
	}
	v, ok := calls[0].vals["k"]
	if !ok || v.Version != 4 {
		t.Fatalf("expected the recovery set to carry the persisted value, got %+v", calls[0].vals)
	}
}

func TestCheckPersistKeyInStoreSkipsSurvivingKeys(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	val := kvstore.Value{Version: 4, OriginatorId: "N1", Data: dataPtr("v")}
	at.persisted["k"] = val
	store.data["A"] = map[string]kvstore.Value{"k": val}

	a.checkPersistKeyInStore()

	if len(store.lastSetCalls()) != 0 {
		t.Fatal("expected no recovery set for a key the store still has")
	}
}

func TestCheckPersistKeyInStoreReconcilesViaProcessor(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("mine")}
	store.data["A"] = map[string]kvstore.Value{
		"k": {Version: 1, OriginatorId: "N2", Data: dataPtr("theirs")},
	}

	a.checkPersistKeyInStore()

	cur := at.persisted["k"]
	if cur.Version != 2 || cur.OriginatorId != "N1" {
		t.Fatalf("expected the sweep's fetched publication to be reconciled by the processor, got %+v", cur)
	}
}

func TestCheckPersistKeyInStoreSkipsAreaOnFetchFailure(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("v")}
	store.getErr = errors.New("transport failure")

	a.checkPersistKeyInStore()

	if len(store.lastSetCalls()) != 0 {
		t.Fatal("expected no Set call when the fetch itself fails")
	}
}
