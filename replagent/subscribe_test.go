package replagent

import (
	"testing"

	"github.com/kvmesh/kvclient/config"
	"github.com/kvmesh/kvclient/kvstore"
)

func TestPersistKeyFirstPersistence(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	var changed bool
	var err error
	syncSubmit(a, func() {
		changed, err = a.PersistKey("A", "k", []byte("v1"), 40)
	})
	if err != nil || !changed {
		t.Fatalf("expected first persistence to report a change, got changed=%v err=%v", changed, err)
	}

	calls := store.lastSetCalls()
	if len(calls) == 0 {
		t.Fatal("expected an advertise Set call")
	}
	v := calls[0].vals["k"]
	if v.Version != 1 || v.OriginatorId != "N1" || string(*v.Data) != "v1" {
		t.Fatalf("unexpected first-persistence value: %+v", v)
	}
}

func TestPersistKeyNoOpReturnsFalse(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	syncSubmit(a, func() { a.PersistKey("A", "k", []byte("v"), 30000) })

	store.mu.Lock()
	store.setCalls = nil
	store.mu.Unlock()

	var changed bool
	syncSubmit(a, func() {
		changed, _ = a.PersistKey("A", "k", []byte("v"), 30000)
	})
	if changed {
		t.Fatal("expected an identical second persistKey call to be a no-op")
	}
	if len(store.lastSetCalls()) != 0 {
		t.Fatal("expected no outbound Set from a no-op persist")
	}
}

func TestUnsetThenClearKey(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	syncSubmit(a, func() { a.PersistKey("A", "k", []byte("v"), config.TTLInfinite) })

	var err error
	syncSubmit(a, func() {
		err = a.ClearKey("A", "k", []byte(""), config.TTLInfinite)
	})
	if err != nil {
		t.Fatalf("ClearKey: %v", err)
	}

	var tracked bool
	syncSubmit(a, func() {
		_, tracked = a.areaOf("A").persisted["k"]
	})
	if tracked {
		t.Fatal("expected ClearKey to remove local tracking for the key")
	}

	calls := store.lastSetCalls()
	last := calls[len(calls)-1].vals["k"]
	if last.Version != 2 || string(*last.Data) != "" {
		t.Fatalf("expected a final version-bumped empty-value set, got %+v", last)
	}
}

func TestSetKeyUsesCurrentVersionPlusOne(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	store.data["A"] = map[string]kvstore.Value{"k": {Version: 5, OriginatorId: "N2", Data: dataPtr("old")}}
	go a.loop.Run()
	defer a.loop.Stop()

	var err error
	syncSubmit(a, func() {
		err = a.SetKey("A", "k", []byte("new"), 0, config.TTLInfinite)
	})
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}

	v, _ := store.snapshot("A", "k")
	if v.Version != 6 || string(*v.Data) != "new" {
		t.Fatalf("expected SetKey to bump version to 6, got %+v", v)
	}

	var tracked bool
	syncSubmit(a, func() {
		_, tracked = a.areaOf("A").persisted["k"]
	})
	if tracked {
		t.Fatal("expected SetKey not to add the key to persisted")
	}
}

func TestSetKeyUsesExplicitVersion(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	syncSubmit(a, func() {
		_ = a.SetKey("A", "k", []byte("v"), 9, config.TTLInfinite)
	})

	v, _ := store.snapshot("A", "k")
	if v.Version != 9 {
		t.Fatalf("expected an explicit version to be sent as-is, got %d", v.Version)
	}
}

func TestSubscribeKeyFetchReturnsCurrentValue(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	store.data["A"] = map[string]kvstore.Value{"k": {Version: 2, OriginatorId: "N2", Data: dataPtr("v")}}
	go a.loop.Run()
	defer a.loop.Stop()

	var got *kvstore.Value
	var err error
	syncSubmit(a, func() {
		got, err = a.SubscribeKey("A", "k", func(string, *kvstore.Value) {}, true)
	})
	if err != nil {
		t.Fatalf("SubscribeKey: %v", err)
	}
	if got == nil || got.Version != 2 {
		t.Fatalf("expected fetch to return the current store value, got %+v", got)
	}
}

func TestSubscribeKeyFilterFiresOnMatch(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	var got string
	syncSubmit(a, func() {
		a.SubscribeKeyFilter(kvstore.NewFilters(nil, []string{"pfx/"}), func(key string, value *kvstore.Value) {
			got = key
		})
	})

	rcvd := kvstore.Value{Version: 1, OriginatorId: "N2", Data: dataPtr("v")}
	syncSubmit(a, func() {
		at := a.areaOf("A")
		a.processKey(at, "A", "pfx/k", rcvd)
	})

	if got != "pfx/k" {
		t.Fatalf("expected the prefix filter callback to fire for a matching key, got %q", got)
	}
}

func TestUnsubscribeKeyFilterStopsDispatch(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	var calls int
	syncSubmit(a, func() {
		a.SubscribeKeyFilter(kvstore.NewFilters(nil, []string{"pfx/"}), func(string, *kvstore.Value) { calls++ })
		a.UnsubscribeKeyFilter()
	})

	rcvd := kvstore.Value{Version: 1, OriginatorId: "N2", Data: dataPtr("v")}
	syncSubmit(a, func() {
		at := a.areaOf("A")
		a.processKey(at, "A", "pfx/k", rcvd)
	})

	if calls != 0 {
		t.Fatalf("expected no prefix callback dispatch after unsubscribing, got %d calls", calls)
	}
}

func TestPersistKeysBatchSendsOneAdvertise(t *testing.T) {
	a, store := newTestAgentNoLoop("N1")
	go a.loop.Run()
	defer a.loop.Stop()

	var changed map[string]bool
	var err error
	syncSubmit(a, func() {
		changed, err = a.PersistKeys("A", map[string][]byte{"k1": []byte("v1"), "k2": []byte("v2")}, config.TTLInfinite)
	})
	if err != nil {
		t.Fatalf("PersistKeys: %v", err)
	}
	if !changed["k1"] || !changed["k2"] {
		t.Fatalf("expected both keys to report a change, got %v", changed)
	}

	calls := store.lastSetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected a single batched advertise Set, got %d", len(calls))
	}
	if len(calls[0].vals) != 2 {
		t.Fatalf("expected both keys in the one batched Set, got %+v", calls[0].vals)
	}
}
