package replagent

import (
	"testing"

	"github.com/kvmesh/kvclient/backoff"
	"github.com/kvmesh/kvclient/kvstore"
)

func TestProcessKeyConflictDefence(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("mine"), TTLMs: kvstore.TTLInfinite}
	at.advertBackoffs["k"] = backoff.New(a.cfg.InitialBackoff, a.cfg.MaxBackoff)

	rcvd := kvstore.Value{Version: 1, OriginatorId: "N2", Data: dataPtr("theirs")}
	a.processKey(at, "A", "k", rcvd)

	cur := at.persisted["k"]
	if cur.Version != 2 || cur.OriginatorId != "N1" || string(*cur.Data) != "mine" || cur.TTLVersion != 0 {
		t.Fatalf("unexpected persisted value after conflict: %+v", cur)
	}
	if _, dirty := at.dirty["k"]; !dirty {
		t.Fatal("expected key to be marked dirty after a defended conflict")
	}
}

func TestProcessKeyStaleEchoIgnored(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 5, OriginatorId: "N1", Data: dataPtr("v")}

	var called bool
	at.keyCallbacks["k"] = func(string, *kvstore.Value) { called = true }

	rcvd := kvstore.Value{Version: 4, OriginatorId: "N2", Data: dataPtr("x")}
	a.processKey(at, "A", "k", rcvd)

	if cur := at.persisted["k"]; cur.Version != 5 {
		t.Fatalf("expected stale echo to be ignored, version changed to %d", cur.Version)
	}
	if called {
		t.Fatal("expected no callback for a stale echo")
	}
	if _, dirty := at.dirty["k"]; dirty {
		t.Fatal("expected no dirty entry for a stale echo")
	}
}

func TestProcessKeyTTLOnlySkipsFurtherProcessing(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	at.persisted["k"] = kvstore.Value{Version: 1, OriginatorId: "N1", Data: dataPtr("v")}

	rcvd := kvstore.Value{Version: 2, OriginatorId: "N2"} // Data == nil: ttl-only
	a.processKey(at, "A", "k", rcvd)

	if cur := at.persisted["k"]; cur.Version != 1 {
		t.Fatalf("expected a ttl-only publication to skip further processing, version changed to %d", cur.Version)
	}
}

func TestProcessKeyIdempotentRepublishFiresNoCallback(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	val := kvstore.Value{Version: 3, OriginatorId: "N1", Data: dataPtr("v"), TTLVersion: 2}
	at.persisted["k"] = val

	var called bool
	at.keyCallbacks["k"] = func(string, *kvstore.Value) { called = true }

	a.processKey(at, "A", "k", val)

	if called {
		t.Fatal("expected republishing the exact local value to fire no callback (P5)")
	}
}

func TestProcessKeyNotPersistedFiresCallbackOnly(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")

	var gotKey string
	var gotVal *kvstore.Value
	at.keyCallbacks["k"] = func(key string, value *kvstore.Value) { gotKey = key; gotVal = value }

	rcvd := kvstore.Value{Version: 1, OriginatorId: "N2", Data: dataPtr("v")}
	a.processKey(at, "A", "k", rcvd)

	if gotKey != "k" || gotVal == nil || string(*gotVal.Data) != "v" {
		t.Fatalf("expected the per-key callback to fire for an untracked key, got key=%q val=%+v", gotKey, gotVal)
	}
	if _, persisted := at.persisted["k"]; persisted {
		t.Fatal("expected an untracked key to remain out of persisted")
	}
}

func TestProcessKeyTTLOnlyReconciliationDropsLostKey(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")
	at := a.areaOf("A")
	a.scheduleTtlUpdates("A", "k", 1, 0, 40, false)

	rcvd := kvstore.Value{Version: 2, OriginatorId: "N2", Data: dataPtr("v")}
	a.processKey(at, "A", "k", rcvd)

	if _, ok := at.ttlBackoffs["k"]; ok {
		t.Fatal("expected a beaten ttl-only tracked key to stop being refreshed")
	}
}

func TestProcessPublicationFiresGlobalCallbackAndExpiry(t *testing.T) {
	a, _ := newTestAgentNoLoop("N1")

	var globalCalls []string
	a.globalCallback = func(key string, value *kvstore.Value) { globalCalls = append(globalCalls, key) }

	pub := kvstore.Publication{
		Area:        "A",
		KeyVals:     map[string]kvstore.Value{"k1": {Version: 1, OriginatorId: "N2", Data: dataPtr("v")}},
		ExpiredKeys: []string{"k2"},
	}
	a.processPublication(pub)

	if len(globalCalls) != 2 {
		t.Fatalf("expected the global callback to fire for both the keyval and the expiry, got %v", globalCalls)
	}
}
