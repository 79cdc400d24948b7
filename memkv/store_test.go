package memkv

import (
	"context"
	"testing"
	"time"

	"github.com/kvmesh/kvclient/kvstore"
)

func TestSetAndGetRoundTrip(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	data := []byte("v1")
	err := s.Set(ctx, "A", map[string]kvstore.Value{
		"k": {Version: 1, OriginatorId: "N1", Data: &data, TTLMs: kvstore.TTLInfinite},
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	pub, err := s.Get(ctx, "A", []string{"k", "missing"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	v, ok := pub.KeyVals["k"]
	if !ok {
		t.Fatal("expected k to be present")
	}
	if v.Version != 1 || v.OriginatorId != "N1" || string(*v.Data) != "v1" {
		t.Fatalf("unexpected value: %+v", v)
	}
	if _, ok := pub.KeyVals["missing"]; ok {
		t.Fatal("expected missing key to be absent from the publication")
	}
}

func TestDumpFiltersByPrefix(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	data := []byte("x")
	if err := s.Set(ctx, "A", map[string]kvstore.Value{
		"prefix/a": {Version: 1, OriginatorId: "N1", Data: &data, TTLMs: kvstore.TTLInfinite},
		"other/b":  {Version: 1, OriginatorId: "N1", Data: &data, TTLMs: kvstore.TTLInfinite},
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	pubs, err := s.Dump(ctx, []kvstore.AreaId{"A"}, kvstore.DumpParams{Prefix: "prefix/"})
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected one publication, got %d", len(pubs))
	}
	if _, ok := pubs[0].KeyVals["prefix/a"]; !ok {
		t.Fatal("expected prefix/a to match")
	}
	if _, ok := pubs[0].KeyVals["other/b"]; ok {
		t.Fatal("expected other/b to be filtered out")
	}
}

func TestUpdatesReaderReceivesSets(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	reader, err := s.GetUpdatesReader(ctx)
	if err != nil {
		t.Fatalf("GetUpdatesReader: %v", err)
	}
	defer reader.Close()

	data := []byte("v1")
	if err := s.Set(ctx, "A", map[string]kvstore.Value{
		"k": {Version: 1, OriginatorId: "N1", Data: &data, TTLMs: kvstore.TTLInfinite},
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	readCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	pub, err := reader.Next(readCtx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if pub.Area != "A" {
		t.Fatalf("expected area A, got %s", pub.Area)
	}
	if _, ok := pub.KeyVals["k"]; !ok {
		t.Fatal("expected the set to be published to the reader")
	}
}

func TestShortTTLEventuallyExpires(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	reader, err := s.GetUpdatesReader(ctx)
	if err != nil {
		t.Fatalf("GetUpdatesReader: %v", err)
	}
	defer reader.Close()

	data := []byte("v1")
	if err := s.Set(ctx, "A", map[string]kvstore.Value{
		"k": {Version: 1, OriginatorId: "N1", Data: &data, TTLMs: 50},
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		readCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		pub, err := reader.Next(readCtx)
		cancel()
		if err != nil {
			continue
		}
		for _, k := range pub.ExpiredKeys {
			if k == "k" {
				return
			}
		}
	}
	t.Fatal("expected key k to eventually be reported expired")
}
