package memkv

import (
	"testing"

	"github.com/kvmesh/kvclient/lib/db"
	"github.com/kvmesh/kvclient/lib/db/engines/maple"
	dbtesting "github.com/kvmesh/kvclient/lib/db/testing"
)

// TestMapleEngineConformance exercises the maple engine memkv is built
// on with the donor's own generic KVDB conformance suite, so a memkv
// failure can be triaged against "is this a memkv bug or a storage
// engine bug" quickly.
func TestMapleEngineConformance(t *testing.T) {
	dbtesting.RunKVDBTests(t, "maple", func() db.KVDB {
		return maple.NewMapleDB(nil)
	})
}
