package kvstore

import "context"

// DumpParams narrows a dump to keys matching prefix and/or an explicit key
// set. An empty DumpParams dumps everything in the requested areas.
type DumpParams struct {
	Prefix string
	Keys   []string
}

// Client is the store client contract the agent consumes. The replicated
// store itself, its network/serialization framing, and its own
// consistency protocol are external collaborators behind this interface -
// the agent never reaches past it.
//
// All methods are safe to call concurrently; the store client handle is
// treated as thread-safe by contract (see package eventloop for how the
// agent itself serializes access to its own state around these calls).
type Client interface {
	// Get is a synchronous read for the listed keys in area.
	Get(ctx context.Context, area AreaId, keys []string) (Publication, error)

	// Dump is a snapshot read across areas, filtered by params. The agent
	// consumes only the first publication of the first area, per
	// spec - callers needing more should call Get per-area instead.
	Dump(ctx context.Context, areas []AreaId, params DumpParams) ([]Publication, error)

	// Set writes keyVals into area. It may fail transiently; callers are
	// responsible for retry policy (the agent's advertise/ttl/sweep
	// engines own that).
	Set(ctx context.Context, area AreaId, keyVals map[string]Value) error

	// GetUpdatesReader returns a reader that produces an indefinite
	// sequence of publications until the returned reader hits a
	// terminal error, per spec.md §6. Implementations that cannot offer
	// a push feed (e.g. a plain request/response RPC transport) return
	// ErrStreamingUnsupported.
	GetUpdatesReader(ctx context.Context) (UpdatesReader, error)
}

// UpdatesReader is the indefinite inbound publication sequence. A
// terminal error from Next (any non-nil error) signals the feed is done;
// callers must not call Next again afterwards.
type UpdatesReader interface {
	Next(ctx context.Context) (Publication, error)
	Close() error
}
