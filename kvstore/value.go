package kvstore

// TTLInfinite marks a Value as never expiring; no ttl refresh is scheduled
// for it. Implementations read this from config, never hardcode it - see
// package config.
const TTLInfinite int64 = -1

// Value is the versioned tuple exchanged with the replicated store.
//
// Data is a tagged-absence field: a nil pointer means "ttl-only update",
// not "empty value". A non-nil pointer to a zero-length slice is a
// legitimate empty value. This mirrors the sum-type Present/Absent design
// the agent's conflict-resolution logic depends on - see Value.HasData.
type Value struct {
	Version      uint32
	OriginatorId string
	Data         *[]byte
	TTLMs        int64
	TTLVersion   uint32
	// Hash is informational only. Writers set it to 0; readers ignore it.
	Hash uint64
}

// HasData reports whether this Value carries an actual value, as opposed
// to being a ttl-only refresh.
func (v Value) HasData() bool {
	return v.Data != nil
}

// WithData returns a copy of v carrying the given bytes.
func WithData(v Value, data []byte) Value {
	v.Data = &data
	return v
}

// WithoutData returns a copy of v with its Data cleared, suitable for a
// ttl-only update.
func WithoutData(v Value) Value {
	v.Data = nil
	return v
}

// compareTo implements the strict total conflict order: version, then
// originatorId lexicographically, then ttlVersion. It returns a negative
// number if v sorts before other, 0 if equal, positive if after.
func (v Value) compareTo(other Value) int {
	if v.Version != other.Version {
		if v.Version < other.Version {
			return -1
		}
		return 1
	}
	if v.OriginatorId != other.OriginatorId {
		if v.OriginatorId < other.OriginatorId {
			return -1
		}
		return 1
	}
	if v.TTLVersion != other.TTLVersion {
		if v.TTLVersion < other.TTLVersion {
			return -1
		}
		return 1
	}
	return 0
}

// Beats reports whether v is strictly greater than other under the
// conflict order, i.e. v would win a write conflict against other.
func (v Value) Beats(other Value) bool {
	return v.compareTo(other) > 0
}

// AreaId identifies a replication domain. Areas are opaque strings; the
// agent creates per-area tables lazily on first use and never destroys
// them while it lives.
type AreaId = string

// Publication is what the store pushes into the inbound queue, and what
// Get/Dump return synchronously.
type Publication struct {
	Area        AreaId
	KeyVals     map[string]Value
	ExpiredKeys []string
}
