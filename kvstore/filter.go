package kvstore

import "strings"

// Filters mirrors the store's own filter type: a key matches if either
// set is empty (meaning "don't care") or the key/originator satisfies the
// corresponding constraint. Both sets are checked; a match requires both
// to pass.
type Filters struct {
	OriginatorIds map[string]struct{}
	KeyPrefixes   []string
}

// NewFilters builds a Filters from originator ids and key prefixes. An
// empty slice/nil map means "match everything" for that dimension.
func NewFilters(originatorIds []string, keyPrefixes []string) Filters {
	f := Filters{KeyPrefixes: keyPrefixes}
	if len(originatorIds) > 0 {
		f.OriginatorIds = make(map[string]struct{}, len(originatorIds))
		for _, id := range originatorIds {
			f.OriginatorIds[id] = struct{}{}
		}
	}
	return f
}

// KeyMatch reports whether value and key satisfy f. Filter match
// semantics: keyMatch(key, value) == true implies the prefix callback
// fires for that (key, value) pair.
func (f Filters) KeyMatch(key string, value Value) bool {
	if len(f.OriginatorIds) > 0 {
		if _, ok := f.OriginatorIds[value.OriginatorId]; !ok {
			return false
		}
	}
	if len(f.KeyPrefixes) > 0 {
		matched := false
		for _, prefix := range f.KeyPrefixes {
			if strings.HasPrefix(key, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
