package replagent

import (
	"context"
	"sync"

	"github.com/kvmesh/kvclient/config"
	"github.com/kvmesh/kvclient/kvstore"
)

// fakeStore is a controllable kvstore.Client test double: callers can
// seed data, inject inbound publications, and force Get/Set/stream
// failures, none of which memkv.Store's real maple backing makes easy
// to provoke deterministically.
type fakeStore struct {
	mu        sync.Mutex
	data      map[kvstore.AreaId]map[string]kvstore.Value
	setCalls  []setCall
	getErr    error
	setErr    error
	streamErr error
	sub       chan kvstore.Publication
}

type setCall struct {
	area kvstore.AreaId
	vals map[string]kvstore.Value
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[kvstore.AreaId]map[string]kvstore.Value),
		sub:  make(chan kvstore.Publication, 64),
	}
}

func (f *fakeStore) Get(_ context.Context, area kvstore.AreaId, keys []string) (kvstore.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return kvstore.Publication{}, f.getErr
	}
	res := make(map[string]kvstore.Value)
	for _, k := range keys {
		if v, ok := f.data[area][k]; ok {
			res[k] = v
		}
	}
	return kvstore.Publication{Area: area, KeyVals: res}, nil
}

func (f *fakeStore) Dump(_ context.Context, areas []kvstore.AreaId, params kvstore.DumpParams) ([]kvstore.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pubs := make([]kvstore.Publication, 0, len(areas))
	for _, area := range areas {
		res := make(map[string]kvstore.Value)
		for k, v := range f.data[area] {
			if params.Prefix != "" && len(k) < len(params.Prefix) {
				continue
			}
			res[k] = v
		}
		pubs = append(pubs, kvstore.Publication{Area: area, KeyVals: res})
	}
	return pubs, nil
}

func (f *fakeStore) Set(_ context.Context, area kvstore.AreaId, keyVals map[string]kvstore.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.data[area] == nil {
		f.data[area] = make(map[string]kvstore.Value)
	}
	copied := make(map[string]kvstore.Value, len(keyVals))
	for k, v := range keyVals {
		f.data[area][k] = v
		copied[k] = v
	}
	f.setCalls = append(f.setCalls, setCall{area: area, vals: copied})
	return nil
}

func (f *fakeStore) GetUpdatesReader(_ context.Context) (kvstore.UpdatesReader, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return &fakeReader{ch: f.sub}, nil
}

func (f *fakeStore) inject(pub kvstore.Publication) {
	f.sub <- pub
}

func (f *fakeStore) deleteKey(area kvstore.AreaId, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data[area], key)
}

func (f *fakeStore) snapshot(area kvstore.AreaId, key string) (kvstore.Value, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[area][key]
	return v, ok
}

func (f *fakeStore) lastSetCalls() []setCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]setCall{}, f.setCalls...)
}

type fakeReader struct {
	ch chan kvstore.Publication
}

func (r *fakeReader) Next(ctx context.Context) (kvstore.Publication, error) {
	select {
	case p := <-r.ch:
		return p, nil
	case <-ctx.Done():
		return kvstore.Publication{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

// newTestAgentNoLoop builds an Agent whose loop goroutine is not yet
// running, for tests that exercise unexported on-loop methods
// directly from the test goroutine.
func newTestAgentNoLoop(nodeId string) (*Agent, *fakeStore) {
	store := newFakeStore()
	a := New(config.Default(nodeId), store)
	return a, store
}

// syncSubmit submits fn to a's loop and blocks until it has run,
// giving the calling goroutine a happens-before edge over fn's
// effects without needing the race detector's cooperation.
func syncSubmit(a *Agent, fn func()) {
	done := make(chan struct{})
	a.loop.Submit(func() {
		fn()
		close(done)
	})
	<-done
}

func dataPtr(s string) *[]byte {
	b := []byte(s)
	return &b
}
