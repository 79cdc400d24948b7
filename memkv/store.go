package memkv

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kvmesh/kvclient/kvstore"
	"github.com/kvmesh/kvclient/lib/db"
	"github.com/kvmesh/kvclient/lib/db/engines/maple"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("memkv")

// defaultExpiryScanInterval is how often Store checks for keys maple has
// fully deleted, so it can surface them as ExpiredKeys publications.
const defaultExpiryScanInterval = 250 * time.Millisecond

// areaState is the per-area key-membership index. maple's KVDB
// interface has no enumeration primitive, so Store keeps its own set
// of known keys per area to support Dump and the expiry scan.
type areaState struct {
	keys *xsync.MapOf[string, struct{}]
}

// Store is an in-process, multi-area kvstore.Client implementation.
type Store struct {
	db    db.KVDB
	areas *xsync.MapOf[kvstore.AreaId, *areaState]
	subs  *xsync.MapOf[uint64, *subscriber]

	nextSubID atomic.Uint64
	stopOnce  sync.Once
	stopCh    chan struct{}
}

type subscriber struct {
	ch        chan kvstore.Publication
	closeOnce sync.Once
}

// NewStore creates an empty Store and starts its background expiry
// scan goroutine. Call Close when done.
func NewStore() *Store {
	s := &Store{
		db:     maple.NewMapleDB(nil),
		areas:  xsync.NewMapOf[kvstore.AreaId, *areaState](),
		subs:   xsync.NewMapOf[uint64, *subscriber](),
		stopCh: make(chan struct{}),
	}
	go s.runExpiryScan(defaultExpiryScanInterval)
	return s
}

func (s *Store) areaOf(area kvstore.AreaId) *areaState {
	if st, ok := s.areas.Load(area); ok {
		return st
	}
	st, _ := s.areas.LoadOrStore(area, &areaState{keys: xsync.NewMapOf[string, struct{}]()})
	return st
}

// Set implements kvstore.Client.
func (s *Store) Set(_ context.Context, area kvstore.AreaId, keyVals map[string]kvstore.Value) error {
	if len(keyVals) == 0 {
		return nil
	}
	areaSt := s.areaOf(area)
	idx := uint64(time.Now().UnixMilli())

	for key, val := range keyVals {
		b, err := encodeValue(val)
		if err != nil {
			return kvstore.NewErrorWrap(kvstore.RetCTransportFailure, "encode value", err)
		}
		ck := compositeKey(area, key)
		if val.TTLMs == kvstore.TTLInfinite || val.TTLMs <= 0 {
			s.db.Set(ck, b, idx)
		} else {
			ttl := uint64(val.TTLMs)
			s.db.SetE(ck, b, idx, ttl, ttl)
		}
		areaSt.keys.Store(key, struct{}{})
	}

	s.publish(kvstore.Publication{Area: area, KeyVals: keyVals})
	return nil
}

// InjectRemote is behaviourally identical to Set. It exists purely for
// test readability: it models what a remote gossip peer's write would
// look like arriving through the same store, under whatever
// OriginatorId the caller puts in the Values.
func (s *Store) InjectRemote(area kvstore.AreaId, keyVals map[string]kvstore.Value) error {
	return s.Set(context.Background(), area, keyVals)
}

// Get implements kvstore.Client.
func (s *Store) Get(_ context.Context, area kvstore.AreaId, keys []string) (kvstore.Publication, error) {
	result := make(map[string]kvstore.Value)
	for _, key := range keys {
		b, loaded := s.db.Get(compositeKey(area, key))
		if !loaded {
			continue
		}
		v, err := decodeValue(b)
		if err != nil {
			continue
		}
		result[key] = v
	}
	return kvstore.Publication{Area: area, KeyVals: result}, nil
}

// Dump implements kvstore.Client.
func (s *Store) Dump(_ context.Context, areas []kvstore.AreaId, params kvstore.DumpParams) ([]kvstore.Publication, error) {
	wantKeys := make(map[string]struct{}, len(params.Keys))
	for _, k := range params.Keys {
		wantKeys[k] = struct{}{}
	}

	pubs := make([]kvstore.Publication, 0, len(areas))
	for _, area := range areas {
		areaSt, ok := s.areas.Load(area)
		keyVals := make(map[string]kvstore.Value)
		if ok {
			areaSt.keys.Range(func(key string, _ struct{}) bool {
				if params.Prefix != "" && !strings.HasPrefix(key, params.Prefix) {
					return true
				}
				if len(wantKeys) > 0 {
					if _, ok := wantKeys[key]; !ok {
						return true
					}
				}
				if b, loaded := s.db.Get(compositeKey(area, key)); loaded {
					if v, err := decodeValue(b); err == nil {
						keyVals[key] = v
					}
				}
				return true
			})
		}
		pubs = append(pubs, kvstore.Publication{Area: area, KeyVals: keyVals})
	}
	return pubs, nil
}

// GetUpdatesReader implements kvstore.Client.
func (s *Store) GetUpdatesReader(_ context.Context) (kvstore.UpdatesReader, error) {
	id := s.nextSubID.Add(1)
	sub := &subscriber{ch: make(chan kvstore.Publication, 64)}
	s.subs.Store(id, sub)
	return &storeReader{store: s, id: id, sub: sub}, nil
}

func (s *Store) publish(pub kvstore.Publication) {
	s.subs.Range(func(_ uint64, sub *subscriber) bool {
		select {
		case sub.ch <- pub:
		default:
			Logger.Warningf("memkv: dropping publication for area %s, subscriber queue full", pub.Area)
		}
		return true
	})
}

// Close stops the expiry scan goroutine and the backing maple engine.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.subs.Range(func(id uint64, sub *subscriber) bool {
		sub.closeOnce.Do(func() { close(sub.ch) })
		s.subs.Delete(id)
		return true
	})
	return s.db.Close()
}

// runExpiryScan periodically checks whether maple has fully deleted a
// previously-known key (Has() turns false) and, if so, removes it from
// the area index and surfaces it as an ExpiredKeys publication. maple
// exposes no enumeration or expiry-notification primitive over the
// KVDB interface, so this polls rather than subscribing to maple's
// internal per-shard GC events.
func (s *Store) runExpiryScan(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// Advance maple's logical clock to wall-clock ms so keys
			// expire even when no further writes arrive.
			s.db.SetWriteIdx(uint64(time.Now().UnixMilli()))
			s.areas.Range(func(area string, areaSt *areaState) bool {
				var expired []string
				areaSt.keys.Range(func(key string, _ struct{}) bool {
					if !s.db.Has(compositeKey(area, key)) {
						expired = append(expired, key)
					}
					return true
				})
				for _, key := range expired {
					areaSt.keys.Delete(key)
				}
				if len(expired) > 0 {
					s.publish(kvstore.Publication{Area: area, ExpiredKeys: expired})
				}
				return true
			})
		}
	}
}

// storeReader is the kvstore.UpdatesReader returned by
// Store.GetUpdatesReader.
type storeReader struct {
	store *Store
	id    uint64
	sub   *subscriber
}

func (r *storeReader) Next(ctx context.Context) (kvstore.Publication, error) {
	select {
	case pub, ok := <-r.sub.ch:
		if !ok {
			return kvstore.Publication{}, io.EOF
		}
		return pub, nil
	case <-ctx.Done():
		return kvstore.Publication{}, ctx.Err()
	}
}

func (r *storeReader) Close() error {
	r.store.subs.Delete(r.id)
	r.sub.closeOnce.Do(func() { close(r.sub.ch) })
	return nil
}
