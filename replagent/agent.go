package replagent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kvmesh/kvclient/config"
	"github.com/kvmesh/kvclient/eventloop"
	"github.com/kvmesh/kvclient/kvstore"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("replagent")

// Agent is the client-side replication agent. Create one with New,
// start it with Start, and release its resources with Stop.
type Agent struct {
	cfg   config.Config
	store kvstore.Client
	loop  *eventloop.Loop
	log   logger.ILogger

	areas map[kvstore.AreaId]*areaTables

	prefixFilter      kvstore.Filters
	prefixCallback    Callback
	hasPrefixCallback bool
	globalCallback    Callback

	advertiseTimer *eventloop.Timer
	ttlTimer       *eventloop.Timer
	sweepTimer     *eventloop.Timer

	reader       kvstore.UpdatesReader
	readerCancel context.CancelFunc
	readerDone   chan struct{}
	loopDone     chan struct{}

	// ctx is used for the synchronous store calls the advertise/ttl/
	// sweep engines make from the loop. It is context.Background()
	// until Start is called.
	ctx context.Context

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an Agent bound to store, using cfg for pacing. It
// validates cfg and panics on a nil store - both are precondition
// violations per spec.md §7.4, not runtime-recoverable errors.
func New(cfg config.Config, store kvstore.Client) *Agent {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("replagent: invalid config: %v", err))
	}
	if store == nil {
		panic("replagent: store must not be nil")
	}

	a := &Agent{
		cfg:        cfg,
		store:      store,
		loop:       eventloop.New(256),
		log:        Logger,
		areas:      make(map[kvstore.AreaId]*areaTables),
		readerDone: make(chan struct{}),
		loopDone:   make(chan struct{}),
		ctx:        context.Background(),
	}
	a.advertiseTimer = eventloop.NewTimer(a.loop, a.onAdvertiseTimer)
	a.ttlTimer = eventloop.NewTimer(a.loop, a.onTTLTimer)
	a.sweepTimer = eventloop.NewTimer(a.loop, a.onSweepTimer)
	return a
}

// Start runs the event loop goroutine and, if the store offers a push
// update feed, the inbound publication reader. If the store returns
// kvstore.ErrStreamingUnsupported, Start logs and continues: the agent
// still serves local API calls, it just never reflects remote changes
// (spec.md §7.5 - a terminal inbound error, of which "never had one"
// is a degenerate case, ends the publication loop without crashing the
// agent).
func (a *Agent) Start(ctx context.Context) error {
	a.ctx = ctx
	go func() {
		defer close(a.loopDone)
		a.loop.Run()
	}()

	readerCtx, cancel := context.WithCancel(ctx)
	a.readerCancel = cancel

	reader, err := a.store.GetUpdatesReader(readerCtx)
	if err != nil {
		a.log.Warningf("no inbound update feed available: %v", err)
		close(a.readerDone)
		a.armTimers()
		return nil
	}
	a.reader = reader

	a.wg.Add(1)
	go a.runInboundReader(readerCtx)

	a.armTimers()
	return nil
}

func (a *Agent) armTimers() {
	a.loop.Submit(func() {
		a.advertiseTimer.Reset(a.cfg.MaxBackoff)
		a.ttlTimer.Reset(a.cfg.MaxTTLUpdateInterval)
		if a.cfg.SweepPeriod > 0 {
			a.sweepTimer.Reset(a.cfg.SweepPeriod)
		}
	})
}

// runInboundReader is the inbound fiber: one long-lived cooperative
// task that reads from the store's update feed until a terminal error,
// submitting each publication to the loop for processing. Per spec.md
// §5, ordering between the publications it submits and everything else
// on the loop is preserved because both are serialized through Submit.
func (a *Agent) runInboundReader(ctx context.Context) {
	defer a.wg.Done()
	defer close(a.readerDone)
	for {
		pub, err := a.reader.Next(ctx)
		if err != nil {
			a.log.Infof("inbound publication feed ended: %v", err)
			return
		}
		a.loop.Submit(func() {
			a.processPublication(pub)
		})
	}
}

// Stop cancels the inbound reader task and waits for it to join, then
// cancels all pending timers on the loop thread before stopping the
// loop. Pending dirty entries are not flushed - they are dropped, per
// spec.md §5; callers needing at-least-once persistence must rely on
// the sweep engine or re-advertise after restart.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		if a.readerCancel != nil {
			a.readerCancel()
		}
		if a.reader != nil {
			_ = a.reader.Close()
		}
		a.wg.Wait()

		done := make(chan struct{})
		a.loop.Submit(func() {
			a.advertiseTimer.Stop()
			a.ttlTimer.Stop()
			a.sweepTimer.Stop()
			close(done)
		})
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			a.log.Warningf("timed out waiting for timer cancellation on stop")
		}
		a.loop.Stop()

		select {
		case <-a.loopDone:
		case <-time.After(5 * time.Second):
			a.log.Warningf("timed out waiting for the event loop goroutine to exit")
		}
	})
}

// safeCall runs cb under a guard that logs and suppresses panics, to
// preserve dispatch for other subscribers - per spec.md §7's
// propagation policy for callbacks.
func (a *Agent) safeCall(cb Callback, key string, value *kvstore.Value) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("callback panicked for key %s: %v", key, r)
		}
	}()
	cb(key, value)
}
