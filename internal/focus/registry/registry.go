// Package registry holds the set of bridges known to this focus instance,
// accepts presence updates, and fans out add/remove/shutdown/health-check
// events to subscribers — one serialized, buffered queue per subscriber so
// a slow observer never head-of-line blocks the others (grounded on the
// teacher's services/signaling/events.ChannelPublisher).
package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sebas/focusbridge/internal/focus/bridge"
)

// subscriberQueueSize bounds how far a subscriber can lag before events
// are dropped with a warning logged, mirroring the teacher's
// ChannelPublisher drop-on-full behavior.
const subscriberQueueSize = 256

// Now is overridable in tests; production code leaves it as time.Now.
var Now = time.Now

// Registry is the set of bridges known to this focus instance.
type Registry struct {
	mu       sync.RWMutex
	bridges  map[bridge.Id]*bridge.Bridge
	cfg      bridge.Config
	lost     atomic.Int64
	subs     map[int64]*subscription
	nextSub  atomic.Int64
}

type subscription struct {
	ch     chan Event
	done   chan struct{}
	closed atomic.Bool
}

// New creates an empty registry. cfg supplies the per-bridge tunables
// (failure-reset-threshold, rampup interval, average participant stress)
// applied to every bridge created via AddBridge.
func New(cfg bridge.Config) *Registry {
	return &Registry{
		bridges: make(map[bridge.Id]*bridge.Bridge),
		cfg:     cfg,
		subs:    make(map[int64]*subscription),
	}
}

// AddBridge is idempotent: if id is already known, its existing handle is
// returned and no event fires. On first creation it emits bridgeAdded.
func (r *Registry) AddBridge(id bridge.Id) *bridge.Bridge {
	r.mu.Lock()
	if existing, ok := r.bridges[id]; ok {
		r.mu.Unlock()
		return existing
	}
	b := bridge.New(id, r.cfg)
	r.bridges[id] = b
	r.mu.Unlock()

	r.publish(Event{Type: BridgeAdded, Id: id})
	return b
}

// RemoveBridge removes a known bridge and emits bridgeRemoved. If the
// bridge was not in graceful shutdown, the lostBridges counter increments
// (§4.1) since this departure was not announced in advance.
func (r *Registry) RemoveBridge(id bridge.Id) {
	r.mu.Lock()
	b, ok := r.bridges[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.bridges, id)
	r.mu.Unlock()

	if !b.Snapshot(Now()).GracefulShutdown {
		r.lost.Add(1)
	}
	r.publish(Event{Type: BridgeRemoved, Id: id})
}

// UpdatePresence applies a presence update to the named bridge, creating
// it first (as AddBridge would) if it is not yet known. Emits
// bridgeIsShuttingDown on the false->true graceful-shutdown transition.
func (r *Registry) UpdatePresence(id bridge.Id, update bridge.PresenceUpdate) {
	b := r.AddBridge(id)
	shutdownStarted := b.ApplyPresence(update, Now())
	if shutdownStarted {
		r.publish(Event{Type: BridgeIsShuttingDown, Id: id})
	}
}

// NotifyFailedHealthCheck lets the health-check scheduler report a probe
// failure through the registry's subscriber fan-out.
func (r *Registry) NotifyFailedHealthCheck(id bridge.Id) {
	r.publish(Event{Type: BridgeFailedHealthCheck, Id: id})
}

// Snapshot returns the currently known bridges in unspecified order.
func (r *Registry) Snapshot() []*bridge.Bridge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*bridge.Bridge, 0, len(r.bridges))
	for _, b := range r.bridges {
		out = append(out, b)
	}
	return out
}

// Get returns the bridge for id, if known.
func (r *Registry) Get(id bridge.Id) (*bridge.Bridge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bridges[id]
	return b, ok
}

// Len returns the number of bridges currently known.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bridges)
}

// LostBridges returns the number of bridges that departed without first
// announcing graceful shutdown.
func (r *Registry) LostBridges() int64 {
	return r.lost.Load()
}

// Subscribe registers handler to receive events, serialized on its own
// queue. The returned function unsubscribes and stops the drain
// goroutine.
func (r *Registry) Subscribe(handler Handler) (unsubscribe func()) {
	sub := &subscription{
		ch:   make(chan Event, subscriberQueueSize),
		done: make(chan struct{}),
	}
	id := r.nextSub.Add(1)

	r.mu.Lock()
	r.subs[id] = sub
	r.mu.Unlock()

	go sub.drain(handler)

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
		if sub.closed.CompareAndSwap(false, true) {
			close(sub.done)
		}
	}
}

func (s *subscription) drain(handler Handler) {
	for {
		select {
		case ev := <-s.ch:
			handler(ev)
		case <-s.done:
			return
		}
	}
}

func (r *Registry) publish(ev Event) {
	r.mu.RLock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.ch <- ev:
		default:
			slog.Warn("[Registry] subscriber queue full, dropping event",
				"event", ev.Type.String(), "bridge_id", string(ev.Id))
		}
	}
}

// Close stops all subscriber drain goroutines.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[int64]*subscription)
	r.mu.Unlock()

	for _, s := range subs {
		if s.closed.CompareAndSwap(false, true) {
			close(s.done)
		}
	}
}
