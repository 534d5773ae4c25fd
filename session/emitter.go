package session

import "sync"

// Event is one unit of subscriber delivery: either a delta or, when the
// subscriber needs a resync, a full snapshot.
type Event struct {
	Delta    *Delta    `json:"delta,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Subscriber receives committed events in sequence order. Callbacks run
// on a dedicated goroutine per subscriber, never under the core mutex.
type Subscriber func(Event)

// Handle identifies a subscription for Unsubscribe.
type Handle uint64

type emitterSub struct {
	fn     Subscriber
	ch     chan Event
	lagged bool
}

func (s *emitterSub) run() {
	for ev := range s.ch {
		s.fn(ev)
	}
}

// Emitter fans committed deltas out to subscribers. Enqueueing happens
// while the facade holds its mutex, which fixes the delivery order to
// the commit order; dispatch happens on per-subscriber goroutines. A
// subscriber whose backlog fills is marked lagged and is resynced with a
// full snapshot instead of silently losing deltas.
type Emitter struct {
	mu      sync.Mutex
	subs    map[Handle]*emitterSub
	nextID  Handle
	backlog int
}

func NewEmitter(backlog int) *Emitter {
	if backlog <= 0 {
		backlog = 64
	}
	return &Emitter{
		subs:    make(map[Handle]*emitterSub),
		backlog: backlog,
	}
}

// Subscribe registers fn and preloads any catch-up events before new
// deltas can be interleaved.
func (e *Emitter) Subscribe(fn Subscriber, pending []Event) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID

	sub := &emitterSub{
		fn: fn,
		ch: make(chan Event, e.backlog+len(pending)),
	}
	for _, ev := range pending {
		sub.ch <- ev
	}

	e.subs[id] = sub
	go sub.run()

	return id
}

func (e *Emitter) Unsubscribe(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, ok := e.subs[h]
	if !ok {
		return
	}
	delete(e.subs, h)
	close(sub.ch)
}

// Publish enqueues the delta for every subscriber. snapshotFn is invoked
// at most once, and only when a lagged subscriber has room to resync.
func (e *Emitter) Publish(d Delta, snapshotFn func() *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var snap *Snapshot
	ev := Event{Delta: &d}

	for _, sub := range e.subs {
		if sub.lagged {
			if snap == nil {
				snap = snapshotFn()
			}
			select {
			case sub.ch <- Event{Snapshot: snap}:
				sub.lagged = false
			default:
			}
			continue
		}

		select {
		case sub.ch <- ev:
		default:
			sub.lagged = true
		}
	}
}

// Close shuts down every subscriber goroutine.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, sub := range e.subs {
		delete(e.subs, id)
		close(sub.ch)
	}
}

// Len reports the number of active subscribers.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
