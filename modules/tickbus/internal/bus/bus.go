package bus

import (
	"sync"
	"sync/atomic"
)

type subscriber struct {
	id      string
	policy  DropPolicy
	sent    atomic.Uint64
	dropped atomic.Uint64

	// For DropNew policy
	ch chan<- Tick

	// For DropOld policy
	latest *latestTick
}

type bus struct {
	mu             sync.RWMutex
	subscribers    map[string]*subscriber
	totalPublished atomic.Uint64
	closed         bool
}

// New creates a new tick bus
func New() Bus {
	return &bus{
		subscribers: make(map[string]*subscriber),
	}
}

// Subscribe registers a channel with DropNew policy
func (b *bus) Subscribe(id string, ch chan<- Tick) error {
	if ch == nil {
		return ErrNilChannel
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}

	b.subscribers[id] = &subscriber{id: id, policy: DropNew, ch: ch}
	return nil
}

// SubscribeLatest registers a subscriber with DropOld policy
func (b *bus) SubscribeLatest(id string) (Receiver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return nil, ErrSubscriberExists
	}

	sub := &subscriber{id: id, policy: DropOld, latest: newLatestTick()}
	b.subscribers[id] = sub
	return sub.latest, nil
}

// Publish distributes tick to all subscribers. Never blocks.
func (b *bus) Publish(tick Tick) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	b.totalPublished.Add(1)

	for _, sub := range b.subscribers {
		switch sub.policy {
		case DropNew:
			select {
			case sub.ch <- tick:
				sub.sent.Add(1)
			default:
				sub.dropped.Add(1)
			}

		case DropOld:
			if sub.latest.set(tick) {
				sub.dropped.Add(1)
			}
			sub.sent.Add(1)
		}
	}
}

// Unsubscribe removes a subscriber
func (b *bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscribers[id]
	if !exists {
		return ErrSubscriberNotFound
	}
	if sub.latest != nil {
		sub.latest.Close()
	}
	delete(b.subscribers, id)
	return nil
}

// Stats returns a snapshot of distribution counters
func (b *bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := Stats{
		TotalPublished: b.totalPublished.Load(),
		Subscribers:    make(map[string]SubscriberStats, len(b.subscribers)),
	}
	for id, sub := range b.subscribers {
		s := SubscriberStats{
			Policy:  sub.policy,
			Sent:    sub.sent.Load(),
			Dropped: sub.dropped.Load(),
		}
		stats.TotalSent += s.Sent
		stats.TotalDropped += s.Dropped
		stats.Subscribers[id] = s
	}
	return stats
}

// Close shuts down the bus and all receivers
func (b *bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subscribers {
		if sub.latest != nil {
			sub.latest.Close()
		}
	}
	b.subscribers = nil
}

// latestTick implements Receiver for DropOld policy
type latestTick struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tick   Tick
	seq    uint64
	read   uint64
	closed bool
}

func newLatestTick() *latestTick {
	h := &latestTick{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// set stores tick and reports whether an unread tick was overwritten.
func (h *latestTick) set(tick Tick) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	overwrote := h.seq > h.read
	h.tick = tick
	h.seq++
	h.cond.Broadcast()
	return overwrote
}

func (h *latestTick) Receive() (Tick, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.seq == h.read && !h.closed {
		h.cond.Wait()
	}
	if h.closed {
		return Tick{}, false
	}
	h.read = h.seq
	return h.tick, true
}

func (h *latestTick) TryReceive() (Tick, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.seq == 0 || h.closed {
		return Tick{}, false
	}
	h.read = h.seq
	return h.tick, true
}

func (h *latestTick) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.cond.Broadcast()
}
