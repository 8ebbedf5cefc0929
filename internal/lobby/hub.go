package lobby

import (
	"log"
	"sync"
	"sync/atomic"
)

const defaultSubscriberBuffer = 64

// Subscriber receives committed change events in version order. The channel
// is closed on unsubscribe, or by the hub itself when the subscriber's buffer
// saturates.
type Subscriber struct {
	ch      chan Event
	dropped atomic.Bool
}

// Events yields every event committed after the snapshot this subscriber was
// registered with, strictly increasing by version, no gaps, no duplicates.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Dropped reports whether the hub evicted this subscriber for falling behind.
// Meaningful once Events is closed.
func (s *Subscriber) Dropped() bool {
	return s.dropped.Load()
}

// Hub owns the table collection and the subscription registry. A single
// mutex makes "commit a mutation" and "snapshot + register" atomic with
// respect to each other: a mutation concurrent with Subscribe lands either
// in the returned snapshot or on the subscriber's channel, never both,
// never neither. The lock is held only for in-memory work.
type Hub struct {
	mu         sync.Mutex
	collection *Collection
	subs       map[*Subscriber]bool
	buffer     int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		collection: NewCollection(),
		subs:       make(map[*Subscriber]bool),
		buffer:     buffer,
	}
}

// Seed appends the given tables through the normal insert path, so ids and
// versions are assigned exactly as live mutations would. Meant to run before
// the server accepts connections.
func (h *Hub) Seed(tables []Table) {
	h.mu.Lock()
	defer h.mu.Unlock()
	after := FrontID
	if snap, _ := h.collection.Snapshot(); len(snap) > 0 {
		after = snap[len(snap)-1].ID
	}
	for _, t := range tables {
		inserted, _ := h.collection.Insert(after, t.Name, t.Participants)
		after = inserted.ID
	}
}

// Subscribe atomically takes a snapshot and registers a new subscriber. The
// returned sequence and version are the committed state; every event with a
// greater version arrives on the subscriber's channel.
func (h *Hub) Subscribe() ([]Table, uint64, *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tables, version := h.collection.Snapshot()
	sub := &Subscriber{ch: make(chan Event, h.buffer)}
	h.subs[sub] = true
	return tables, version, sub
}

// Unsubscribe removes the subscriber and closes its channel. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(sub)
}

// drop is called with mu held.
func (h *Hub) drop(sub *Subscriber) {
	if h.subs[sub] {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// AddTable commits an insert and fans the event out to all subscribers.
func (h *Hub) AddTable(afterID int64, name string, participants uint64) (Table, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ev := h.collection.Insert(afterID, name, participants)
	h.publish(ev)
	return t, ev.Version
}

// UpdateTable commits an in-place update and fans the event out.
func (h *Hub) UpdateTable(t Table) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev, err := h.collection.Update(t)
	if err != nil {
		return 0, err
	}
	h.publish(ev)
	return ev.Version, nil
}

// RemoveTable commits a removal and fans the event out.
func (h *Hub) RemoveTable(id int64) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev, err := h.collection.Remove(id)
	if err != nil {
		return 0, err
	}
	h.publish(ev)
	return ev.Version, nil
}

// Snapshot returns the committed state without registering a subscriber.
func (h *Hub) Snapshot() ([]Table, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collection.Snapshot()
}

// publish delivers under the lock so no subscriber observes events out of
// commit order. Sends never block: a subscriber whose buffer is full is
// evicted rather than stalling dispatch to everyone else.
func (h *Hub) publish(ev Event) {
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			log.Printf("lobby: subscriber too slow, dropping")
			sub.dropped.Store(true)
			h.drop(sub)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
