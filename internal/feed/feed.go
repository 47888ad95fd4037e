// Package feed fans out spot state changes to subscribers. Each
// subscriber owns a Subscription handle filtered by a predicate and
// must release it with Close.
//
// Delivery is at-least-once for the lifetime of a subscription. Events
// for one spot arrive in the order they were published; there is no
// ordering across spots. A subscriber that falls too far behind is cut
// off (its channel is closed) and is expected to resubscribe and
// re-read the current matching set, since dropped events are not
// replayed.
package feed

import (
	"sync"

	"github.com/curbline/curbline/internal/domain"
	"github.com/google/uuid"
)

const defaultBuffer = 64

type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a predicate and returns the handle delivering
// matching events. The caller must Close the handle on every exit
// path.
func (h *Hub) Subscribe(filter domain.SpotFilter, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	sub := &Subscription{
		hub:    h,
		filter: filter,
		ch:     make(chan domain.SpotEvent, buffer),
		seen:   make(map[uuid.UUID]struct{}),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish fans a spot's current state out to every subscription. The
// hub lock is held across the whole fan-out, so two Publish calls for
// the same spot reach every subscriber in call order.
func (h *Hub) Publish(spot domain.Spot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if !sub.deliver(spot) {
			delete(h.subs, sub)
			close(sub.ch)
			sub.closed = true
		}
	}
}

// Subscribers returns the current subscription count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

type Subscription struct {
	hub    *Hub
	filter domain.SpotFilter
	ch     chan domain.SpotEvent

	// seen and closed are guarded by hub.mu.
	seen   map[uuid.UUID]struct{}
	closed bool
}

// Events is the stream of add/update/remove events. The channel closes
// when the subscription is closed or cut off for falling behind.
func (s *Subscription) Events() <-chan domain.SpotEvent {
	return s.ch
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if s.closed {
		return
	}

	delete(s.hub.subs, s)
	close(s.ch)
	s.closed = true
}

// deliver classifies the spot against the predicate and this
// subscription's visible set: first match is an add, later matches are
// updates, and a spot leaving the matching set is a remove. Reports
// false when the subscriber's buffer is full, which cuts it off.
func (s *Subscription) deliver(spot domain.Spot) bool {
	matches := s.filter.Matches(spot)
	_, seen := s.seen[spot.ID]

	var ev domain.SpotEvent
	switch {
	case matches && !seen:
		s.seen[spot.ID] = struct{}{}
		ev = domain.SpotEvent{Type: domain.EventAdd, Spot: spot}
	case matches && seen:
		ev = domain.SpotEvent{Type: domain.EventUpdate, Spot: spot}
	case !matches && seen:
		delete(s.seen, spot.ID)
		ev = domain.SpotEvent{Type: domain.EventRemove, Spot: spot}
	default:
		return true
	}

	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}
