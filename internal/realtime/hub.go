package realtime

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 16

// Hub fans change events out to in-process subscribers of the same user.
// Publishing never blocks: a subscriber whose buffer is full misses the
// event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*hubSubscription]struct{}
	buffer  int
	dropped atomic.Int64
	onDrop  func(userID string)
}

type HubOption func(*Hub)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithDropHook is called for every event a subscriber misses.
func WithDropHook(fn func(userID string)) HubOption {
	return func(h *Hub) { h.onDrop = fn }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   make(map[string]map[*hubSubscription]struct{}),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type hubSubscription struct {
	hub    *Hub
	userID string
	ch     chan ChangeEvent
	once   sync.Once
}

func (s *hubSubscription) Events() <-chan ChangeEvent { return s.ch }

func (s *hubSubscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if set := s.hub.subs[s.userID]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.userID)
			}
		}
		close(s.ch)
	})
}

// Subscribe registers a subscriber for userID's events.
func (h *Hub) Subscribe(userID string) Subscription {
	s := &hubSubscription{hub: h, userID: userID, ch: make(chan ChangeEvent, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*hubSubscription]struct{})
	}
	h.subs[userID][s] = struct{}{}
	return s
}

// PublishChange delivers ev to the user's current subscribers.
func (h *Hub) PublishChange(_ context.Context, ev ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			h.dropped.Add(1)
			if h.onDrop != nil {
				h.onDrop(ev.UserID)
			}
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Dropped returns the number of events missed by slow subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
