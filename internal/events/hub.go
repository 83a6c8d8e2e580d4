package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const defaultBuffer = 16

// Filter selects the events a subscriber receives.
type Filter func(Event) bool

// ForEntity matches events about one order or alteration.
func ForEntity(id string) Filter {
	return func(e Event) bool { return e.EntityID == id }
}

// ForCustomer matches events about entities owned by email.
func ForCustomer(email string) Filter {
	return func(e Event) bool { return e.CustomerEmail != "" && e.CustomerEmail == email }
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Hub is an in-process publisher feeding server-sent event streams.
// Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	next   int
	buffer int
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[int]*subscriber), buffer: buffer, logger: logger}
}

// Subscribe registers a subscriber. The returned cancel func closes the channel.
func (h *Hub) Subscribe(filter Filter) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	sub := &subscriber{ch: make(chan Event, h.buffer), filter: filter}
	h.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, sub := range h.subs {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.logger.Warn("event dropped for slow subscriber", zap.Int("subscriber", id), zap.String("type", e.Type))
		}
	}
	return nil
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
