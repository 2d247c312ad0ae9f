// Package feed fans committed task changes out to the live subscribers of
// the owning user.
package feed

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophtasks/internal/logging"
	"github.com/dmitrijs2005/gophtasks/internal/server/models"
	"github.com/google/uuid"
)

const defaultBufferSize = 16

// Mask selects which change types a subscriber receives.
type Mask uint8

const (
	MaskInsert Mask = 1 << iota
	MaskUpdate
	MaskDelete

	MaskAll = MaskInsert | MaskUpdate | MaskDelete
)

// MaskOf builds a Mask from change type names. Unknown names are ignored; an
// empty list selects everything.
func MaskOf(types []models.ChangeType) Mask {
	if len(types) == 0 {
		return MaskAll
	}
	var m Mask
	for _, t := range types {
		m |= maskBit(t)
	}
	return m
}

func maskBit(t models.ChangeType) Mask {
	switch t {
	case models.ChangeInsert:
		return MaskInsert
	case models.ChangeUpdate:
		return MaskUpdate
	case models.ChangeDelete:
		return MaskDelete
	}
	return 0
}

// Subscription is one live listener. Events is closed after Close or when
// the hub shuts down.
type Subscription struct {
	ID     string
	Events <-chan models.ChangeEvent
	cancel func()
}

// Close unsubscribes. It is safe to call more than once.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Hub keeps per-user subscriber sets. Publish never blocks: a subscriber
// whose queue is full loses the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	bufferSize  int
	closed      bool
	logger      logging.Logger
}

func NewHub(bufferSize int, l logging.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subscribers: map[string]map[*subscriber]struct{}{},
		bufferSize:  bufferSize,
		logger:      l.With("module", "feed"),
	}
}

// Subscribe registers a listener for userID's changes matching mask.
func (h *Hub) Subscribe(userID string, mask Mask) Subscription {
	sub := &subscriber{
		id:   uuid.NewString(),
		mask: mask,
		ch:   make(chan models.ChangeEvent, h.bufferSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return Subscription{ID: sub.id, Events: sub.ch}
	}
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = map[*subscriber]struct{}{}
	}
	h.subscribers[userID][sub] = struct{}{}
	h.mu.Unlock()

	return Subscription{
		ID:     sub.id,
		Events: sub.ch,
		cancel: func() { h.remove(userID, sub) },
	}
}

// Publish delivers ev to every subscriber of ev.UserID whose mask matches.
func (h *Hub) Publish(ctx context.Context, ev models.ChangeEvent) {
	bit := maskBit(ev.Type)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[ev.UserID] {
		if sub.mask&bit == 0 {
			continue
		}
		if !sub.deliver(ev) {
			h.logger.Warn(ctx, "subscriber queue full, event dropped",
				"subscriber", sub.id, "user_id", ev.UserID, "type", ev.Type, "task_id", ev.TaskID)
		}
	}
}

// Subscribers reports how many listeners userID currently has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Close ends every subscription. Later Subscribe calls return an already
// closed subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for userID, subs := range h.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(h.subscribers, userID)
	}
}

func (h *Hub) remove(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs := h.subscribers[userID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
	}
	sub.close()
}

type subscriber struct {
	id   string
	mask Mask
	ch   chan models.ChangeEvent

	closeOnce sync.Once
}

// deliver is called under the hub read lock, and close only under the write
// lock, so the channel cannot be closed mid-send.
func (s *subscriber) deliver(ev models.ChangeEvent) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}
