package interact

import (
	"context"
	"sync"
	"time"
)

// EventKind distinguishes reactions from text messages.
type EventKind int

const (
	ReactionEvent EventKind = iota + 1
	MessageEvent
)

// Event is one piece of chat input routed through a Hub.
type Event struct {
	Kind      EventKind
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
	Content   string
}

type waiter struct {
	match func(Event) bool
	ch    chan Event
}

// Hub fans chat events out to whoever is waiting on them.
type Hub struct {
	mu      sync.Mutex
	next    uint64
	waiters map[uint64]*waiter
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{waiters: make(map[uint64]*waiter)}
}

// Subscribe registers a waiter. Events that match are delivered to the
// returned channel; they are dropped if its buffer is full.
func (h *Hub) Subscribe(match func(Event) bool, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	w := &waiter{match: match, ch: make(chan Event, buffer)}
	h.mu.Lock()
	id := h.next
	h.next++
	h.waiters[id] = w
	h.mu.Unlock()

	var once sync.Once
	return w.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.waiters, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every matching waiter and returns how many took it.
func (h *Hub) Publish(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, w := range h.waiters {
		if !w.match(ev) {
			continue
		}
		select {
		case w.ch <- ev:
			n++
		default:
		}
	}
	return n
}

// Waiting returns the number of registered waiters.
func (h *Hub) Waiting() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters)
}

// Next waits for one event on ch, bounded by timeout and ctx.
func Next(ctx context.Context, ch <-chan Event, timeout time.Duration) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-ch:
		return ev, nil
	case <-timer.C:
		return Event{}, ErrTimeout
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Collect gathers events from distinct users until max arrive, idle elapses
// with nothing new (idle > 0), or total expires. Context cancellation
// returns what was gathered along with the context error.
func Collect(ctx context.Context, ch <-chan Event, max int, idle, total time.Duration) ([]Event, error) {
	deadline := time.NewTimer(total)
	defer deadline.Stop()

	var idleC <-chan time.Time
	var idleTimer *time.Timer
	if idle > 0 {
		idleTimer = time.NewTimer(idle)
		defer idleTimer.Stop()
		idleC = idleTimer.C
	}

	seen := make(map[string]bool)
	var out []Event
	for max <= 0 || len(out) < max {
		select {
		case ev := <-ch:
			if seen[ev.UserID] {
				continue
			}
			seen[ev.UserID] = true
			out = append(out, ev)
			if idleTimer != nil {
				if !idleTimer.Stop() {
					select {
					case <-idleTimer.C:
					default:
					}
				}
				idleTimer.Reset(idle)
			}
		case <-idleC:
			return out, nil
		case <-deadline.C:
			return out, nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, nil
}
