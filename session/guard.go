// Package session tracks which users are in the middle of a wager flow.
package session

import (
	"context"
	"sync"
	"time"
)

// Guard is a per-user busy flag.
type Guard interface {
	// TryAcquire atomically marks the user busy. It returns false if the
	// user already was.
	TryAcquire(ctx context.Context, userID string) bool
	// Release clears the flag unconditionally.
	Release(ctx context.Context, userID string)
	Busy(ctx context.Context, userID string) bool
}

// Acquire marks every distinct user busy or none of them. On success the
// returned release func clears them all; on failure busy names the first
// user that was already taken.
func Acquire(ctx context.Context, g Guard, userIDs ...string) (release func(), busy string, ok bool) {
	taken := make([]string, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	undo := func() {
		for _, id := range taken {
			g.Release(context.WithoutCancel(ctx), id)
		}
	}
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !g.TryAcquire(ctx, id) {
			undo()
			return func() {}, id, false
		}
		taken = append(taken, id)
	}
	var once sync.Once
	return func() { once.Do(undo) }, "", true
}

// Memory is an in-process Guard. Flags are lost on restart.
type Memory struct {
	mu    sync.Mutex
	since map[string]time.Time
}

// NewMemory creates an empty in-memory guard.
func NewMemory() *Memory {
	return &Memory{since: make(map[string]time.Time)}
}

func (m *Memory) TryAcquire(_ context.Context, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.since[userID]; busy {
		return false
	}
	m.since[userID] = time.Now()
	return true
}

func (m *Memory) Release(_ context.Context, userID string) {
	m.mu.Lock()
	delete(m.since, userID)
	m.mu.Unlock()
}

func (m *Memory) Busy(_ context.Context, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, busy := m.since[userID]
	return busy
}
