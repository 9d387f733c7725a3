package utils

import (
	"sync"
	"time"
)

// Cooldowns tracks per-user, per-key cooldowns in memory (resets on restart)
type Cooldowns struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// NewCooldowns creates an empty tracker
func NewCooldowns() *Cooldowns {
	return &Cooldowns{last: make(map[string]time.Time), now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (c *Cooldowns) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Try records a use of key by userID and returns zero if allowed, or the
// remaining wait if the previous use is still within d.
func (c *Cooldowns) Try(key, userID string, d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key + ":" + userID
	now := c.now()
	if prev, ok := c.last[k]; ok {
		if wait := prev.Add(d).Sub(now); wait > 0 {
			return wait
		}
	}
	c.last[k] = now
	return 0
}

// Cleanup drops entries older than maxAge
func (c *Cooldowns) Cleanup(maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-maxAge)
	for k, t := range c.last {
		if t.Before(cutoff) {
			delete(c.last, k)
		}
	}
}
