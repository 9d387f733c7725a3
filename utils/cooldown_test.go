package utils

import (
	"testing"
	"time"
)

func TestCooldowns(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldowns()
	c.SetClock(func() time.Time { return now })

	if wait := c.Try("bj", "u1", 10*time.Second); wait != 0 {
		t.Fatalf("First use should be allowed, got wait %s", wait)
	}
	now = now.Add(4 * time.Second)
	if wait := c.Try("bj", "u1", 10*time.Second); wait != 6*time.Second {
		t.Errorf("Expected 6s wait, got %s", wait)
	}
	if wait := c.Try("bj", "u2", 10*time.Second); wait != 0 {
		t.Errorf("Other users are independent, got wait %s", wait)
	}
	if wait := c.Try("sl", "u1", 10*time.Second); wait != 0 {
		t.Errorf("Other keys are independent, got wait %s", wait)
	}
	now = now.Add(6 * time.Second)
	if wait := c.Try("bj", "u1", 10*time.Second); wait != 0 {
		t.Errorf("Cooldown should have expired, got wait %s", wait)
	}
}

func TestCooldownsCleanup(t *testing.T) {
	now := time.Now()
	c := NewCooldowns()
	c.SetClock(func() time.Time { return now })
	c.Try("bj", "u1", time.Second)
	now = now.Add(time.Hour)
	c.Cleanup(time.Minute)
	if len(c.last) != 0 {
		t.Errorf("Expected cleanup to drop stale entries, %d left", len(c.last))
	}
}
