package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed process can leave a user stuck busy.
const DefaultTTL = 15 * time.Minute

// Redis is a Guard shared between processes through SET NX.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedis creates a guard on client. ttl <= 0 uses DefaultTTL.
func NewRedis(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, log: logger.With("component", "session")}
}

func sessionKey(userID string) string { return "session:" + userID }

// TryAcquire reports false when Redis cannot be reached.
func (r *Redis) TryAcquire(ctx context.Context, userID string) bool {
	ok, err := r.client.SetNX(ctx, sessionKey(userID), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		r.log.Error("session acquire failed", "user", userID, "error", err)
		return false
	}
	return ok
}

func (r *Redis) Release(ctx context.Context, userID string) {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		r.log.Error("session release failed", "user", userID, "error", err)
	}
}

func (r *Redis) Busy(ctx context.Context, userID string) bool {
	n, err := r.client.Exists(ctx, sessionKey(userID)).Result()
	if err != nil {
		r.log.Error("session lookup failed", "user", userID, "error", err)
		return false
	}
	return n > 0
}
