package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"buxbot/models"
)

const (
	redisKeyPrefix   = "account:"
	redisMaxAttempts = 50
)

// RedisStore keeps each account as a JSON string under account:<id>.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an already connected client. The client is not closed
// by Close since it is usually shared with the session guard.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(userID string) string { return redisKeyPrefix + userID }

func (s *RedisStore) Load(ctx context.Context, userID string) (models.Account, error) {
	return loadRedis(ctx, s.client, userID)
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadRedis(ctx context.Context, c redisGetter, userID string) (models.Account, error) {
	data, err := c.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get account %s: %w", userID, err)
	}
	return decodeRecord(userID, data)
}

func (s *RedisStore) Save(ctx context.Context, acct models.Account) error {
	data, err := encodeRecord(acct)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(acct.UserID), data, 0).Err()
}

// Modify retries the optimistic transaction when another writer touches the
// key between WATCH and EXEC.
func (s *RedisStore) Modify(ctx context.Context, userID string, fn ModifyFunc) (models.Account, error) {
	key := redisKey(userID)
	var out models.Account

	txf := func(tx *redis.Tx) error {
		loaded, err := loadRedis(ctx, tx, userID)
		acct, found, err := loadForModify(userID, loaded, err)
		if err != nil {
			return err
		}
		if err := fn(&acct, found); err != nil {
			return err
		}
		acct.UserID = userID
		data, err := encodeRecord(acct)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			out = acct
		}
		return err
	}

	for i := 0; i < redisMaxAttempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return models.Account{}, err
	}
	return models.Account{}, fmt.Errorf("modify account %s: too much contention", userID)
}

func (s *RedisStore) List(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), redisKeyPrefix)
		acct, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, acct)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return nil }
