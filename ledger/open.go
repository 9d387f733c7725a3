package ledger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendBlob     = "blob"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a Store.
type Options struct {
	Backend     string
	DataDir     string
	DatabaseURL string
	Redis       redis.UniversalClient
}

// Open builds the Store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(filepath.Join(opts.DataDir, "accounts"))
	case BackendBlob:
		return NewBlobStore(filepath.Join(opts.DataDir, "bux.json"))
	case BackendSQLite:
		return OpenSQLite(ctx, filepath.Join(opts.DataDir, "bux.db"))
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return OpenPostgres(ctx, opts.DatabaseURL)
	case BackendRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis backend requires REDIS_ADDR")
		}
		return NewRedisStore(opts.Redis), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
