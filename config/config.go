// Package config loads bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"buxbot/ledger"
)

// Config holds every setting the bot reads at startup.
type Config struct {
	BotToken string   `env:"BOT_TOKEN"`
	Prefix   string   `env:"PREFIX" envDefault:"!"`
	Port     string   `env:"PORT" envDefault:"8080"`
	AdminIDs []string `env:"ADMIN_IDS" envSeparator:","`

	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	DatabaseURL  string `env:"DATABASE_URL"`
	LedgerPlaces int32  `env:"LEDGER_PLACES" envDefault:"2"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	GuardBackend string        `env:"GUARD_BACKEND" envDefault:"memory"`
	GuardTTL     time.Duration `env:"GUARD_TTL" envDefault:"15m"`

	StartingGrant decimal.Decimal `env:"STARTING_GRANT" envDefault:"300"`
	DailyGrant    decimal.Decimal `env:"DAILY_GRANT" envDefault:"300"`
	WelfareGrant  decimal.Decimal `env:"WELFARE_GRANT" envDefault:"100"`

	BackupDir      string        `env:"BACKUP_DIR"`
	BackupKeep     int           `env:"BACKUP_KEEP" envDefault:"5"`
	BackupCompress bool          `env:"BACKUP_COMPRESS" envDefault:"false"`
	JobInterval    time.Duration `env:"JOB_INTERVAL" envDefault:"1h"`

	ParleyAt        string `env:"PARLEY_AT" envDefault:"19:30"`
	ParleyChannelID string `env:"PARLEY_CHANNEL_ID"`

	FightHouseFighters int           `env:"FIGHT_HOUSE_FIGHTERS" envDefault:"0"`
	FightPause         time.Duration `env:"FIGHT_PAUSE" envDefault:"2s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(cfg.DataDir, "backups")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the parser cannot.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case ledger.BackendFile, ledger.BackendBlob, ledger.BackendSQLite, ledger.BackendRedis:
	case ledger.BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.GuardBackend != "memory" && c.GuardBackend != "redis" {
		errs = append(errs, fmt.Errorf("unknown GUARD_BACKEND %q", c.GuardBackend))
	}
	if c.Prefix == "" {
		errs = append(errs, errors.New("PREFIX must not be empty"))
	}
	if c.LedgerPlaces < 0 {
		errs = append(errs, errors.New("LEDGER_PLACES must not be negative"))
	}
	if c.JobInterval <= 0 {
		errs = append(errs, errors.New("JOB_INTERVAL must be positive"))
	}
	if _, _, err := c.ParleyClock(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParleyClock returns the hour and minute of the daily parley resolution.
func (c Config) ParleyClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.ParleyAt)
	if err != nil {
		return 0, 0, fmt.Errorf("PARLEY_AT %q: want HH:MM", c.ParleyAt)
	}
	return t.Hour(), t.Minute(), nil
}

// UsesRedis reports whether any component needs a Redis client.
func (c Config) UsesRedis() bool {
	return c.StoreBackend == ledger.BackendRedis || c.GuardBackend == "redis"
}

// IsAdmin reports whether userID is listed in ADMIN_IDS.
func (c Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
