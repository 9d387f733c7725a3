package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prefix != "!" || cfg.StoreBackend != "file" || cfg.GuardBackend != "memory" {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.StartingGrant.Equal(decimal.NewFromInt(300)) || !cfg.WelfareGrant.Equal(decimal.NewFromInt(100)) {
		t.Errorf("grants = %s/%s", cfg.StartingGrant, cfg.WelfareGrant)
	}
	if cfg.BackupKeep != 5 || cfg.JobInterval != time.Hour || cfg.BackupDir != "data/backups" {
		t.Errorf("backup settings = %d %s %s", cfg.BackupKeep, cfg.JobInterval, cfg.BackupDir)
	}
	h, m, err := cfg.ParleyClock()
	if err != nil || h != 19 || m != 30 {
		t.Errorf("ParleyClock = %d:%d, %v", h, m, err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PREFIX", "$")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("DAILY_GRANT", "125.5")
	t.Setenv("ADMIN_IDS", "1,2")
	t.Setenv("PARLEY_AT", "07:05")
	t.Setenv("GUARD_BACKEND", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prefix != "$" || cfg.StoreBackend != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.DailyGrant.Equal(decimal.RequireFromString("125.5")) {
		t.Errorf("daily grant = %s", cfg.DailyGrant)
	}
	if !cfg.IsAdmin("2") || cfg.IsAdmin("3") {
		t.Errorf("admins = %v", cfg.AdminIDs)
	}
	if !cfg.UsesRedis() {
		t.Errorf("redis guard not detected")
	}
	if h, m, _ := cfg.ParleyClock(); h != 7 || m != 5 {
		t.Errorf("ParleyClock = %d:%d", h, m)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Prefix: "!", StoreBackend: "file", GuardBackend: "memory", JobInterval: time.Hour, ParleyAt: "19:30"}
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown store", func(c *Config) { c.StoreBackend = "mongo" }, false},
		{"postgres without url", func(c *Config) { c.StoreBackend = "postgres" }, false},
		{"postgres with url", func(c *Config) { c.StoreBackend = "postgres"; c.DatabaseURL = "postgres://x" }, true},
		{"unknown guard", func(c *Config) { c.GuardBackend = "etcd" }, false},
		{"bad parley time", func(c *Config) { c.ParleyAt = "7pm" }, false},
		{"negative places", func(c *Config) { c.LedgerPlaces = -1 }, false},
		{"empty prefix", func(c *Config) { c.Prefix = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
