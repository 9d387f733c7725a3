// Package backup writes dated ledger snapshots and keeps the newest few.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"

	"buxbot/ledger"
	"buxbot/models"
	"buxbot/utils"
)

const (
	DefaultKeep = 5
	MarkerFile  = "last_backup.txt"
	filePrefix  = "backup_"
	jsonExt     = ".json"
	zstdExt     = ".json.zst"
)

// Entry is one account in a snapshot.
type Entry struct {
	Username    string          `json:"username"`
	Bux         decimal.Decimal `json:"bux"`
	LastClaimed string          `json:"last_claimed"`
}

// Snapshot maps user IDs to their accounts.
type Snapshot map[string]Entry

// Options configures a Manager.
type Options struct {
	Dir      string
	Keep     int
	Compress bool
}

// Manager runs backup cycles for a ledger.
type Manager struct {
	ledger *ledger.Ledger
	opts   Options
	log    *slog.Logger
}

// New creates a Manager. Keep below 1 means DefaultKeep.
func New(l *ledger.Ledger, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Keep < 1 {
		opts.Keep = DefaultKeep
	}
	return &Manager{ledger: l, opts: opts, log: logger.With("component", "backup")}
}

// Cycle writes today's snapshot unless the marker says it already exists,
// then prunes old snapshots. It returns the path written, if any.
func (m *Manager) Cycle(ctx context.Context, now time.Time) (string, error) {
	if err := os.MkdirAll(m.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	today := now.UTC().Format(models.DateLayout)
	marker := filepath.Join(m.opts.Dir, MarkerFile)

	var written string
	last, err := os.ReadFile(marker)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read backup marker: %w", err)
	}
	if strings.TrimSpace(string(last)) != today {
		written, err = m.Write(ctx, now)
		if err != nil {
			return "", err
		}
		if err := utils.WriteFileAtomic(marker, []byte(today)); err != nil {
			return written, fmt.Errorf("write backup marker: %w", err)
		}
	}

	removed, err := m.Prune()
	if err != nil {
		return written, err
	}
	if written != "" || len(removed) > 0 {
		m.log.Info("backup cycle", "written", written, "pruned", len(removed))
	}
	return written, nil
}

// Write snapshots every account to a file named for now's date. A failed
// listing writes nothing, so a good older snapshot is never pruned in
// favor of an empty one.
func (m *Manager) Write(ctx context.Context, now time.Time) (string, error) {
	accts, err := m.ledger.Store().List(ctx)
	if err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}
	snap := make(Snapshot, len(accts))
	for _, a := range accts {
		snap[a.UserID] = Entry{
			Username:    a.DisplayName,
			Bux:         a.Balance,
			LastClaimed: a.LastClaim.Format(models.DateLayout),
		}
	}
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	name := filePrefix + now.UTC().Format(models.DateLayout)
	if m.opts.Compress {
		name += zstdExt
		if data, err = compress(data); err != nil {
			return "", err
		}
	} else {
		name += jsonExt
	}
	path := filepath.Join(m.opts.Dir, name)
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// List returns snapshot paths, oldest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.opts.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, filePrefix) {
			continue
		}
		if strings.HasSuffix(n, jsonExt) || strings.HasSuffix(n, zstdExt) {
			out = append(out, filepath.Join(m.opts.Dir, n))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Prune deletes all but the newest Keep snapshots.
func (m *Manager) Prune() ([]string, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(all) <= m.opts.Keep {
		return nil, nil
	}
	old := all[:len(all)-m.opts.Keep]
	for _, p := range old {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove old snapshot: %w", err)
		}
	}
	return old, nil
}

// Read loads a snapshot, compressed or not.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if data, err = io.ReadAll(dec); err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Restore writes every snapshot entry back into the ledger.
func Restore(ctx context.Context, l *ledger.Ledger, snap Snapshot) (int, error) {
	n := 0
	for id, e := range snap {
		acct := models.Account{UserID: id, DisplayName: e.Username, Balance: e.Bux, LastClaim: models.NeverClaimed}
		if t, err := time.Parse(models.DateLayout, e.LastClaimed); err == nil {
			acct.LastClaim = t
		}
		if err := l.Put(ctx, acct); err != nil {
			return n, fmt.Errorf("restore %s: %w", id, err)
		}
		n++
	}
	return n, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
