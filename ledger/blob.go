package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"buxbot/models"
	"buxbot/utils"
)

// BlobStore keeps every account in a single JSON mapping file.
type BlobStore struct {
	path string
	mu   sync.Mutex
}

// NewBlobStore uses path as the mapping file; its directory is created if needed.
func NewBlobStore(path string) (*BlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &BlobStore{path: path}, nil
}

// readAll returns the raw per-user entries. A missing file is an empty map.
func (s *BlobStore) readAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	entries := map[string]json.RawMessage{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return entries, nil
}

func (s *BlobStore) writeAll(entries map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(s.path, data)
}

func (s *BlobStore) Load(_ context.Context, userID string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(userID)
}

func (s *BlobStore) loadLocked(userID string) (models.Account, error) {
	entries, err := s.readAll()
	if err != nil {
		return models.Account{}, err
	}
	raw, ok := entries[userID]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return decodeRecord(userID, raw)
}

func (s *BlobStore) Save(_ context.Context, acct models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(acct)
}

func (s *BlobStore) putLocked(acct models.Account) error {
	entries, err := s.readAll()
	if err != nil {
		return err
	}
	data, err := encodeRecord(acct)
	if err != nil {
		return err
	}
	entries[acct.UserID] = data
	return s.writeAll(entries)
}

// Modify fails when the mapping file itself is unreadable rather than
// overwriting every other account.
func (s *BlobStore) Modify(_ context.Context, userID string, fn ModifyFunc) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return models.Account{}, err
	}
	var loaded models.Account
	if raw, ok := entries[userID]; ok {
		loaded, err = decodeRecord(userID, raw)
	} else {
		err = ErrNotFound
	}
	acct, found, err := loadForModify(userID, loaded, err)
	if err != nil {
		return models.Account{}, err
	}
	if err := fn(&acct, found); err != nil {
		return models.Account{}, err
	}
	acct.UserID = userID
	data, err := encodeRecord(acct)
	if err != nil {
		return models.Account{}, err
	}
	entries[userID] = data
	if err := s.writeAll(entries); err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

func (s *BlobStore) List(_ context.Context) ([]models.Account, error) {
	s.mu.Lock()
	entries, err := s.readAll()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]models.Account, 0, len(entries))
	for id, raw := range entries {
		acct, err := decodeRecord(id, raw)
		if err != nil {
			continue
		}
		out = append(out, acct)
	}
	return out, nil
}

func (s *BlobStore) Close() error { return nil }
