package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"buxbot/models"
	"buxbot/utils"
)

// FileStore keeps one JSON file per user under dir.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FileStore) path(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(s.dir, userID+".json"), nil
}

func (s *FileStore) lock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *FileStore) Load(_ context.Context, userID string) (models.Account, error) {
	p, err := s.path(userID)
	if err != nil {
		return models.Account{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("read account %s: %w", userID, err)
	}
	return decodeRecord(userID, data)
}

func (s *FileStore) Save(_ context.Context, acct models.Account) error {
	l := s.lock(acct.UserID)
	l.Lock()
	defer l.Unlock()
	return s.write(acct)
}

func (s *FileStore) Modify(ctx context.Context, userID string, fn ModifyFunc) (models.Account, error) {
	l := s.lock(userID)
	l.Lock()
	defer l.Unlock()

	loaded, err := s.Load(ctx, userID)
	acct, found, err := loadForModify(userID, loaded, err)
	if err != nil {
		return models.Account{}, err
	}
	if err := fn(&acct, found); err != nil {
		return models.Account{}, err
	}
	acct.UserID = userID
	if err := s.write(acct); err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

func (s *FileStore) write(acct models.Account) error {
	p, err := s.path(acct.UserID)
	if err != nil {
		return err
	}
	data, err := encodeRecord(acct)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(p, data)
}

func (s *FileStore) List(ctx context.Context) ([]models.Account, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]models.Account, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		acct, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, acct)
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }
