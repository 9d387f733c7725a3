package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"buxbot/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id      TEXT PRIMARY KEY,
	username     TEXT NOT NULL,
	balance      TEXT NOT NULL,
	last_claimed TEXT NOT NULL
);`

// SQLiteStore keeps accounts in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes every transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		sqliteSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAccount(userID string, row rowScanner) (models.Account, error) {
	var rec record
	var bal string
	err := row.Scan(&rec.Username, &bal, &rec.LastClaimed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("load account %s: %w", userID, err)
	}
	rec.Bux = json.Number(bal)
	return fromRecord(userID, rec)
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT username, balance, last_claimed FROM accounts WHERE user_id = ?`, userID)
	return scanSQLiteAccount(userID, row)
}

func (s *SQLiteStore) Save(ctx context.Context, acct models.Account) error {
	return upsertSQLite(ctx, s.db, acct)
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSQLite(ctx context.Context, db sqlExecer, acct models.Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, username, balance, last_claimed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			balance = excluded.balance,
			last_claimed = excluded.last_claimed`,
		acct.UserID, acct.DisplayName, acct.Balance.String(),
		models.Day(acct.LastClaim).Format(models.DateLayout))
	if err != nil {
		return fmt.Errorf("save account %s: %w", acct.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) Modify(ctx context.Context, userID string, fn ModifyFunc) (models.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Account{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT username, balance, last_claimed FROM accounts WHERE user_id = ?`, userID)
	loaded, err := scanSQLiteAccount(userID, row)
	acct, found, err := loadForModify(userID, loaded, err)
	if err != nil {
		return models.Account{}, err
	}
	if err := fn(&acct, found); err != nil {
		return models.Account{}, err
	}
	acct.UserID = userID
	if err := upsertSQLite(ctx, tx, acct); err != nil {
		return models.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Account{}, fmt.Errorf("commit: %w", err)
	}
	return acct, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, username, balance, last_claimed FROM accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var id, bal string
		var rec record
		if err := rows.Scan(&id, &rec.Username, &bal, &rec.LastClaimed); err != nil {
			return nil, err
		}
		rec.Bux = json.Number(bal)
		acct, err := fromRecord(id, rec)
		if err != nil {
			continue
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
