package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"buxbot/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bux_accounts (
	user_id      TEXT PRIMARY KEY,
	username     TEXT NOT NULL DEFAULT 'unknown',
	balance      NUMERIC NOT NULL DEFAULT 0,
	last_claimed DATE NOT NULL DEFAULT '0001-01-01'
)`

// PostgresStore keeps accounts in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":                    "buxbot",
		"timezone":                            "UTC",
		"statement_timeout":                   "30s",
		"idle_in_transaction_session_timeout": "60s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create accounts table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func scanPostgresAccount(userID string, row pgx.Row) (models.Account, error) {
	var (
		name  string
		bal   string
		claim time.Time
	)
	err := row.Scan(&name, &bal, &claim)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("load account %s: %w", userID, err)
	}
	balance, err := decimal.NewFromString(bal)
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %s: bad balance %q", ErrCorrupt, userID, bal)
	}
	return models.Account{
		UserID:      userID,
		DisplayName: name,
		Balance:     balance,
		LastClaim:   models.Day(claim),
	}, nil
}

func (s *PostgresStore) Load(ctx context.Context, userID string) (models.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT username, balance::text, last_claimed FROM bux_accounts WHERE user_id = $1`, userID)
	return scanPostgresAccount(userID, row)
}

func upsertPostgres(ctx context.Context, tx pgx.Tx, acct models.Account) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bux_accounts (user_id, username, balance, last_claimed)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			balance = EXCLUDED.balance,
			last_claimed = EXCLUDED.last_claimed`,
		acct.UserID, acct.DisplayName, acct.Balance.String(), models.Day(acct.LastClaim))
	if err != nil {
		return fmt.Errorf("save account %s: %w", acct.UserID, err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, acct models.Account) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return upsertPostgres(ctx, tx, acct)
	})
}

// Modify holds an advisory lock on the user for the transaction so that two
// first-time writers cannot both see an absent row.
func (s *PostgresStore) Modify(ctx context.Context, userID string, fn ModifyFunc) (models.Account, error) {
	var out models.Account
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
			return fmt.Errorf("lock account %s: %w", userID, err)
		}
		row := tx.QueryRow(ctx,
			`SELECT username, balance::text, last_claimed FROM bux_accounts WHERE user_id = $1 FOR UPDATE`, userID)
		loaded, err := scanPostgresAccount(userID, row)
		acct, found, err := loadForModify(userID, loaded, err)
		if err != nil {
			return err
		}
		if err := fn(&acct, found); err != nil {
			return err
		}
		acct.UserID = userID
		if err := upsertPostgres(ctx, tx, acct); err != nil {
			return err
		}
		out = acct
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, username, balance::text, last_claimed FROM bux_accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var (
			id, name, bal string
			claim         time.Time
		)
		if err := rows.Scan(&id, &name, &bal, &claim); err != nil {
			return nil, err
		}
		balance, err := decimal.NewFromString(bal)
		if err != nil {
			continue
		}
		out = append(out, models.Account{UserID: id, DisplayName: name, Balance: balance, LastClaim: models.Day(claim)})
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
