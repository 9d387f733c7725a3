// Package ledger persists per-user bux accounts behind a pluggable Store.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/models"
)

var (
	// ErrNotFound is returned by Load when no record exists for the user.
	ErrNotFound = errors.New("ledger: account not found")
	// ErrCorrupt is returned by Load when a record exists but cannot be decoded.
	ErrCorrupt = errors.New("ledger: corrupt account record")
)

// ModifyFunc mutates acct in place. found is false when acct is a default
// record standing in for a missing or corrupt one. Returning an error aborts
// the write.
type ModifyFunc func(acct *models.Account, found bool) error

// Store is the persistence backend contract.
type Store interface {
	Load(ctx context.Context, userID string) (models.Account, error)
	Save(ctx context.Context, acct models.Account) error
	// Modify is an atomic read-modify-write of a single key.
	Modify(ctx context.Context, userID string, fn ModifyFunc) (models.Account, error)
	// List returns every decodable record; unreadable ones are skipped.
	List(ctx context.Context) ([]models.Account, error)
	Close() error
}

// record is the on-disk shape shared by the file, blob and redis backends.
type record struct {
	Username    string      `json:"username"`
	Bux         json.Number `json:"bux"`
	LastClaimed string      `json:"last_claimed"`
}

func encodeRecord(acct models.Account) ([]byte, error) {
	return json.Marshal(toRecord(acct))
}

func toRecord(acct models.Account) record {
	return record{
		Username:    acct.DisplayName,
		Bux:         json.Number(acct.Balance.String()),
		LastClaimed: models.Day(acct.LastClaim).Format(models.DateLayout),
	}
}

func decodeRecord(userID string, data []byte) (models.Account, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Account{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, userID, err)
	}
	return fromRecord(userID, rec)
}

func fromRecord(userID string, rec record) (models.Account, error) {
	acct := models.DefaultAccount(userID)
	if rec.Username != "" {
		acct.DisplayName = rec.Username
	}
	if rec.Bux != "" {
		bal, err := decimal.NewFromString(rec.Bux.String())
		if err != nil {
			return models.Account{}, fmt.Errorf("%w: %s: bad balance %q", ErrCorrupt, userID, rec.Bux)
		}
		acct.Balance = bal
	}
	if rec.LastClaimed != "" {
		day, err := time.ParseInLocation(models.DateLayout, rec.LastClaimed, time.UTC)
		if err != nil {
			return models.Account{}, fmt.Errorf("%w: %s: bad claim date %q", ErrCorrupt, userID, rec.LastClaimed)
		}
		acct.LastClaim = day
	}
	return acct, nil
}

// loadForModify maps a Load result to the (account, found) pair handed to a
// ModifyFunc. Corrupt records are replaced by the default.
func loadForModify(userID string, acct models.Account, err error) (models.Account, bool, error) {
	switch {
	case err == nil:
		return acct, true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCorrupt):
		return models.DefaultAccount(userID), false, nil
	default:
		return models.Account{}, false, err
	}
}
