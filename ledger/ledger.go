package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"buxbot/models"
)

// DefaultPlaces is the number of decimal places balances are rounded to.
const DefaultPlaces = 2

// Ledger is the account API the rest of the bot uses. Reads never fail;
// writes round and clamp balances before they reach the Store.
type Ledger struct {
	store  Store
	places int32
	log    *slog.Logger
}

// New wraps store. places < 0 falls back to DefaultPlaces.
func New(store Store, places int32, logger *slog.Logger) *Ledger {
	if places < 0 {
		places = DefaultPlaces
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, places: places, log: logger.With("component", "ledger")}
}

// Places is the number of decimal places balances are kept to.
func (l *Ledger) Places() int32 { return l.places }

// Truncate cuts amount down to the ledger precision. Amounts finer than
// that would be lost when the balance is rounded on write.
func (l *Ledger) Truncate(amount decimal.Decimal) decimal.Decimal {
	return amount.Truncate(l.places)
}

// Store returns the backing store.
func (l *Ledger) Store() Store { return l.store }

// normalize applies the persistence rules: rounded, never negative, claim
// date on a UTC day boundary.
func (l *Ledger) normalize(acct *models.Account) {
	acct.Balance = acct.Balance.Round(l.places)
	if acct.Balance.IsNegative() {
		acct.Balance = decimal.Zero
	}
	acct.LastClaim = models.Day(acct.LastClaim)
	if acct.DisplayName == "" {
		acct.DisplayName = models.UnknownName
	}
}

// Get returns the stored account or the default record.
func (l *Ledger) Get(ctx context.Context, userID string) models.Account {
	acct, err := l.store.Load(ctx, userID)
	switch {
	case err == nil:
		return acct
	case errors.Is(err, ErrNotFound):
	case errors.Is(err, ErrCorrupt):
		l.log.Warn("corrupt account treated as absent", "user", userID, "error", err)
	default:
		l.log.Error("account read failed", "user", userID, "error", err)
	}
	return models.DefaultAccount(userID)
}

// Put overwrites the account.
func (l *Ledger) Put(ctx context.Context, acct models.Account) error {
	l.normalize(&acct)
	return l.store.Save(ctx, acct)
}

// Exists reports whether a readable record is stored for the user.
func (l *Ledger) Exists(ctx context.Context, userID string) bool {
	_, err := l.store.Load(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		l.log.Warn("account existence check failed", "user", userID, "error", err)
	}
	return err == nil
}

// ListAll returns every readable account, sorted by user ID.
func (l *Ledger) ListAll(ctx context.Context) []models.Account {
	accts, err := l.store.List(ctx)
	if err != nil {
		l.log.Error("account listing failed", "error", err)
		return nil
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].UserID < accts[j].UserID })
	return accts
}

// Update runs fn as a serialized read-modify-write. fn sees the default
// record with found=false when nothing is stored.
func (l *Ledger) Update(ctx context.Context, userID string, fn ModifyFunc) (models.Account, error) {
	return l.store.Modify(ctx, userID, func(acct *models.Account, found bool) error {
		if err := fn(acct, found); err != nil {
			return err
		}
		l.normalize(acct)
		return nil
	})
}

// Close closes the backing store.
func (l *Ledger) Close() error { return l.store.Close() }
