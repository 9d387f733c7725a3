package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownName is the display name of a synthesized account.
const UnknownName = "unknown"

// DateLayout is the calendar-day layout used for claim dates on disk.
const DateLayout = "2006-01-02"

// NeverClaimed is the far-past claim date of a synthesized account.
var NeverClaimed = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// Account represents a user's ledger record
type Account struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Balance     decimal.Decimal `json:"balance"`
	LastClaim   time.Time       `json:"last_claim"`
}

// DefaultAccount returns the record served for users with nothing persisted.
func DefaultAccount(userID string) Account {
	return Account{
		UserID:      userID,
		DisplayName: UnknownName,
		Balance:     decimal.Zero,
		LastClaim:   NeverClaimed,
	}
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClaimedOn reports whether the account claimed on the UTC day containing t.
func (a Account) ClaimedOn(t time.Time) bool {
	return !Day(a.LastClaim).Before(Day(t))
}

// Rank represents a balance tier
type Rank struct {
	Name     string
	Icon     string
	Required int64
}

// Ranks are ordered from the highest tier down.
var Ranks = []Rank{
	{"Grandmaster", "🏆", 30000},
	{"Emerald", "❇️", 15000},
	{"Diamond", "💎", 7000},
	{"Gold", "🏅", 3000},
	{"Silver", "🥈", 1000},
	{"Bronze", "🥉", 0},
}

// GetRank returns the tier the account's balance falls into
func (a Account) GetRank() Rank {
	for _, r := range Ranks {
		if a.Balance.GreaterThanOrEqual(decimal.NewFromInt(r.Required)) {
			return r
		}
	}
	return Ranks[len(Ranks)-1]
}
