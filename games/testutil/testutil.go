// Package testutil builds a funded economy for game tests.
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/ledger"
	"buxbot/session"
)

// NewService returns a service on a temporary file ledger.
func NewService(t testing.TB) *economy.Service {
	t.Helper()
	store, err := ledger.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return economy.NewService(ledger.New(store, 2, nil), session.NewMemory(), economy.Options{}, nil)
}

// Fund sets userID's balance to exactly amount, claiming first if the
// account does not exist yet. It may be called again to reset a balance.
func Fund(t testing.TB, svc *economy.Service, userID, amount string) {
	t.Helper()
	ctx := context.Background()
	if !svc.Exists(ctx, userID) {
		if _, err := svc.Claim(ctx, userID, "user"+userID); err != nil {
			t.Fatalf("Claim: %v", err)
		}
	}
	acct := svc.Account(ctx, userID)
	acct.Balance = decimal.RequireFromString(amount)
	if err := svc.Ledger().Put(ctx, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

// Balance returns the user's balance as a string.
func Balance(svc *economy.Service, userID string) string {
	return svc.Account(context.Background(), userID).Balance.String()
}
