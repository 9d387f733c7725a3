package economy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/ledger"
	"buxbot/session"
)

var testNow = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *session.Memory) {
	t.Helper()
	store, err := ledger.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	guard := session.NewMemory()
	svc := NewService(ledger.New(store, 2, nil), guard, Options{}, nil)
	now := testNow
	svc.SetClock(func() time.Time { return now })
	return svc, guard
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fund creates an account holding exactly amount.
func fund(t *testing.T, svc *Service, userID, amount string) {
	t.Helper()
	if _, err := svc.Claim(context.Background(), userID, "user"+userID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	acct := svc.Account(context.Background(), userID)
	acct.Balance = d(amount)
	if err := svc.Ledger().Put(context.Background(), acct); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestClaimFirstTime(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Claim(ctx, "1", "alice")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !res.First || !res.Account.Balance.Equal(d("300")) {
		t.Errorf("Expected first claim of 300, got %+v", res)
	}
	if !svc.Exists(ctx, "1") {
		t.Error("Expected account to exist after claim")
	}
	if res.Account.DisplayName != "alice" {
		t.Errorf("Expected display name alice, got %q", res.Account.DisplayName)
	}
}

func TestClaimTwiceSameDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Claim(ctx, "1", "alice"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Claim(ctx, "1", "alice")
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("Expected ErrAlreadyClaimed, got %v", err)
	}
	var wait *WaitError
	if !errors.As(err, &wait) || wait.Remaining != 9*time.Hour {
		t.Errorf("Expected 9h until midnight, got %v", err)
	}
	if bal := svc.Account(ctx, "1").Balance; !bal.Equal(d("300")) {
		t.Errorf("Second claim must not change balance, got %s", bal)
	}
}

func TestClaimNextDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := testNow
	svc.SetClock(func() time.Time { return now })

	svc.Claim(ctx, "1", "alice")
	now = now.Add(10 * time.Hour)
	res, err := svc.Claim(ctx, "1", "alice2")
	if err != nil {
		t.Fatalf("Claim next day: %v", err)
	}
	if res.First || !res.Account.Balance.Equal(d("600")) {
		t.Errorf("Expected daily top-up to 600, got %+v", res)
	}
	if res.Account.DisplayName != "alice2" {
		t.Errorf("Expected refreshed name, got %q", res.Account.DisplayName)
	}
}

func TestAutoClaimAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := testNow
	svc.SetClock(func() time.Time { return now })

	svc.Claim(ctx, "1", "a")
	svc.Claim(ctx, "2", "b")
	now = now.Add(24 * time.Hour)
	svc.Claim(ctx, "2", "b")

	n, err := svc.AutoClaimAll(ctx)
	if err != nil {
		t.Fatalf("AutoClaimAll: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 auto-claim, got %d", n)
	}
	if bal := svc.Account(ctx, "1").Balance; !bal.Equal(d("600")) {
		t.Errorf("Expected 600, got %s", bal)
	}
	if n, _ := svc.AutoClaimAll(ctx); n != 0 {
		t.Errorf("Second run should grant nothing, got %d", n)
	}
}

func TestBalanceWelfare(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Balance(ctx, "1"); !errors.Is(err, ErrNotClaimed) {
		t.Errorf("Expected ErrNotClaimed, got %v", err)
	}

	fund(t, svc, "1", "0")
	res, err := svc.Balance(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Account.Balance.IsZero() || !res.Welfare.Equal(d("100")) {
		t.Errorf("Expected welfare of 100 on empty account, got %+v", res)
	}
	if bal := svc.Account(ctx, "1").Balance; !bal.Equal(d("100")) {
		t.Errorf("Expected 100 after welfare, got %s", bal)
	}

	res, _ = svc.Balance(ctx, "1")
	if !res.Welfare.IsZero() {
		t.Error("No welfare for a positive balance")
	}
}

func TestLeaderboard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	amounts := map[string]string{"1": "50", "2": "900", "3": "300", "4": "10", "5": "70", "6": "80", "7": "5", "8": "1", "9": "2000"}
	for id, amt := range amounts {
		fund(t, svc, id, amt)
	}

	res, err := svc.Leaderboard(ctx, "8", LeaderboardSize)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Top) != 7 {
		t.Fatalf("Expected top 7, got %d", len(res.Top))
	}
	if res.Top[0].UserID != "9" || res.Top[1].UserID != "2" {
		t.Errorf("Unexpected order %v, %v", res.Top[0].UserID, res.Top[1].UserID)
	}
	if res.Rank != 9 {
		t.Errorf("Expected rank 9, got %d", res.Rank)
	}
}

func TestGrantRevoke(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acct, err := svc.Grant(ctx, "1", "bob", d("250"))
	if err != nil || !acct.Balance.Equal(d("250")) || acct.DisplayName != "bob" {
		t.Fatalf("Grant: %+v %v", acct, err)
	}
	if _, err := svc.Revoke(ctx, "1", d("300")); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := svc.Revoke(ctx, "2", d("1")); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds for missing account, got %v", err)
	}
	if svc.Exists(ctx, "2") {
		t.Error("Failed revoke must not create an account")
	}
	acct, err = svc.Revoke(ctx, "1", d("100"))
	if err != nil || !acct.Balance.Equal(d("150")) {
		t.Errorf("Revoke: %+v %v", acct, err)
	}
	if _, err := svc.Grant(ctx, "1", "", d("-5")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "a", "100")
	fund(t, svc, "b", "0")

	if _, err := svc.Transfer(ctx, "a", "b", d("150"), false); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	moved, err := svc.Transfer(ctx, "a", "b", d("150"), true)
	if err != nil {
		t.Fatal(err)
	}
	if !moved.Equal(d("100")) {
		t.Errorf("Expected clamped transfer of 100, got %s", moved)
	}
	if !svc.Account(ctx, "a").Balance.IsZero() || !svc.Account(ctx, "b").Balance.Equal(d("100")) {
		t.Error("Balances do not reflect the transfer")
	}
}
