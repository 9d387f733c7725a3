package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/models"
)

func newTestLedger(t *testing.T, places int32) (*Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return New(s, places, nil), dir
}

func TestGetDefault(t *testing.T) {
	l, _ := newTestLedger(t, 2)
	acct := l.Get(context.Background(), "1")
	if acct.DisplayName != models.UnknownName || !acct.Balance.IsZero() || !acct.LastClaim.Equal(models.NeverClaimed) {
		t.Errorf("Expected default record, got %+v", acct)
	}
	if l.Exists(context.Background(), "1") {
		t.Error("Get must not create a record")
	}
}

func TestGetCorruptIsDefault(t *testing.T) {
	l, dir := newTestLedger(t, 2)
	if err := os.WriteFile(filepath.Join(dir, "3.json"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	acct := l.Get(context.Background(), "3")
	if !acct.Balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", acct.Balance)
	}
	if l.Exists(context.Background(), "3") {
		t.Error("Corrupt record should not count as existing")
	}
}

func TestPutRoundsAndClamps(t *testing.T) {
	tests := []struct {
		name   string
		places int32
		in     string
		want   string
	}{
		{"round two places", 2, "10.005", "10.01"},
		{"whole numbers", 0, "10.6", "11"},
		{"clamp negative", 2, "-40", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLedger(t, tt.places)
			ctx := context.Background()
			acct := models.DefaultAccount("1")
			acct.Balance = decimal.RequireFromString(tt.in)
			if err := l.Put(ctx, acct); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got := l.Get(ctx, "1")
			if !got.Balance.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Expected %s, got %s", tt.want, got.Balance)
			}
		})
	}
}

func TestUpdateNormalizes(t *testing.T) {
	l, _ := newTestLedger(t, 2)
	ctx := context.Background()
	acct, err := l.Update(ctx, "1", func(a *models.Account, found bool) error {
		a.Balance = decimal.NewFromInt(-5)
		a.LastClaim = time.Date(2024, 2, 3, 17, 45, 0, 0, time.UTC)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !acct.Balance.IsZero() {
		t.Errorf("Expected clamp to zero, got %s", acct.Balance)
	}
	if acct.LastClaim.Hour() != 0 {
		t.Errorf("Expected claim date truncated to day, got %s", acct.LastClaim)
	}
	if !l.Exists(ctx, "1") {
		t.Error("Update should create the record")
	}
}

func TestListAllSorted(t *testing.T) {
	l, _ := newTestLedger(t, 2)
	ctx := context.Background()
	for _, id := range []string{"3", "1", "2"} {
		if err := l.Put(ctx, models.DefaultAccount(id)); err != nil {
			t.Fatal(err)
		}
	}
	all := l.ListAll(ctx)
	if len(all) != 3 || all[0].UserID != "1" || all[2].UserID != "3" {
		t.Errorf("Unexpected listing %+v", all)
	}
}
