package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/ledger"
	"buxbot/models"
)

var day0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	store, err := ledger.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	l := ledger.New(store, 2, nil)
	ctx := context.Background()
	for id, bal := range map[string]string{"1": "300", "2": "12.5"} {
		acct := models.DefaultAccount(id)
		acct.DisplayName = "user" + id
		acct.Balance = decimal.RequireFromString(bal)
		acct.LastClaim = day0
		if err := l.Put(ctx, acct); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	return l
}

func TestCycleOncePerDay(t *testing.T) {
	dir := t.TempDir()
	m := New(newLedger(t), Options{Dir: dir}, nil)
	ctx := context.Background()

	first, err := m.Cycle(ctx, day0)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if filepath.Base(first) != "backup_2024-06-01.json" {
		t.Errorf("written = %q", first)
	}
	again, err := m.Cycle(ctx, day0.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if again != "" {
		t.Errorf("second cycle same day wrote %q", again)
	}
	marker, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil || string(marker) != "2024-06-01" {
		t.Errorf("marker = %q, %v", marker, err)
	}
}

func TestCycleKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	m := New(newLedger(t), Options{Dir: dir, Keep: 5}, nil)
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		if _, err := m.Cycle(ctx, day0.AddDate(0, 0, i)); err != nil {
			t.Fatalf("Cycle %d: %v", i, err)
		}
	}
	files, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("kept %d snapshots, want 5: %v", len(files), files)
	}
	if got := filepath.Base(files[0]); got != "backup_2024-06-05.json" {
		t.Errorf("oldest kept = %s", got)
	}
	if got := filepath.Base(files[4]); got != "backup_2024-06-09.json" {
		t.Errorf("newest kept = %s", got)
	}
}

type failingList struct {
	ledger.Store
}

func (failingList) List(context.Context) ([]models.Account, error) {
	return nil, errors.New("listing unavailable")
}

func TestCycleListFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	good := New(newLedger(t), Options{Dir: dir, Keep: 1}, nil)
	kept, err := good.Cycle(context.Background(), day0)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	store, err := ledger.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := New(ledger.New(failingList{store}, 2, nil), Options{Dir: dir, Keep: 1}, nil)
	written, err := m.Cycle(context.Background(), day0.AddDate(0, 0, 1))
	if err == nil {
		t.Fatalf("Cycle succeeded with a failing store, wrote %q", written)
	}
	files, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0] != kept {
		t.Errorf("snapshots = %v, want only %s", files, kept)
	}
	marker, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil || string(marker) != "2024-06-01" {
		t.Errorf("marker = %q, %v", marker, err)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := newLedger(t)
	m := New(l, Options{Dir: dir, Compress: true}, nil)

	path, err := m.Cycle(context.Background(), day0)
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if !strings.HasSuffix(path, ".json.zst") {
		t.Fatalf("path = %s", path)
	}
	snap, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(snap) != 2 || snap["2"].Username != "user2" || !snap["2"].Bux.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap["1"].LastClaimed != "2024-06-01" {
		t.Errorf("last claimed = %q", snap["1"].LastClaimed)
	}
}

func TestRestore(t *testing.T) {
	src := newLedger(t)
	m := New(src, Options{Dir: t.TempDir()}, nil)
	path, err := m.Write(context.Background(), day0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	snap, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	store, err := ledger.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dst := ledger.New(store, 2, nil)
	n, err := Restore(context.Background(), dst, snap)
	if err != nil || n != 2 {
		t.Fatalf("Restore = %d, %v", n, err)
	}
	got := dst.Get(context.Background(), "1")
	if !got.Balance.Equal(decimal.NewFromInt(300)) || !got.ClaimedOn(day0) {
		t.Errorf("restored account = %+v", got)
	}
}

func TestPruneIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"notes.txt", "backup_x.csv", MarkerFile} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := New(newLedger(t), Options{Dir: dir, Keep: 1}, nil)
	files, err := m.List()
	if err != nil || len(files) != 0 {
		t.Errorf("List = %v, %v", files, err)
	}
}
