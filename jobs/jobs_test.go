package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"buxbot/games/parley"
)

type fakeJobs struct {
	mu        sync.Mutex
	backups   int
	claims    int
	prunes    int
	resolves  int
	backupErr error
}

func (f *fakeJobs) Cycle(context.Context, time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backups++
	return "backup.json", f.backupErr
}

func (f *fakeJobs) AutoClaimAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	return 2, nil
}

func (f *fakeJobs) PruneCooldowns(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes++
}

func (f *fakeJobs) Resolve(context.Context, time.Time, string) (parley.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves++
	return parley.Resolution{}, nil
}

func TestNextDaily(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2024, 6, 1, 10, 0, 0, 0, loc), time.Date(2024, 6, 1, 19, 30, 0, 0, loc)},
		{time.Date(2024, 6, 1, 19, 30, 0, 0, loc), time.Date(2024, 6, 2, 19, 30, 0, 0, loc)},
		{time.Date(2024, 6, 1, 23, 0, 0, 0, loc), time.Date(2024, 6, 2, 19, 30, 0, 0, loc)},
		{time.Date(2024, 12, 31, 20, 0, 0, 0, loc), time.Date(2025, 1, 1, 19, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		if got := NextDaily(tt.now, 19, 30); !got.Equal(tt.want) {
			t.Errorf("NextDaily(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestPeriodicContinuesAfterBackupError(t *testing.T) {
	f := &fakeJobs{backupErr: errors.New("disk full")}
	r := New(f, f, f, Options{}, nil)
	r.Periodic(context.Background())
	if f.backups != 1 || f.claims != 1 || f.prunes != 1 {
		t.Errorf("backups=%d claims=%d prunes=%d", f.backups, f.claims, f.prunes)
	}
}

func TestDailyWithoutParley(t *testing.T) {
	f := &fakeJobs{}
	New(f, f, nil, Options{}, nil).Daily(context.Background())
	New(f, f, f, Options{}, nil).Daily(context.Background())
	if f.resolves != 1 {
		t.Errorf("resolves = %d, want 1", f.resolves)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	f := &fakeJobs{}
	r := New(f, f, f, Options{Interval: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims < 2 {
		t.Errorf("claims = %d, want at least 2", f.claims)
	}
}
