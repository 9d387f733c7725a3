// Package jobs runs the bot's periodic maintenance.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"buxbot/games/parley"
)

// CooldownMaxAge is how long an idle cooldown entry is kept.
const CooldownMaxAge = time.Hour

type Backuper interface {
	Cycle(ctx context.Context, now time.Time) (string, error)
}

type Claimer interface {
	AutoClaimAll(ctx context.Context) (int, error)
	PruneCooldowns(maxAge time.Duration)
}

type Resolver interface {
	Resolve(ctx context.Context, now time.Time, channelID string) (parley.Resolution, error)
}

// Options configures a Runner.
type Options struct {
	Interval        time.Duration
	ParleyHour      int
	ParleyMinute    int
	ParleyChannelID string
}

// Runner drives the hourly and daily jobs.
type Runner struct {
	backups Backuper
	econ    Claimer
	parley  Resolver
	opts    Options
	now     func() time.Time
	log     *slog.Logger
}

// New creates a Runner. A nil parley disables the daily resolution.
func New(b Backuper, c Claimer, p Resolver, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Runner{backups: b, econ: c, parley: p, opts: opts, now: time.Now, log: logger.With("component", "jobs")}
}

// Periodic runs one backup cycle, the automatic claim and cooldown pruning.
// Failures are logged so one broken job does not stop the others.
func (r *Runner) Periodic(ctx context.Context) {
	now := r.now()
	if r.backups != nil {
		if path, err := r.backups.Cycle(ctx, now); err != nil {
			r.log.Error("backup failed", "error", err)
		} else if path != "" {
			r.log.Info("backup written", "path", path)
		}
	}
	n, err := r.econ.AutoClaimAll(ctx)
	if err != nil {
		r.log.Error("auto claim failed", "error", err)
	} else if n > 0 {
		r.log.Info("auto claim", "accounts", n)
	}
	r.econ.PruneCooldowns(CooldownMaxAge)
}

// Daily resolves the parley.
func (r *Runner) Daily(ctx context.Context) {
	if r.parley == nil {
		return
	}
	res, err := r.parley.Resolve(ctx, r.now(), r.opts.ParleyChannelID)
	if err != nil {
		r.log.Error("parley resolution failed", "error", err)
		return
	}
	if !res.Skipped {
		r.log.Info("parley resolved", "winners", len(res.Winners), "failed", len(res.Failed))
	}
}

// NextDaily returns the next hour:minute at or after now, in now's location.
func NextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is done. The periodic job runs once immediately and
// then every Interval.
func (r *Runner) Run(ctx context.Context) error {
	r.Periodic(ctx)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	daily := time.NewTimer(time.Until(NextDaily(r.now(), r.opts.ParleyHour, r.opts.ParleyMinute)))
	defer daily.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("jobs stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Periodic(ctx)
		case <-daily.C:
			r.Daily(ctx)
			daily.Reset(time.Until(NextDaily(r.now(), r.opts.ParleyHour, r.opts.ParleyMinute)))
		}
	}
}
