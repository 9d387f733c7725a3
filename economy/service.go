// Package economy implements the bux rules on top of the ledger.
package economy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/ledger"
	"buxbot/models"
	"buxbot/session"
	"buxbot/utils"
)

// Options tunes the grant amounts. Zero values fall back to the defaults.
type Options struct {
	StartingGrant decimal.Decimal
	DailyGrant    decimal.Decimal
	WelfareGrant  decimal.Decimal
}

// Service is the single entry point for balance changes.
type Service struct {
	ledger    *ledger.Ledger
	guard     session.Guard
	cooldowns *utils.Cooldowns
	opts      Options
	now       func() time.Time
	log       *slog.Logger
}

// NewService wires the ledger and the session guard together.
func NewService(l *ledger.Ledger, g session.Guard, opts Options, logger *slog.Logger) *Service {
	if opts.StartingGrant.IsZero() {
		opts.StartingGrant = DefaultStartingGrant
	}
	if opts.DailyGrant.IsZero() {
		opts.DailyGrant = DefaultDailyGrant
	}
	if opts.WelfareGrant.IsZero() {
		opts.WelfareGrant = DefaultWelfareGrant
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:    l,
		guard:     g,
		cooldowns: utils.NewCooldowns(),
		opts:      opts,
		now:       time.Now,
		log:       logger.With("component", "economy"),
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.cooldowns.SetClock(now)
}

// Ledger exposes the underlying ledger.
func (s *Service) Ledger() *ledger.Ledger { return s.ledger }

// Guard exposes the session guard.
func (s *Service) Guard() session.Guard { return s.guard }

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Exists reports whether the user has claimed at least once.
func (s *Service) Exists(ctx context.Context, userID string) bool {
	return s.ledger.Exists(ctx, userID)
}

// Account returns the user's record (or the default one).
func (s *Service) Account(ctx context.Context, userID string) models.Account {
	return s.ledger.Get(ctx, userID)
}

// CheckCooldown consumes one use of key if it is available.
func (s *Service) CheckCooldown(key, userID string, d time.Duration) error {
	if wait := s.cooldowns.Try(key, userID, d); wait > 0 {
		return &WaitError{Err: ErrOnCooldown, Remaining: wait}
	}
	return nil
}

// PruneCooldowns drops cooldown entries older than maxAge.
func (s *Service) PruneCooldowns(maxAge time.Duration) {
	s.cooldowns.Cleanup(maxAge)
}

// ClaimResult describes a successful daily claim.
type ClaimResult struct {
	Account models.Account
	Granted decimal.Decimal
	First   bool
}

// Claim grants the daily reward once per UTC day. A second claim on the same
// day fails with a WaitError wrapping ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, userID, name string) (ClaimResult, error) {
	now := s.now()
	var res ClaimResult
	acct, err := s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		if found && a.ClaimedOn(now) {
			return &WaitError{Err: ErrAlreadyClaimed, Remaining: utils.UntilNextDay(now)}
		}
		if found {
			res.Granted = s.opts.DailyGrant
			a.Balance = a.Balance.Add(s.opts.DailyGrant)
		} else {
			res.First = true
			res.Granted = s.opts.StartingGrant
			a.Balance = s.opts.StartingGrant
		}
		a.LastClaim = now
		if name != "" {
			a.DisplayName = name
		}
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}
	res.Account = acct
	s.log.Info("daily claimed", "user", userID, "granted", res.Granted.String(), "first", res.First)
	return res, nil
}

// AutoClaimAll grants the daily reward to every account that has not claimed
// today and returns how many were granted.
func (s *Service) AutoClaimAll(ctx context.Context) (int, error) {
	now := s.now()
	granted := 0
	for _, acct := range s.ledger.ListAll(ctx) {
		if acct.ClaimedOn(now) {
			continue
		}
		applied := false
		_, err := s.ledger.Update(ctx, acct.UserID, func(a *models.Account, found bool) error {
			if !found || a.ClaimedOn(now) {
				return nil
			}
			a.Balance = a.Balance.Add(s.opts.DailyGrant)
			a.LastClaim = now
			applied = true
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return granted, ctx.Err()
			}
			s.log.Error("auto-claim failed", "user", acct.UserID, "error", err)
			continue
		}
		if applied {
			granted++
		}
	}
	return granted, nil
}

// BalanceResult is the balance as it was before any welfare grant.
type BalanceResult struct {
	Account models.Account
	Welfare decimal.Decimal
}

// Balance reports the user's balance and tops up empty accounts with welfare.
func (s *Service) Balance(ctx context.Context, userID string) (BalanceResult, error) {
	if !s.ledger.Exists(ctx, userID) {
		return BalanceResult{}, ErrNotClaimed
	}
	var res BalanceResult
	_, err := s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		if !found {
			return ErrNotClaimed
		}
		res.Account = *a
		if !a.Balance.IsPositive() {
			res.Welfare = s.opts.WelfareGrant
			a.Balance = a.Balance.Add(s.opts.WelfareGrant)
		}
		return nil
	})
	if err != nil {
		return BalanceResult{}, err
	}
	if res.Welfare.IsPositive() {
		s.log.Info("welfare granted", "user", userID, "amount", res.Welfare.String())
	}
	return res, nil
}

// LeaderboardResult holds the top accounts and the caller's 1-based rank.
type LeaderboardResult struct {
	Top  []models.Account
	Rank int
}

// Leaderboard ranks every account by balance, highest first.
func (s *Service) Leaderboard(ctx context.Context, userID string, n int) (LeaderboardResult, error) {
	if !s.ledger.Exists(ctx, userID) {
		return LeaderboardResult{}, ErrNotClaimed
	}
	all := s.ledger.ListAll(ctx)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Balance.GreaterThan(all[j].Balance)
	})
	var res LeaderboardResult
	for i, a := range all {
		if a.UserID == userID {
			res.Rank = i + 1
			break
		}
	}
	if n > len(all) {
		n = len(all)
	}
	res.Top = all[:n]
	return res, nil
}

// Grant adds amount to the user, creating the account if needed.
func (s *Service) Grant(ctx context.Context, userID, name string, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}
	acct, err := s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		if !found && name != "" {
			a.DisplayName = name
		}
		a.Balance = a.Balance.Add(amount)
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	s.log.Info("bux granted", "user", userID, "amount", amount.String())
	return acct, nil
}

// Revoke removes amount from the user. It fails without side effects when
// the account is missing or short.
func (s *Service) Revoke(ctx context.Context, userID string, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}
	acct, err := s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		if !found || a.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		a.Balance = a.Balance.Sub(amount)
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	s.log.Info("bux revoked", "user", userID, "amount", amount.String())
	return acct, nil
}

// Debit removes amount from an existing account or fails with
// ErrInsufficientFunds.
func (s *Service) Debit(ctx context.Context, userID string, amount decimal.Decimal) (models.Account, error) {
	return s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		if !found {
			return ErrNotClaimed
		}
		if a.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		a.Balance = a.Balance.Sub(amount)
		return nil
	})
}

// Credit adds amount to an existing account. Non-positive amounts are a no-op.
func (s *Service) Credit(ctx context.Context, userID string, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return s.ledger.Get(ctx, userID), nil
	}
	return s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		a.Balance = a.Balance.Add(amount)
		return nil
	})
}

// Fine removes up to amount from the user, never going below zero, and
// returns what was taken.
func (s *Service) Fine(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	taken := decimal.Zero
	_, err := s.ledger.Update(ctx, userID, func(a *models.Account, found bool) error {
		if !found {
			return ErrNotClaimed
		}
		taken = decimal.Min(amount, decimal.Max(a.Balance, decimal.Zero))
		a.Balance = a.Balance.Sub(taken)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return taken, nil
}

// Transfer moves amount from one user to another. With clamp set, a short
// payer hands over everything they have instead of failing. It returns the
// amount actually moved.
func (s *Service) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, clamp bool) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, nil
	}
	moved := amount
	_, err := s.ledger.Update(ctx, from, func(a *models.Account, found bool) error {
		if !found {
			return ErrNotClaimed
		}
		if a.Balance.LessThan(amount) {
			if !clamp {
				return ErrInsufficientFunds
			}
			moved = decimal.Max(a.Balance, decimal.Zero)
		}
		a.Balance = a.Balance.Sub(moved)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := s.Credit(ctx, to, moved); err != nil {
		// Put the payer back as they were.
		if _, rerr := s.Credit(ctx, from, moved); rerr != nil {
			s.log.Error("transfer rollback failed", "from", from, "to", to, "amount", moved.String(), "error", rerr)
		}
		return decimal.Zero, fmt.Errorf("credit %s: %w", to, err)
	}
	return moved, nil
}
