package economy

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"buxbot/interact"
	"buxbot/utils"
)

// TimeoutPolicy decides what a wager does when the player stops answering.
type TimeoutPolicy int

const (
	// ForfeitOnTimeout keeps the stake.
	ForfeitOnTimeout TimeoutPolicy = iota
	// RefundOnTimeout returns the stake.
	RefundOnTimeout
	// SettleOnTimeout lets the game resolve the timeout itself; a game that
	// still reports interact.ErrTimeout is refunded.
	SettleOnTimeout
)

func (p TimeoutPolicy) String() string {
	switch p {
	case ForfeitOnTimeout:
		return "forfeit"
	case RefundOnTimeout:
		return "refund"
	case SettleOnTimeout:
		return "settle"
	default:
		return fmt.Sprintf("TimeoutPolicy(%d)", int(p))
	}
}

// Policy is the per-game configuration of the wager flow.
type Policy struct {
	Game string
	// MaxBet of zero means no limit.
	MaxBet   decimal.Decimal
	Timeout  TimeoutPolicy
	Cooldown time.Duration
}

// PlayRequest starts a wager.
type PlayRequest struct {
	UserID string
	Bet    string
	Policy Policy
}

// Outcome is what a game reports back. Payout is the total credited to the
// player, stake included.
type Outcome struct {
	Payout decimal.Decimal
	Result string
	Detail string
}

// Common Outcome.Result values.
const (
	ResultWin    = "win"
	ResultLoss   = "loss"
	ResultPush   = "push"
	ResultRefund = "refund"
)

// Game runs one round against a funded wager.
type Game func(ctx context.Context, w *Wager) (Outcome, error)

// Wager is the money at risk in one play.
type Wager struct {
	ID     string
	UserID string
	Game   string
	// Stake is the total debited so far.
	Stake decimal.Decimal

	svc *Service
}

// Raise debits more stake from the player, as in a double down.
func (w *Wager) Raise(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, err := w.svc.Debit(ctx, w.UserID, amount); err != nil {
		return err
	}
	w.Stake = w.Stake.Add(amount)
	return nil
}

// Balance returns the player's balance outside the wager.
func (w *Wager) Balance(ctx context.Context) decimal.Decimal {
	return w.svc.ledger.Get(ctx, w.UserID).Balance
}

// Settlement is the result of a finished wager.
type Settlement struct {
	WagerID  string
	Game     string
	Stake    decimal.Decimal
	Payout   decimal.Decimal
	Balance  decimal.Decimal
	Outcome  Outcome
	Refunded bool
	TimedOut bool
}

// Net is the player's gain (negative for a loss).
func (s Settlement) Net() decimal.Decimal { return s.Payout.Sub(s.Stake) }

// Play runs the shared wager flow: cooldown, account, session guard, bet
// parsing, funds, debit, game, credit. The guard is held for the whole flow.
// Game errors other than timeouts and declines refund the stake and are
// returned wrapped together with the settlement.
func (s *Service) Play(ctx context.Context, req PlayRequest, game Game) (Settlement, error) {
	pol := req.Policy
	if err := s.CheckCooldown(pol.Game, req.UserID, pol.Cooldown); err != nil {
		return Settlement{}, err
	}
	if !s.ledger.Exists(ctx, req.UserID) {
		return Settlement{}, ErrNotClaimed
	}
	if !s.guard.TryAcquire(ctx, req.UserID) {
		return Settlement{}, &BusyError{UserID: req.UserID}
	}
	defer s.guard.Release(context.WithoutCancel(ctx), req.UserID)

	bet, err := s.parseBet(ctx, req.UserID, req.Bet, pol)
	if err != nil {
		return Settlement{}, err
	}

	w := &Wager{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Game:   pol.Game,
		svc:    s,
	}
	if err := w.Raise(ctx, bet); err != nil {
		return Settlement{}, err
	}
	log := s.log.With("wager", w.ID, "game", pol.Game, "user", req.UserID)
	log.Debug("wager placed", "stake", bet.String())

	out, gameErr := runGame(ctx, game, w)

	st := Settlement{WagerID: w.ID, Game: pol.Game, Stake: w.Stake, Outcome: out}
	var retErr error
	switch {
	case gameErr == nil:
		st.Payout = out.Payout
	case errors.Is(gameErr, interact.ErrDeclined):
		st.Refunded = true
	case errors.Is(gameErr, interact.ErrTimeout):
		st.TimedOut = true
		if pol.Timeout == ForfeitOnTimeout {
			st.Payout = out.Payout
		} else {
			st.Refunded = true
		}
	default:
		st.Refunded = true
		retErr = fmt.Errorf("%s: %w", pol.Game, gameErr)
	}
	if st.Refunded {
		st.Payout = w.Stake
		st.Outcome.Result = ResultRefund
	}

	st.Payout = s.ledger.Truncate(st.Payout)

	// Winnings are owed even if the caller gave up waiting.
	acct, err := s.Credit(context.WithoutCancel(ctx), req.UserID, st.Payout)
	if err != nil {
		log.Error("payout failed", "payout", st.Payout.String(), "error", err)
		return st, fmt.Errorf("credit payout: %w", err)
	}
	st.Balance = acct.Balance

	if retErr != nil {
		log.Error("game failed, stake refunded", "error", gameErr)
	} else {
		log.Info("wager settled", "stake", st.Stake.String(), "payout", st.Payout.String(), "result", st.Outcome.Result)
	}
	return st, retErr
}

func (s *Service) parseBet(ctx context.Context, userID, raw string, pol Policy) (decimal.Decimal, error) {
	balance := s.ledger.Get(ctx, userID).Balance
	bet, err := s.ParseBet(raw, balance)
	if err != nil {
		return decimal.Zero, err
	}
	if pol.MaxBet.IsPositive() && bet.GreaterThan(pol.MaxBet) {
		return decimal.Zero, ErrBetTooLarge
	}
	if bet.GreaterThan(balance) {
		return decimal.Zero, ErrInsufficientFunds
	}
	return bet, nil
}

// ParseBet parses a bet against balance and cuts it to the ledger
// precision. A bet that truncates to zero is ErrInvalidBet.
func (s *Service) ParseBet(raw string, balance decimal.Decimal) (decimal.Decimal, error) {
	bet, err := utils.ParseBet(raw, balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	bet = s.ledger.Truncate(bet)
	if !bet.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: bet is below the smallest unit", ErrInvalidBet)
	}
	return bet, nil
}

func runGame(ctx context.Context, game Game, w *Wager) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return game(ctx, w)
}
