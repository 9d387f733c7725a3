// Package steal lets a player try to rob another for a prize or a fine.
package steal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/models"
)

var (
	ErrTargetBroke = errors.New("target has no bux")
	ErrSelfTarget  = errors.New("cannot steal from yourself")
)

// Kind of an outcome
type Kind int

const (
	Nothing Kind = iota
	Prize
	Penalty
)

// Entry is one row of the outcome table
type Entry struct {
	Chance  float64
	Kind    Kind
	Amount  int64
	Message string
}

// Table is checked cumulatively in order; rolls past the end are Nothing.
// The chances add up to 1.01, so with rolls in [0, 1) that never happens.
var Table = []Entry{
	{0.01, Prize, 1000, "%[1]s got away with stealing **%[3]s bux** from %[2]s!"},
	{0.05, Prize, 750, "%[1]s successfully stole **%[3]s bux** from %[2]s!"},
	{0.10, Prize, 500, "%[1]s snuck away with **%[3]s bux** from %[2]s!"},
	{0.50, Penalty, 250, "%[1]s tried to steal from %[2]s but %[2]s got the better of them and robbed them of **%[3]s bux**!"},
	{0.25, Penalty, 500, "%[1]s was caught stealing from %[2]s and had to pay **%[3]s bux** as a fine!"},
	{0.10, Penalty, 750, "%[1]s got arrested for stealing from %[2]s and had to pay **%[3]s bux** for bail!"},
}

// Pick returns the table entry for a roll in [0, 1).
func Pick(roll float64) Entry {
	cumulative := 0.0
	for _, e := range Table {
		cumulative += e.Chance
		if roll < cumulative {
			return e
		}
	}
	return Entry{Kind: Nothing, Message: "%[1]s failed to steal, no rewards or penalties!"}
}

// Result of an attempt
type Result struct {
	Entry   Entry
	Moved   decimal.Decimal
	Message string
	// Balance is the thief's balance afterwards.
	Balance decimal.Decimal
}

// Attempt rolls the table for thief against target. A prize larger than the
// target's balance moves nothing; a penalty is clamped to the thief's
// balance and paid to the target.
func Attempt(ctx context.Context, svc *economy.Service, rng *rand.Rand, thief, target models.Member) (Result, error) {
	if thief.UserID == target.UserID {
		return Result{}, ErrSelfTarget
	}
	if !svc.Exists(ctx, thief.UserID) {
		return Result{}, economy.ErrNotClaimed
	}
	g := svc.Guard()
	if !g.TryAcquire(ctx, thief.UserID) {
		return Result{}, &economy.BusyError{UserID: thief.UserID}
	}
	defer g.Release(context.WithoutCancel(ctx), thief.UserID)

	if !svc.Exists(ctx, target.UserID) || !svc.Account(ctx, target.UserID).Balance.IsPositive() {
		return Result{}, ErrTargetBroke
	}

	e := Pick(rng.Float64())
	res := Result{Entry: e}
	amount := decimal.NewFromInt(e.Amount)
	switch e.Kind {
	case Prize:
		moved, err := svc.Transfer(ctx, target.UserID, thief.UserID, amount, false)
		if errors.Is(err, economy.ErrInsufficientFunds) {
			res.Message = fmt.Sprintf("%s doesn't have enough bux to steal!", target.DisplayName())
			break
		}
		if err != nil {
			return Result{}, err
		}
		res.Moved = moved
		res.Message = fmt.Sprintf(e.Message, thief.DisplayName(), target.Mention(), moved)
	case Penalty:
		moved, err := svc.Transfer(ctx, thief.UserID, target.UserID, amount, true)
		if err != nil {
			return Result{}, err
		}
		res.Moved = moved.Neg()
		res.Message = fmt.Sprintf(e.Message, thief.DisplayName(), target.Mention(), moved)
	default:
		res.Message = fmt.Sprintf(e.Message, thief.DisplayName())
	}
	res.Balance = svc.Account(ctx, thief.UserID).Balance
	return res, nil
}
