// Package slots is a three-reel slot machine.
package slots

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/interact"
	"buxbot/utils"
)

type rarity struct {
	name    string
	symbols []string
	weight  float64
}

// Reel composition, most common first
var rarities = []rarity{
	{"common", []string{"🍒", "🍋", "🍊", "🍉"}, 0.75},
	{"uncommon", []string{"🔔", "⭐"}, 0.10},
	{"rare", []string{"💎"}, 0.13},
	{"jackpot", []string{"🎰"}, 0.02},
}

// Three-of-a-kind multipliers
var payouts = map[string]int64{"🍒": 3, "🍋": 3, "🍊": 3, "🍉": 3, "🔔": 5, "⭐": 5, "💎": 10, "🎰": 15}

// PairPayout is paid for exactly two 💎 or two 🎰.
var PairPayout = decimal.NewFromInt(2)

const jackpotSymbol = "🎰"

// Reels is one spin
type Reels [3]string

func (r Reels) String() string {
	return strings.Join(r[:], " | ")
}

// Symbol draws one weighted symbol
func Symbol(rng *rand.Rand) string {
	x := rng.Float64()
	cumulative := 0.0
	for _, rar := range rarities {
		per := rar.weight / float64(len(rar.symbols))
		for _, sym := range rar.symbols {
			cumulative += per
			if x < cumulative {
				return sym
			}
		}
	}
	last := rarities[len(rarities)-1]
	return last.symbols[len(last.symbols)-1]
}

// Spin draws three symbols
func Spin(rng *rand.Rand) Reels {
	return Reels{Symbol(rng), Symbol(rng), Symbol(rng)}
}

// Multiplier returns the payout multiplier of the stake for reels
func Multiplier(r Reels) decimal.Decimal {
	if r[0] == r[1] && r[1] == r[2] {
		return decimal.NewFromInt(payouts[r[0]])
	}
	counts := map[string]int{}
	for _, s := range r {
		counts[s]++
	}
	if counts["💎"] == 2 || counts[jackpotSymbol] == 2 {
		return PairPayout
	}
	return decimal.Zero
}

// Game spins for a wager
type Game struct {
	prompter  interact.Prompter
	channelID string
	rng       *rand.Rand
}

// New creates a slot machine bound to a channel
func New(p interact.Prompter, channelID string, rng *rand.Rand) *Game {
	return &Game{prompter: p, channelID: channelID, rng: rng}
}

// Play spins once; no input is needed.
func (g *Game) Play(ctx context.Context, w *economy.Wager) (economy.Outcome, error) {
	reels := Spin(g.rng)
	mult := Multiplier(reels)
	payout := w.Stake.Mul(mult)

	var msg string
	res := economy.ResultLoss
	switch {
	case reels[0] == jackpotSymbol && mult.GreaterThan(PairPayout):
		res = economy.ResultWin
		msg = fmt.Sprintf("🎰 **JACKPOT!** <@%s> wins %s bux!", w.UserID, utils.FormatBux(payout))
	case mult.IsPositive():
		res = economy.ResultWin
		msg = fmt.Sprintf("<@%s> wins %s bux! (x%s)", w.UserID, utils.FormatBux(payout), mult)
	default:
		msg = fmt.Sprintf("<@%s> lost %s bux. Better luck next spin!", w.UserID, utils.FormatBux(w.Stake))
	}
	if err := g.prompter.Say(ctx, g.channelID, fmt.Sprintf("[ %s ]\n%s", reels, msg)); err != nil {
		return economy.Outcome{}, err
	}
	return economy.Outcome{Payout: payout, Result: res, Detail: reels.String()}, nil
}
