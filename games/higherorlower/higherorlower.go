// Package higherorlower is a card streak game: guess whether the next card
// is higher or lower and cash out before you miss.
package higherorlower

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/interact"
	"buxbot/utils"
)

// Streak multipliers (index = streak-1)
var streakMultipliers = []decimal.Decimal{
	decimal.RequireFromString("0.5"), decimal.NewFromInt(1), decimal.RequireFromString("1.5"),
	decimal.NewFromInt(2), decimal.RequireFromString("2.5"), decimal.NewFromInt(3),
	decimal.NewFromInt(4), decimal.NewFromInt(5), decimal.NewFromInt(7), decimal.NewFromInt(10),
}

// MaxStreak ends the game with an automatic cash out.
var MaxStreak = len(streakMultipliers)

// PromptTimeout is how long a guess may take.
const PromptTimeout = 300 * time.Second

// Multiplier returns the bonus multiplier for streak; zero before the first win.
func Multiplier(streak int) decimal.Decimal {
	if streak <= 0 {
		return decimal.Zero
	}
	idx := streak - 1
	if idx >= len(streakMultipliers) {
		idx = len(streakMultipliers) - 1
	}
	return streakMultipliers[idx]
}

// Winnings is the cash-out value of bet at streak: bet + bet*multiplier.
func Winnings(bet decimal.Decimal, streak int) decimal.Decimal {
	if streak <= 0 {
		return decimal.Zero
	}
	return bet.Add(bet.Mul(Multiplier(streak)))
}

// Guess outcome
type Verdict int

const (
	Correct Verdict = iota
	Tie
	Wrong
)

// Judge compares next against prev for a higher (true) or lower guess.
func Judge(prev, next utils.Card, higher bool) Verdict {
	p, n := prev.HighLowValue(), next.HighLowValue()
	switch {
	case p == n:
		return Tie
	case higher == (n > p):
		return Correct
	default:
		return Wrong
	}
}

// Game runs a streak through a Prompter
type Game struct {
	prompter  interact.Prompter
	channelID string
	timeout   time.Duration
	newDeck   func() *utils.Deck
}

// New creates a game bound to a channel
func New(p interact.Prompter, channelID string, rng *rand.Rand) *Game {
	return &Game{
		prompter:  p,
		channelID: channelID,
		timeout:   PromptTimeout,
		newDeck:   func() *utils.Deck { return utils.NewDeck(rng) },
	}
}

// Play runs until a wrong guess, a cash out or a timeout. A timeout cashes
// out an active streak and refunds otherwise.
func (g *Game) Play(ctx context.Context, w *economy.Wager) (economy.Outcome, error) {
	deck := g.newDeck()
	bet := w.Stake
	current := deck.Deal()
	streak := 0

	for {
		if streak >= MaxStreak {
			return g.cashOut(ctx, w, streak, "Maximum streak reached!"), nil
		}
		options := []string{interact.Higher, interact.Lower}
		text := fmt.Sprintf("Current card: **%s** | Streak: %d", current, streak)
		if streak > 0 {
			options = append(options, interact.CashOut)
			text += fmt.Sprintf(" | Cash out: %s bux", utils.FormatBux(Winnings(bet, streak)))
		}
		text += fmt.Sprintf("\nReact %s for higher, %s for lower", interact.Higher, interact.Lower)
		if streak > 0 {
			text += fmt.Sprintf(" or %s to cash out", interact.CashOut)
		}

		ans, err := g.prompter.Ask(ctx, interact.Prompt{
			ChannelID: g.channelID,
			Text:      text,
			Options:   options,
			Users:     []string{w.UserID},
			Timeout:   g.timeout,
		})
		if errors.Is(err, interact.ErrTimeout) {
			if streak > 0 {
				return g.cashOut(ctx, w, streak, "Game timed out. Cashed out."), nil
			}
			g.say(ctx, "Game timed out. Your bet was returned.")
			return economy.Outcome{Payout: w.Stake, Result: economy.ResultRefund, Detail: "timeout"}, nil
		}
		if err != nil {
			return economy.Outcome{}, err
		}
		if ans.Option == interact.CashOut {
			return g.cashOut(ctx, w, streak, "Cashed out!"), nil
		}

		next := deck.Deal()
		switch Judge(current, next, ans.Option == interact.Higher) {
		case Correct:
			streak++
			g.say(ctx, fmt.Sprintf("Next card: **%s**. You guessed correctly!", next))
		case Tie:
			g.say(ctx, fmt.Sprintf("Next card: **%s**. It's a tie! The streak continues.", next))
		case Wrong:
			g.say(ctx, fmt.Sprintf("Next card: **%s**. Wrong guess! <@%s> lost %s bux.", next, w.UserID, utils.FormatBux(bet)))
			return economy.Outcome{Result: economy.ResultLoss, Detail: fmt.Sprintf("streak %d", streak)}, nil
		}
		current = next
	}
}

func (g *Game) cashOut(ctx context.Context, w *economy.Wager, streak int, reason string) economy.Outcome {
	win := Winnings(w.Stake, streak)
	g.say(ctx, fmt.Sprintf("%s <@%s> wins %s bux with a streak of %d (x%s).", reason, w.UserID, utils.FormatBux(win), streak, Multiplier(streak)))
	return economy.Outcome{Payout: win, Result: economy.ResultWin, Detail: fmt.Sprintf("streak %d", streak)}
}

func (g *Game) say(ctx context.Context, text string) {
	_ = g.prompter.Say(ctx, g.channelID, text)
}
