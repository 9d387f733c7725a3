// Package unlocker is a safe-cracking guessing game with a 3-digit code.
package unlocker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/interact"
	"buxbot/utils"
)

const (
	CodeLength     = 3
	MaxAttempts    = 5
	AttemptTimeout = 60 * time.Second
	// FreeInvalid is how many malformed guesses are forgiven; later ones
	// use up an attempt.
	FreeInvalid = 3
)

// Crack multipliers by attempt (index = attempt-1)
var crackPayouts = []decimal.Decimal{
	decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(3),
	decimal.NewFromInt(2), decimal.RequireFromString("1.5"),
}

// ConsolationPayout is paid when the safe stays shut but a guess got all
// but one digit in place.
var ConsolationPayout = decimal.RequireFromString("0.75")

// ErrBadGuess rejects input that is not CodeLength digits from 1 to 9.
var ErrBadGuess = errors.New("guess must be 3 digits from 1 to 9")

// Code is the safe combination
type Code string

// NewCode draws a code of digits 1-9
func NewCode(rng *rand.Rand) Code {
	var b strings.Builder
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(byte('1' + rng.Intn(9)))
	}
	return Code(b.String())
}

// ParseGuess normalizes a guess like "4 7 1" or "471"
func ParseGuess(s string) (Code, error) {
	s = strings.Join(strings.Fields(s), "")
	if len(s) != CodeLength {
		return "", ErrBadGuess
	}
	for _, r := range s {
		if r < '1' || r > '9' {
			return "", ErrBadGuess
		}
	}
	return Code(s), nil
}

// InPlace counts digits of guess matching c at the same position
func (c Code) InPlace(guess Code) int {
	n := 0
	for i := 0; i < len(c) && i < len(guess); i++ {
		if c[i] == guess[i] {
			n++
		}
	}
	return n
}

// CrackMultiplier returns the payout multiplier for cracking on attempt
func CrackMultiplier(attempt int) decimal.Decimal {
	if attempt < 1 || attempt > len(crackPayouts) {
		return decimal.Zero
	}
	return crackPayouts[attempt-1]
}

// Game runs the safe through a Prompter
type Game struct {
	prompter  interact.Prompter
	channelID string
	rng       *rand.Rand
	timeout   time.Duration
}

// New creates a safe bound to a channel
func New(p interact.Prompter, channelID string, rng *rand.Rand) *Game {
	return &Game{prompter: p, channelID: channelID, rng: rng, timeout: AttemptTimeout}
}

// Play lets the player guess until the code cracks or attempts run out.
// The first FreeInvalid malformed guesses do not use an attempt.
func (g *Game) Play(ctx context.Context, w *economy.Wager) (economy.Outcome, error) {
	code := NewCode(g.rng)
	best, invalid := 0, 0
	g.say(ctx, fmt.Sprintf("🔒 <@%s>, crack the safe! Send a %d-digit code using digits 1-9. You have %d attempts.",
		w.UserID, CodeLength, MaxAttempts))

	for attempt := 1; attempt <= MaxAttempts; {
		msg, err := g.prompter.AwaitMessage(ctx, g.channelID, w.UserID, g.timeout)
		if errors.Is(err, interact.ErrTimeout) {
			g.say(ctx, "⏰ The guard came back. Your bet was returned.")
			return economy.Outcome{}, err
		}
		if err != nil {
			return economy.Outcome{}, err
		}
		guess, err := ParseGuess(msg)
		if err != nil {
			invalid++
			if invalid <= FreeInvalid {
				g.say(ctx, "That's not a valid code. Use 3 digits from 1 to 9, like `472`.")
				continue
			}
			g.say(ctx, fmt.Sprintf("That's not a valid code either. It costs you an attempt. %d attempts left.", MaxAttempts-attempt))
			attempt++
			continue
		}

		hits := code.InPlace(guess)
		if hits == CodeLength {
			mult := CrackMultiplier(attempt)
			payout := w.Stake.Mul(mult)
			g.say(ctx, fmt.Sprintf("🔓 The safe opens on attempt %d! <@%s> wins %s bux (x%s)!",
				attempt, w.UserID, utils.FormatBux(payout), mult))
			return economy.Outcome{Payout: payout, Result: economy.ResultWin, Detail: fmt.Sprintf("attempt %d", attempt)}, nil
		}
		if hits > best {
			best = hits
		}
		left := MaxAttempts - attempt
		g.say(ctx, fmt.Sprintf("%d digits in place. %d attempts left.", hits, left))
		attempt++
	}

	if best == CodeLength-1 {
		payout := w.Stake.Mul(ConsolationPayout)
		g.say(ctx, fmt.Sprintf("The safe stays shut (code %s), but you got close. <@%s> keeps %s bux.",
			code, w.UserID, utils.FormatBux(payout)))
		return economy.Outcome{Payout: payout, Result: economy.ResultLoss, Detail: "consolation"}, nil
	}
	g.say(ctx, fmt.Sprintf("The safe stays shut. The code was %s. <@%s> lost %s bux.", code, w.UserID, utils.FormatBux(w.Stake)))
	return economy.Outcome{Result: economy.ResultLoss}, nil
}

func (g *Game) say(ctx context.Context, text string) {
	_ = g.prompter.Say(ctx, g.channelID, text)
}
