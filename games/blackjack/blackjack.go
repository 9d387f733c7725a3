// Package blackjack is a single-hand blackjack against the dealer.
package blackjack

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

// Blackjack Game Constants
const (
	DealerStandValue = 17
	PromptTimeout    = 30 * time.Second
)

// Payout multipliers of the total stake
var (
	NaturalPayout = decimal.RequireFromString("2.5")
	WinPayout     = decimal.NewFromInt(2)
	PushPayout    = decimal.NewFromInt(1)
)

// Result names
const (
	ResultNatural = "Blackjack"
	ResultBust    = "Bust"
	ResultWin     = "Win"
	ResultPush    = "Push"
	ResultLose    = "Lose"
)

// Round holds the cards of one game
type Round struct {
	Deck    *utils.Deck
	Player  *utils.Hand
	Dealer  *utils.Hand
	Doubled bool
}

// NewRound deals two cards each from deck
func NewRound(deck *utils.Deck) *Round {
	r := &Round{Deck: deck, Player: &utils.Hand{}, Dealer: &utils.Hand{}}
	r.Player.AddCard(deck.Deal())
	r.Player.AddCard(deck.Deal())
	r.Dealer.AddCard(deck.Deal())
	r.Dealer.AddCard(deck.Deal())
	return r
}

// Hit deals one card to the player
func (r *Round) Hit() {
	r.Player.AddCard(r.Deck.Deal())
}

// PlayDealer draws until the dealer reaches the stand value
func (r *Round) PlayDealer() {
	if r.Player.IsBusted() {
		return
	}
	for r.Dealer.Value() < DealerStandValue {
		r.Dealer.AddCard(r.Deck.Deal())
	}
}

// Resolve returns the result and the payout multiplier of the stake
func (r *Round) Resolve() (string, decimal.Decimal) {
	if r.Player.IsBlackjack() {
		return ResultNatural, NaturalPayout
	}
	player := r.Player.Value()
	dealer := r.Dealer.Value()
	switch {
	case player > 21:
		return ResultBust, decimal.Zero
	case dealer > 21:
		return ResultWin, WinPayout
	case player > dealer:
		return ResultWin, WinPayout
	case player == dealer:
		return ResultPush, PushPayout
	default:
		return ResultLose, decimal.Zero
	}
}

// Game plays blackjack through a Prompter
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

// Play runs one hand. A prompt timeout stands.
func (g *Game) Play(ctx context.Context, w *economy.Wager) (economy.Outcome, error) {
	bet := w.Stake
	r := NewRound(g.newDeck())
	g.say(ctx, fmt.Sprintf("**Blackjack!**\nYour cards: %s\nDealer's cards: %s ?", r.Player, r.Dealer.Cards[0]))

	if r.Player.IsBlackjack() {
		return g.finish(ctx, w, r), nil
	}

turn:
	for r.Player.Value() < 21 {
		ans, err := g.prompter.Ask(ctx, interact.Prompt{
			ChannelID: g.channelID,
			Text: fmt.Sprintf("Your current hand: %s (Total: %d)\nReact with %s to hit, %s to stay, or %s to double down.",
				r.Player, r.Player.Value(), interact.Yes, interact.No, interact.Double),
			Options: []string{interact.Yes, interact.No, interact.Double},
			Users:   []string{w.UserID},
			Timeout: g.timeout,
		})
		if errors.Is(err, interact.ErrTimeout) {
			g.say(ctx, "You took too long! You stand.")
			break
		}
		if err != nil {
			return economy.Outcome{}, err
		}

		switch ans.Option {
		case interact.Yes:
			r.Hit()
			if r.Player.IsBusted() {
				g.say(ctx, fmt.Sprintf("**Busted!** Your hand: %s (Total: %d)", r.Player, r.Player.Value()))
				break turn
			}
		case interact.Double:
			if err := w.Raise(ctx, bet); err != nil {
				if !errors.Is(err, economy.ErrInsufficientFunds) {
					return economy.Outcome{}, err
				}
				g.say(ctx, "You don't have enough bux to double down. This will be counted as a hit.")
				r.Hit()
				continue
			}
			r.Doubled = true
			r.Hit()
			g.say(ctx, fmt.Sprintf("You chose to double down! Your hand: %s (Total: %d)", r.Player, r.Player.Value()))
			break turn
		default:
			break turn
		}
	}

	return g.finish(ctx, w, r), nil
}

func (g *Game) finish(ctx context.Context, w *economy.Wager, r *Round) economy.Outcome {
	r.PlayDealer()
	result, mult := r.Resolve()
	payout := w.Stake.Mul(mult)
	mention := fmt.Sprintf("<@%s>", w.UserID)

	var msg string
	switch result {
	case ResultNatural:
		msg = fmt.Sprintf("%s wins 2.5x the bet! You win %s bux!", mention, utils.FormatBux(payout))
	case ResultBust:
		msg = fmt.Sprintf("%s lost the bet of %s bux. You busted!", mention, utils.FormatBux(w.Stake))
	case ResultWin:
		msg = fmt.Sprintf("%s wins %s bux!", mention, utils.FormatBux(payout))
		if r.Dealer.IsBusted() {
			msg = "Dealer busted! " + msg
		}
	case ResultPush:
		msg = fmt.Sprintf("%s, it's a tie! You get your %s bux back.", mention, utils.FormatBux(payout))
	default:
		msg = fmt.Sprintf("Dealer wins! %s lost the bet of %s bux.", mention, utils.FormatBux(w.Stake))
	}
	if result != ResultNatural && result != ResultBust {
		g.say(ctx, fmt.Sprintf("Dealer's cards: %s (Total: %d)", r.Dealer, r.Dealer.Value()))
	}
	g.say(ctx, msg)

	res := economy.ResultLoss
	switch {
	case payout.GreaterThan(w.Stake):
		res = economy.ResultWin
	case payout.Equal(w.Stake):
		res = economy.ResultPush
	}
	return economy.Outcome{
		Payout: payout,
		Result: res,
		Detail: fmt.Sprintf("%s: %d vs %d", result, r.Player.Value(), r.Dealer.Value()),
	}
}

func (g *Game) say(ctx context.Context, text string) {
	_ = g.prompter.Say(ctx, g.channelID, text)
}
