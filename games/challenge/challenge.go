// Package challenge settles a side bet between two users who both vote on
// the winner.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/interact"
	"buxbot/models"
	"buxbot/session"
	"buxbot/utils"
)

const (
	AcceptTimeout = 60 * time.Second
	VoteTimeout   = 120 * time.Second
)

// FlakePenalty is charged to both players when their votes disagree.
var FlakePenalty = decimal.NewFromInt(25)

var ErrSelfChallenge = errors.New("cannot challenge yourself")

// Status of a finished challenge
type Status int

const (
	Settled Status = iota
	Declined
	Expired
	Voided
	Flaked
	OpponentShort
)

// Result of a challenge
type Result struct {
	ID     string
	Status Status
	Winner models.Member
	Loser  models.Member
	Moved  decimal.Decimal
}

// Challenge is one bet between two members
type Challenge struct {
	svc       *economy.Service
	prompter  interact.Prompter
	channelID string
	log       *slog.Logger

	acceptTimeout time.Duration
	voteTimeout   time.Duration
}

// New creates a challenge runner bound to a channel
func New(svc *economy.Service, p interact.Prompter, channelID string, logger *slog.Logger) *Challenge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Challenge{
		svc:           svc,
		prompter:      p,
		channelID:     channelID,
		log:           logger.With("component", "challenge"),
		acceptTimeout: AcceptTimeout,
		voteTimeout:   VoteTimeout,
	}
}

// Run asks opponent to accept, then both vote ⚔️ for the challenger or 🛡️
// for the opponent. Matching votes move the bet from loser to winner;
// mismatched votes fine both players. Both stay guarded throughout.
func (c *Challenge) Run(ctx context.Context, challenger, opponent models.Member, rawBet string) (Result, error) {
	if challenger.UserID == opponent.UserID {
		return Result{}, ErrSelfChallenge
	}
	release, busy, ok := session.Acquire(ctx, c.svc.Guard(), challenger.UserID, opponent.UserID)
	if !ok {
		return Result{}, &economy.BusyError{UserID: busy}
	}
	defer release()

	if !c.svc.Exists(ctx, challenger.UserID) {
		return Result{}, economy.ErrNotClaimed
	}
	balance := c.svc.Account(ctx, challenger.UserID).Balance
	bet, err := c.svc.ParseBet(rawBet, balance)
	if err != nil {
		return Result{}, err
	}
	if bet.GreaterThan(balance) {
		return Result{}, economy.ErrInsufficientFunds
	}

	res := Result{ID: uuid.NewString()}
	ans, err := c.prompter.Ask(ctx, interact.Prompt{
		ChannelID: c.channelID,
		Text: fmt.Sprintf("%s, %s challenged you to a bet of %s bux! React with %s to accept or %s to decline.",
			opponent.Mention(), challenger.Mention(), utils.FormatBux(bet), interact.Yes, interact.No),
		Options: []string{interact.Yes, interact.No},
		Users:   []string{opponent.UserID},
		Timeout: c.acceptTimeout,
	})
	switch {
	case errors.Is(err, interact.ErrTimeout):
		res.Status = Expired
		c.say(ctx, fmt.Sprintf("%s did not respond in time. Bet expired.", opponent.Mention()))
		return res, nil
	case err != nil:
		return Result{}, err
	case ans.Option == interact.No:
		res.Status = Declined
		c.say(ctx, fmt.Sprintf("%s declined the bet.", opponent.Mention()))
		return res, nil
	}

	if !c.svc.Exists(ctx, opponent.UserID) || c.svc.Account(ctx, opponent.UserID).Balance.LessThan(bet) {
		res.Status = OpponentShort
		c.say(ctx, fmt.Sprintf("%s doesn't have enough bux for this bet. Bet voided.", opponent.Mention()))
		return res, nil
	}

	c.say(ctx, fmt.Sprintf("%s accepted the bet! Both players must now react to determine the winner.", opponent.Mention()))
	votes, err := c.prompter.Gather(ctx, interact.Prompt{
		ChannelID: c.channelID,
		Text: fmt.Sprintf("React %s for %s or %s for %s. Both must react the same or the bet is voided!",
			interact.Sword, challenger.Mention(), interact.Shield, opponent.Mention()),
		Options: []string{interact.Sword, interact.Shield},
		Users:   []string{challenger.UserID, opponent.UserID},
		Timeout: c.voteTimeout,
	}, 2, 0)
	if err != nil && !errors.Is(err, interact.ErrTimeout) {
		return Result{}, err
	}
	byUser := map[string]string{}
	for _, v := range votes {
		byUser[v.UserID] = v.Option
	}
	cv, okC := byUser[challenger.UserID]
	ov, okO := byUser[opponent.UserID]
	if !okC || !okO {
		res.Status = Voided
		c.say(ctx, "Bet voided due to inactivity.")
		return res, nil
	}

	if cv != ov {
		res.Status = Flaked
		for _, m := range []models.Member{challenger, opponent} {
			if _, err := c.svc.Fine(ctx, m.UserID, FlakePenalty); err != nil {
				c.log.Error("flake penalty failed", "challenge", res.ID, "user", m.UserID, "error", err)
			}
		}
		c.say(ctx, fmt.Sprintf("Bet voided! A %s bux penalty has been applied to both players for flaking.", utils.FormatBux(FlakePenalty)))
		return res, nil
	}

	res.Winner, res.Loser = challenger, opponent
	if cv == interact.Shield {
		res.Winner, res.Loser = opponent, challenger
	}
	moved, err := c.svc.Transfer(ctx, res.Loser.UserID, res.Winner.UserID, bet, true)
	if err != nil {
		return Result{}, err
	}
	res.Status = Settled
	res.Moved = moved
	c.log.Info("challenge settled", "challenge", res.ID, "winner", res.Winner.UserID, "amount", moved.String())
	c.say(ctx, fmt.Sprintf("%s wins the bet of %s bux!", res.Winner.Mention(), utils.FormatBux(moved)))
	return res, nil
}

func (c *Challenge) say(ctx context.Context, text string) {
	_ = c.prompter.Say(ctx, c.channelID, text)
}
