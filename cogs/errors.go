package cogs

import (
	"context"
	"errors"
	"fmt"

	"buxbot/economy"
	"buxbot/games/challenge"
	"buxbot/games/parley"
	"buxbot/games/steal"
	"buxbot/interact"
	"buxbot/utils"
)

const genericError = "An unexpected error occurred."

var errNotAdmin = errors.New("admin permission required")

type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

// refundedError is a game failure after which the stake went back.
type refundedError struct{ err error }

func (e *refundedError) Error() string { return e.err.Error() }
func (e *refundedError) Unwrap() error { return e.err }

// friendly maps domain errors to chat text. ok is false for errors the user
// should not see details of.
func friendly(prefix string, in Incoming, err error) (msg string, ok bool) {
	mention := in.Author.Mention()
	var busy *economy.BusyError
	var wait *economy.WaitError
	var usage usageError

	switch {
	case errors.As(err, &usage):
		return fmt.Sprintf("You're missing something. Usage: `%s`", string(usage)), true
	case errors.Is(err, errNotAdmin):
		return "You do not have the required permissions to use this command.", true
	case errors.As(err, &busy):
		if busy.UserID == in.Author.UserID {
			return fmt.Sprintf("%s, you already have an open bet. Please wait until it's settled.", mention), true
		}
		return fmt.Sprintf("<@%s> is already in an open bet.", busy.UserID), true
	case errors.Is(err, economy.ErrNotClaimed):
		return fmt.Sprintf("%s, you need to claim your daily first with `%sd`.", mention, prefix), true
	case errors.As(err, &wait) && errors.Is(err, economy.ErrAlreadyClaimed):
		return fmt.Sprintf("You've already claimed your daily bux! Next claim in **%s**. If you're bankrupt, try %sb.",
			utils.FormatDuration(wait.Remaining), prefix), true
	case errors.As(err, &wait) && errors.Is(err, economy.ErrOnCooldown):
		return fmt.Sprintf("%s, you are on cooldown! Try again in %.2f seconds.", mention, wait.Remaining.Seconds()), true
	case errors.Is(err, economy.ErrBetTooLarge):
		return "That bet is over the table limit.", true
	case errors.Is(err, economy.ErrInvalidBet), errors.Is(err, economy.ErrInvalidAmount):
		return "You must bet a positive amount of bux!", true
	case errors.Is(err, economy.ErrInsufficientFunds):
		return "You don't have enough bux for this bet.", true
	case errors.Is(err, steal.ErrTargetBroke):
		return "They're broke! Try again in a minute!", true
	case errors.Is(err, steal.ErrSelfTarget), errors.Is(err, challenge.ErrSelfChallenge):
		return "You can't target yourself.", true
	case errors.Is(err, parley.ErrAlreadyPlaced):
		return fmt.Sprintf("%s, you've already placed a bet today.", mention), true
	case errors.Is(err, interact.ErrTimeout):
		return "Time expired.", true
	}
	var refunded *refundedError
	if errors.As(err, &refunded) {
		return "Something went wrong with the game. Your bet was returned.", false
	}
	return genericError, false
}

// report tells the user what went wrong. Unexpected errors are logged in
// full; cooldown notices are sent at most once per NoticeInterval.
func (b *Bot) report(ctx context.Context, in Incoming, command string, err error) {
	if errors.Is(err, economy.ErrOnCooldown) && b.notices.Try("notice", in.Author.UserID, NoticeInterval) > 0 {
		return
	}
	msg, ok := friendly(b.opts.Prefix, in, err)
	if !ok {
		b.log.Error("command failed", "command", command, "user", in.Author.UserID, "channel", in.ChannelID, "error", err)
	} else {
		b.log.Debug("command rejected", "command", command, "user", in.Author.UserID, "error", err)
	}
	b.reply(ctx, in, msg)
}
