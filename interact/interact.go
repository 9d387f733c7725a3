// Package interact defines how games wait on chat input.
package interact

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout means nobody answered before the deadline.
	ErrTimeout = errors.New("interact: timed out waiting for input")
	// ErrDeclined means the user answered with an explicit no.
	ErrDeclined = errors.New("interact: declined")
)

// Common reaction options.
const (
	Yes     = "✅"
	No      = "❌"
	Double  = "💰"
	Sword   = "⚔️"
	Shield  = "🛡️"
	Higher  = "⬆️"
	Lower   = "⬇️"
	CashOut = "💵"
)

// Prompt is a message with reaction options.
type Prompt struct {
	ChannelID string
	Text      string
	Options   []string
	// Users limits who may answer; empty means anyone.
	Users   []string
	Timeout time.Duration
}

// Answer is one reaction to a Prompt.
type Answer struct {
	UserID string
	Option string
}

// Prompter is the chat surface a game talks through.
type Prompter interface {
	// Ask posts p and returns the first allowed answer.
	Ask(ctx context.Context, p Prompt) (Answer, error)
	// Gather posts p and collects answers from distinct users until max are
	// in, idle passes without a new one (if idle > 0), or p.Timeout expires.
	Gather(ctx context.Context, p Prompt, max int, idle time.Duration) ([]Answer, error)
	// AwaitMessage returns the next text message from userID in channelID.
	AwaitMessage(ctx context.Context, channelID, userID string, timeout time.Duration) (string, error)
	Say(ctx context.Context, channelID, text string) error
	// DirectMessage opens a private channel with userID, sends text and
	// returns the channel ID.
	DirectMessage(ctx context.Context, userID, text string) (string, error)
}

// Allowed reports whether userID may answer p.
func (p Prompt) Allowed(userID string) bool {
	if len(p.Users) == 0 {
		return true
	}
	for _, u := range p.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// HasOption reports whether option is one of p's choices.
func (p Prompt) HasOption(option string) bool {
	for _, o := range p.Options {
		if o == option {
			return true
		}
	}
	return false
}
