package cogs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"buxbot/interact"
)

// API is the part of *discordgo.Session the bot calls.
type API interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Prompter talks to Discord and waits on events fed into its Hub.
type Prompter struct {
	api API
	hub *interact.Hub
	log *slog.Logger
}

// NewPrompter creates a Prompter.
func NewPrompter(api API, hub *interact.Hub, logger *slog.Logger) *Prompter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prompter{api: api, hub: hub, log: logger.With("component", "prompter")}
}

func (p *Prompter) Say(ctx context.Context, channelID, text string) error {
	if _, err := p.api.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (p *Prompter) DirectMessage(ctx context.Context, userID, text string) (string, error) {
	ch, err := p.api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open dm channel: %w", err)
	}
	if err := p.Say(ctx, ch.ID, text); err != nil {
		return "", err
	}
	return ch.ID, nil
}

// post sends the prompt, subscribes to reactions on it, then adds the
// option reactions. The subscription exists before any reaction can land.
func (p *Prompter) post(ctx context.Context, pr interact.Prompt, buffer int) (<-chan interact.Event, func(), error) {
	msg, err := p.api.ChannelMessageSend(pr.ChannelID, pr.Text, discordgo.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("send prompt: %w", err)
	}
	ch, cancel := p.hub.Subscribe(func(ev interact.Event) bool {
		return ev.Kind == interact.ReactionEvent &&
			ev.MessageID == msg.ID &&
			pr.HasOption(ev.Emoji) &&
			pr.Allowed(ev.UserID)
	}, buffer)
	for _, opt := range pr.Options {
		if err := p.api.MessageReactionAdd(pr.ChannelID, msg.ID, opt, discordgo.WithContext(ctx)); err != nil {
			p.log.Warn("add reaction failed", "channel", pr.ChannelID, "emoji", opt, "error", err)
		}
	}
	return ch, cancel, nil
}

func (p *Prompter) Ask(ctx context.Context, pr interact.Prompt) (interact.Answer, error) {
	ch, cancel, err := p.post(ctx, pr, 4)
	if err != nil {
		return interact.Answer{}, err
	}
	defer cancel()
	ev, err := interact.Next(ctx, ch, pr.Timeout)
	if err != nil {
		return interact.Answer{}, err
	}
	return interact.Answer{UserID: ev.UserID, Option: ev.Emoji}, nil
}

func (p *Prompter) Gather(ctx context.Context, pr interact.Prompt, max int, idle time.Duration) ([]interact.Answer, error) {
	buffer := max * 2
	if buffer < 16 {
		buffer = 16
	}
	ch, cancel, err := p.post(ctx, pr, buffer)
	if err != nil {
		return nil, err
	}
	defer cancel()
	evs, err := interact.Collect(ctx, ch, max, idle, pr.Timeout)
	out := make([]interact.Answer, 0, len(evs))
	for _, ev := range evs {
		out = append(out, interact.Answer{UserID: ev.UserID, Option: ev.Emoji})
	}
	return out, err
}

func (p *Prompter) AwaitMessage(ctx context.Context, channelID, userID string, timeout time.Duration) (string, error) {
	ch, cancel := p.hub.Subscribe(func(ev interact.Event) bool {
		return ev.Kind == interact.MessageEvent && ev.ChannelID == channelID && ev.UserID == userID
	}, 1)
	defer cancel()
	ev, err := interact.Next(ctx, ch, timeout)
	if err != nil {
		return "", err
	}
	return ev.Content, nil
}
