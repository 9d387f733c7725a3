// Package cogs binds chat commands to the economy and the games.
package cogs

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"buxbot/economy"
	"buxbot/games/fight"
	"buxbot/games/parley"
	"buxbot/interact"
	"buxbot/models"
	"buxbot/utils"
)

// NoticeInterval limits how often a user is told about a cooldown.
const NoticeInterval = 5 * time.Second

// Options configures a Bot.
type Options struct {
	Prefix string
	// IsAdmin grants admin commands by user ID, on top of the Discord
	// administrator permission.
	IsAdmin func(userID string) bool
	Fight   fight.Options
	// CommandTimeout bounds one command, prompts included.
	CommandTimeout time.Duration
}

// Incoming is a chat message already stripped of Discord types.
type Incoming struct {
	ChannelID string
	GuildID   string
	Author    models.Member
	Content   string
	Mentions  []models.Member
}

type handler func(ctx context.Context, in Incoming, args []string) error

// Bot routes prefixed commands.
type Bot struct {
	api      API
	hub      *interact.Hub
	prompter interact.Prompter
	svc      *economy.Service
	parley   *parley.Parley
	opts     Options
	notices  *utils.Cooldowns
	commands map[string]handler
	log      *slog.Logger

	rngMu sync.Mutex
	seed  *rand.Rand
}

// New creates a Bot. A nil prompter means a Discord Prompter over api.
func New(api API, svc *economy.Service, pl *parley.Parley, prompter interact.Prompter, hub *interact.Hub, opts Options, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = interact.NewHub()
	}
	if prompter == nil {
		prompter = NewPrompter(api, hub, logger)
	}
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 15 * time.Minute
	}
	b := &Bot{
		api:      api,
		hub:      hub,
		prompter: prompter,
		svc:      svc,
		parley:   pl,
		opts:     opts,
		notices:  utils.NewCooldowns(),
		log:      logger.With("component", "cogs"),
		seed:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	b.commands = map[string]handler{
		"d":         b.daily,
		"b":         b.bank,
		"l":         b.leaderboard,
		"h":         b.help,
		"c":         b.challenge,
		"f":         b.fight,
		"s":         b.steal,
		"bj":        b.blackjack,
		"sl":        b.slots,
		"hl":        b.higherOrLower,
		"u":         b.unlocker,
		"p":         b.parleyBet,
		"addbux":    b.addBux,
		"removebux": b.removeBux,
	}
	return b
}

// Hub returns the event hub the handlers publish into.
func (b *Bot) Hub() *interact.Hub { return b.hub }

// Prompter returns the prompter games talk through.
func (b *Bot) Prompter() interact.Prompter { return b.prompter }

// newRand gives each game its own generator.
func (b *Bot) newRand() *rand.Rand {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return rand.New(rand.NewSource(b.seed.Int63()))
}

// OnMessageCreate feeds messages to waiting prompts and runs commands.
func (b *Bot) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	in := Incoming{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Author:    memberOf(m.Author, m.Member),
		Content:   m.Content,
	}
	for _, u := range m.Mentions {
		if u != nil && !u.Bot {
			in.Mentions = append(in.Mentions, memberOf(u, nil))
		}
	}
	b.Handle(context.Background(), in)
}

// OnReactionAdd feeds reactions to waiting prompts.
func (b *Bot) OnReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if s != nil && s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}
	b.hub.Publish(interact.Event{
		Kind:      interact.ReactionEvent,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	})
}

// Handle publishes the message to waiters and dispatches it if it is a
// known command.
func (b *Bot) Handle(ctx context.Context, in Incoming) {
	b.hub.Publish(interact.Event{
		Kind:      interact.MessageEvent,
		ChannelID: in.ChannelID,
		UserID:    in.Author.UserID,
		Content:   in.Content,
	})

	name, args, ok := parseCommand(b.opts.Prefix, in.Content)
	if !ok {
		return
	}
	cmd, ok := b.commands[name]
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, b.opts.CommandTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("command panicked", "command", name, "user", in.Author.UserID, "panic", r)
			b.reply(ctx, in, genericError)
		}
	}()

	if err := cmd(ctx, in, args); err != nil {
		b.report(ctx, in, name, err)
	}
}

func parseCommand(prefix, content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func memberOf(u *discordgo.User, m *discordgo.Member) models.Member {
	name := u.Username
	if u.GlobalName != "" {
		name = u.GlobalName
	}
	if m != nil && m.Nick != "" {
		name = m.Nick
	}
	return models.Member{UserID: u.ID, Name: name}
}

func (b *Bot) reply(ctx context.Context, in Incoming, text string) {
	if err := b.prompter.Say(ctx, in.ChannelID, text); err != nil {
		b.log.Warn("reply failed", "channel", in.ChannelID, "error", err)
	}
}

func (b *Bot) isAdmin(in Incoming) bool {
	if b.opts.IsAdmin != nil && b.opts.IsAdmin(in.Author.UserID) {
		return true
	}
	if b.api == nil {
		return false
	}
	perms, err := b.api.UserChannelPermissions(in.Author.UserID, in.ChannelID)
	if err != nil {
		b.log.Warn("permission lookup failed", "user", in.Author.UserID, "error", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}
