package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/games/blackjack"
	"buxbot/games/challenge"
	"buxbot/games/fight"
	"buxbot/games/higherorlower"
	"buxbot/games/slots"
	"buxbot/games/steal"
	"buxbot/games/unlocker"
	"buxbot/models"
	"buxbot/utils"
)

const helpText = `***Ranks***
- Grandmaster🏆 30,000 bux
- Emerald❇️ 15,000 bux
- Diamond💎 7,000 bux
- Gold🏅 3,000 bux
- Silver🥈 1,000 bux
- Bronze🥉 0 bux

**Bot Commands**
- :moneybag: **Daily**: ` + "`{p}d`" + ` Claim your daily bux. It claims automatically after the first time.
- :skull_crossbones: **Fight**: ` + "`{p}f <amount>`" + ` Fight everyone who joins. Last one standing takes the pot.
- :boxing_glove: **Challenge**: ` + "`{p}c <user> <amount>`" + ` Bet a user on anything and agree on a winner, or pay fees.
- :ninja: **Steal**: ` + "`{p}s <user>`" + ` Try to steal. Win a prize or face a penalty.
- :black_joker: **Blackjack**: ` + "`{p}bj <amount>`" + `
- :slot_machine: **Slots**: ` + "`{p}sl <amount>`" + `
- :arrow_up_down: **Higher or Lower**: ` + "`{p}hl <amount>`" + `
- :lock: **Unlocker**: ` + "`{p}u <amount>`" + ` Crack a 3-digit safe.
- :crystal_ball: **Parley**: ` + "`{p}p <amount>`" + ` Pick 3 gamers by DM. Top 3 scores win 5x, 4x and 3x.
- :money_with_wings: **Bank**: ` + "`{p}b`" + ` Check your bux. At 0 bux you get welfare.
- 🏆 **Leaderboards**: ` + "`{p}l`" + `
- :grey_question: **Help**: ` + "`{p}h`"

func (b *Bot) daily(ctx context.Context, in Incoming, _ []string) error {
	res, err := b.svc.Claim(ctx, in.Author.UserID, in.Author.Name)
	if err != nil {
		return err
	}
	if res.First {
		b.reply(ctx, in, fmt.Sprintf("Welcome %s! You've received your first %s bux. I'll automatically claim from now on.",
			in.Author.Name, utils.FormatBux(res.Granted)))
		return nil
	}
	b.reply(ctx, in, fmt.Sprintf("%s, you've received your daily %s bux!", in.Author.Name, utils.FormatBux(res.Granted)))
	return nil
}

func (b *Bot) bank(ctx context.Context, in Incoming, _ []string) error {
	res, err := b.svc.Balance(ctx, in.Author.UserID)
	if err != nil {
		return err
	}
	b.reply(ctx, in, fmt.Sprintf("%s, you have %s bux.", in.Author.Name, utils.FormatBux(res.Account.Balance)))
	if res.Welfare.IsPositive() {
		b.reply(ctx, in, fmt.Sprintf("%s, was approved for welfare and received %s bux.", in.Author.Name, utils.FormatBux(res.Welfare)))
	}
	return nil
}

func (b *Bot) leaderboard(ctx context.Context, in Incoming, _ []string) error {
	res, err := b.svc.Leaderboard(ctx, in.Author.UserID, economy.LeaderboardSize)
	if err != nil {
		return err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 **Top %d** 🏆\n\n", economy.LeaderboardSize)
	for i, a := range res.Top {
		r := a.GetRank()
		fmt.Fprintf(&sb, "**%d. <@%s>** - %s bux %s\n", i+1, a.UserID, utils.FormatBux(a.Balance), r.Icon)
	}
	if res.Rank > 0 {
		fmt.Fprintf(&sb, "\n🔹 <@%s>, you are ranked **#%d** on the leaderboard.", in.Author.UserID, res.Rank)
	}
	b.reply(ctx, in, sb.String())
	return nil
}

func (b *Bot) help(ctx context.Context, in Incoming, _ []string) error {
	b.reply(ctx, in, strings.ReplaceAll(helpText, "{p}", b.opts.Prefix))
	return nil
}

func (b *Bot) play(ctx context.Context, in Incoming, args []string, usage string, pol economy.Policy, game economy.Game) error {
	if len(args) < 1 {
		return usageError(b.opts.Prefix + usage)
	}
	st, err := b.svc.Play(ctx, economy.PlayRequest{UserID: in.Author.UserID, Bet: args[0], Policy: pol}, game)
	if err != nil {
		if st.Refunded {
			return &refundedError{err: err}
		}
		return err
	}
	return nil
}

func (b *Bot) blackjack(ctx context.Context, in Incoming, args []string) error {
	g := blackjack.New(b.prompter, in.ChannelID, b.newRand())
	return b.play(ctx, in, args, "bj <amount>", economy.BlackjackPolicy, g.Play)
}

func (b *Bot) slots(ctx context.Context, in Incoming, args []string) error {
	g := slots.New(b.prompter, in.ChannelID, b.newRand())
	return b.play(ctx, in, args, "sl <amount>", economy.SlotsPolicy, g.Play)
}

func (b *Bot) higherOrLower(ctx context.Context, in Incoming, args []string) error {
	g := higherorlower.New(b.prompter, in.ChannelID, b.newRand())
	return b.play(ctx, in, args, "hl <amount>", economy.HigherOrLowerPolicy, g.Play)
}

func (b *Bot) unlocker(ctx context.Context, in Incoming, args []string) error {
	g := unlocker.New(b.prompter, in.ChannelID, b.newRand())
	return b.play(ctx, in, args, "u <amount>", economy.UnlockerPolicy, g.Play)
}

func (b *Bot) parleyBet(ctx context.Context, in Incoming, args []string) error {
	if len(args) < 1 {
		return usageError(b.opts.Prefix + "p <amount>")
	}
	if b.parley == nil {
		b.reply(ctx, in, "Parleys are closed right now.")
		return nil
	}
	st, picks, err := b.parley.Place(ctx, in.Author, args[0])
	if err != nil {
		return err
	}
	if picks != nil {
		b.reply(ctx, in, fmt.Sprintf("%s placed a parley of %s bux. Results at the daily event!", in.Author.Mention(), utils.FormatBux(st.Stake)))
	}
	return nil
}

func (b *Bot) challenge(ctx context.Context, in Incoming, args []string) error {
	if len(in.Mentions) < 1 || len(args) < 2 {
		return usageError(b.opts.Prefix + "c <user> <amount>")
	}
	c := challenge.New(b.svc, b.prompter, in.ChannelID, b.log)
	_, err := c.Run(ctx, in.Author, b.named(ctx, in.Mentions[0]), args[len(args)-1])
	return err
}

func (b *Bot) fight(ctx context.Context, in Incoming, args []string) error {
	if len(args) < 1 {
		return usageError(b.opts.Prefix + "f <amount>")
	}
	f := fight.New(b.svc, b.prompter, in.ChannelID, b.newRand(), b.opts.Fight, b.log)
	_, err := f.Run(ctx, in.Author, args[0])
	return err
}

func (b *Bot) steal(ctx context.Context, in Incoming, _ []string) error {
	if len(in.Mentions) < 1 {
		return usageError(b.opts.Prefix + "s <user>")
	}
	target := b.named(ctx, in.Mentions[0])
	res, err := steal.Attempt(ctx, b.svc, b.newRand(), in.Author, target)
	if err != nil {
		return err
	}
	b.reply(ctx, in, res.Message)
	return nil
}

func (b *Bot) addBux(ctx context.Context, in Incoming, args []string) error {
	target, amount, err := b.adminArgs(in, args, "addbux <user> <amount>")
	if err != nil {
		return err
	}
	if _, err := b.svc.Grant(ctx, target.UserID, target.Name, amount); err != nil {
		return err
	}
	b.reply(ctx, in, fmt.Sprintf("Added %s bux to %s.", utils.FormatBux(amount), target.Name))
	return nil
}

func (b *Bot) removeBux(ctx context.Context, in Incoming, args []string) error {
	target, amount, err := b.adminArgs(in, args, "removebux <user> <amount>")
	if err != nil {
		return err
	}
	if _, err := b.svc.Revoke(ctx, target.UserID, amount); err != nil {
		if errors.Is(err, economy.ErrInsufficientFunds) || errors.Is(err, economy.ErrNotClaimed) {
			b.reply(ctx, in, fmt.Sprintf("%s doesn't have enough bux to remove.", target.Name))
			return nil
		}
		return err
	}
	b.reply(ctx, in, fmt.Sprintf("Removed %s bux from %s.", utils.FormatBux(amount), target.Name))
	return nil
}

func (b *Bot) adminArgs(in Incoming, args []string, usage string) (models.Member, decimal.Decimal, error) {
	if !b.isAdmin(in) {
		return models.Member{}, decimal.Zero, errNotAdmin
	}
	if len(in.Mentions) < 1 || len(args) < 2 {
		return models.Member{}, decimal.Zero, usageError(b.opts.Prefix + usage)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(args[len(args)-1], ",", ""))
	if err != nil || !amount.IsPositive() {
		return models.Member{}, decimal.Zero, economy.ErrInvalidAmount
	}
	return in.Mentions[0], amount, nil
}

// named fills in a mentioned user's stored name when the mention lacks one.
func (b *Bot) named(ctx context.Context, m models.Member) models.Member {
	if m.Name == "" {
		m.Name = b.svc.Account(ctx, m.UserID).DisplayName
	}
	return m
}
