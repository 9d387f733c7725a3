// Package fight is a last-fighter-standing pot game.
package fight

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/interact"
	"buxbot/models"
	"buxbot/utils"
)

const (
	MaxFighters  = 10
	JoinIdle     = 3 * time.Second
	JoinWindow   = 60 * time.Second
	RoundPause   = 2 * time.Second
	ReviveChance = 0.25
	maxRounds    = 200
)

// Options tunes a fight
type Options struct {
	// HouseFighters is how many synthetic fighters join every fight.
	HouseFighters int
	Pause         time.Duration
}

// Result of a fight
type Result struct {
	ID       string
	Fighters []models.Participant
	Pot      decimal.Decimal
	Winner   models.Participant
	Rounds   int
	Voided   bool
}

// Fight runs fights in one channel
type Fight struct {
	svc       *economy.Service
	prompter  interact.Prompter
	channelID string
	rng       *rand.Rand
	opts      Options
	log       *slog.Logger
}

// New creates a fight runner bound to a channel
func New(svc *economy.Service, p interact.Prompter, channelID string, rng *rand.Rand, opts Options, logger *slog.Logger) *Fight {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HouseFighters > len(HouseNames) {
		opts.HouseFighters = len(HouseNames)
	}
	return &Fight{svc: svc, prompter: p, channelID: channelID, rng: rng, opts: opts, log: logger.With("component", "fight")}
}

// Run opens a join window after debiting the challenger. Every joiner pays
// the same amount into the pot. Fighters are knocked out one per round,
// with a chance for the fallen to get back up, until one is left standing.
func (f *Fight) Run(ctx context.Context, challenger models.Member, rawBet string) (res Result, err error) {
	guard := f.svc.Guard()
	if !f.svc.Exists(ctx, challenger.UserID) {
		return Result{}, economy.ErrNotClaimed
	}
	if !guard.TryAcquire(ctx, challenger.UserID) {
		return Result{}, &economy.BusyError{UserID: challenger.UserID}
	}
	guarded := []string{challenger.UserID}
	defer func() {
		for _, id := range guarded {
			guard.Release(context.WithoutCancel(ctx), id)
		}
	}()

	balance := f.svc.Account(ctx, challenger.UserID).Balance
	amount, err := f.svc.ParseBet(rawBet, balance)
	if err != nil {
		return Result{}, err
	}
	if _, err := f.svc.Debit(ctx, challenger.UserID, amount); err != nil {
		return Result{}, err
	}

	res = Result{ID: uuid.NewString()}
	var paid []models.Member
	paid = append(paid, challenger)
	settled := false
	defer func() {
		if settled {
			return
		}
		for _, m := range paid {
			if _, rerr := f.svc.Credit(context.WithoutCancel(ctx), m.UserID, amount); rerr != nil {
				f.log.Error("fight refund failed", "fight", res.ID, "user", m.UserID, "error", rerr)
			}
		}
	}()

	log := f.log.With("fight", res.ID)
	joins, err := f.prompter.Gather(ctx, interact.Prompt{
		ChannelID: f.channelID,
		Text: fmt.Sprintf("%s wants to fight for %s bux! React with %s to join the fight!",
			challenger.Mention(), utils.FormatBux(amount), interact.Sword),
		Options: []string{interact.Sword},
		Timeout: JoinWindow,
	}, MaxFighters, JoinIdle)
	if err != nil && ctx.Err() != nil {
		return Result{}, err
	}

	fighters := []models.Participant{challenger}
	for _, j := range joins {
		if len(fighters) >= MaxFighters {
			break
		}
		if j.UserID == challenger.UserID || !f.svc.Exists(ctx, j.UserID) {
			continue
		}
		if !guard.TryAcquire(ctx, j.UserID) {
			continue
		}
		guarded = append(guarded, j.UserID)
		if _, err := f.svc.Debit(ctx, j.UserID, amount); err != nil {
			continue
		}
		m := models.Member{UserID: j.UserID, Name: f.svc.Account(ctx, j.UserID).DisplayName}
		paid = append(paid, m)
		fighters = append(fighters, m)
		f.say(ctx, fmt.Sprintf("%s has joined the fight! %d fighters now.", m.Mention(), len(fighters)))
	}
	for i := 0; i < f.opts.HouseFighters && len(fighters) < MaxFighters; i++ {
		h := models.HouseFighter{Name: HouseNames[i]}
		fighters = append(fighters, h)
		f.say(ctx, fmt.Sprintf("%s steps into the ring for the house!", h.Mention()))
	}
	res.Fighters = fighters

	if len(fighters) < 2 {
		res.Voided = true
		f.say(ctx, "Not enough players joined the fight. The fight is voided.")
		return res, nil
	}

	res.Pot = amount.Mul(decimal.NewFromInt(int64(len(paid))))
	f.say(ctx, fmt.Sprintf("The fight begins! %d players are battling for %s bux!", len(fighters), utils.FormatBux(res.Pot)))

	winner, rounds, err := f.simulate(ctx, fighters)
	if err != nil {
		return Result{}, err
	}
	res.Winner, res.Rounds = winner, rounds

	settled = true
	if winner.Synthetic() {
		f.say(ctx, fmt.Sprintf("%s takes the pot of %s for the house! %s", winner.Mention(), utils.FormatBux(res.Pot), line(f.rng, victoryLines, "{winner}", winner.Mention())))
		log.Info("fight won by the house", "pot", res.Pot.String(), "rounds", rounds)
		return res, nil
	}
	if _, err := f.svc.Credit(context.WithoutCancel(ctx), winner.ID(), res.Pot); err != nil {
		settled = false
		return Result{}, fmt.Errorf("pay winner: %w", err)
	}
	log.Info("fight won", "winner", winner.ID(), "pot", res.Pot.String(), "rounds", rounds)
	f.say(ctx, fmt.Sprintf("%s takes the pot of %s! %s", winner.Mention(), utils.FormatBux(res.Pot), line(f.rng, victoryLines, "{winner}", winner.Mention())))
	return res, nil
}

// simulate knocks out one fighter per round until one remains.
func (f *Fight) simulate(ctx context.Context, fighters []models.Participant) (models.Participant, int, error) {
	standing := append([]models.Participant(nil), fighters...)
	var down []models.Participant
	round := 0
	for len(standing) > 1 && round < maxRounds {
		round++
		var b strings.Builder
		fmt.Fprintf(&b, "**Round %d!**\n", round)
		f.rng.Shuffle(len(standing), func(i, j int) { standing[i], standing[j] = standing[j], standing[i] })
		for _, p := range standing {
			b.WriteString(line(f.rng, fightLines, "{player}", p.DisplayName()))
			b.WriteByte('\n')
		}

		i := f.rng.Intn(len(standing))
		out := standing[i]
		standing = append(standing[:i], standing[i+1:]...)
		down = append(down, out)
		b.WriteString(line(f.rng, knockoutLines, "{player}", out.Mention()))

		if f.rng.Float64() < ReviveChance {
			kept := down[:0]
			for _, p := range down {
				if f.rng.Float64() < ReviveChance {
					b.WriteByte('\n')
					b.WriteString(line(f.rng, backUpLines, "{player}", p.Mention()))
					standing = append(standing, p)
					continue
				}
				kept = append(kept, p)
			}
			down = kept
		}
		f.say(ctx, b.String())

		if err := sleep(ctx, f.opts.Pause); err != nil {
			return nil, round, err
		}
	}
	if len(standing) > 1 {
		return standing[f.rng.Intn(len(standing))], round, nil
	}
	return standing[0], round, nil
}

func line(rng *rand.Rand, lines []string, placeholder, name string) string {
	return strings.ReplaceAll(lines[rng.Intn(len(lines))], placeholder, name)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fight) say(ctx context.Context, text string) {
	_ = f.prompter.Say(ctx, f.channelID, text)
}
