// Package parley is a daily pick-3 contest over a field of generated gamers.
package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/interact"
	"buxbot/models"
	"buxbot/utils"
)

const (
	Picks       = 3
	PickTimeout = 30 * time.Second
	MaxPoints   = 30
)

// Payout multipliers for the top finishers
var placePayouts = []decimal.Decimal{decimal.NewFromInt(5), decimal.NewFromInt(4), decimal.NewFromInt(3)}

var (
	ErrAlreadyPlaced = errors.New("already placed a parley today")
	ErrBadPicks      = errors.New("pick 3 different gamers from 1 to 14")
)

// Parley owns the book file and runs placements and resolutions.
type Parley struct {
	mu       sync.Mutex
	path     string
	svc      *economy.Service
	prompter interact.Prompter
	rng      *rand.Rand
	log      *slog.Logger
}

// New creates a parley backed by the book at path
func New(svc *economy.Service, p interact.Prompter, path string, rng *rand.Rand, logger *slog.Logger) *Parley {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parley{path: path, svc: svc, prompter: p, rng: rng, log: logger.With("component", "parley")}
}

// Book returns a copy of the current book. An unreadable book is logged and
// treated as empty.
func (p *Parley) Book() Book {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked()
}

func (p *Parley) loadLocked() Book {
	b, err := loadBook(p.path)
	if err != nil {
		p.log.Error("parley book unreadable, starting empty", "path", p.path, "error", err)
		return Book{Bets: map[string]Bet{}}
	}
	return b
}

// ParsePicks reads "1 5 9" style input.
func ParsePicks(s string) ([]int, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != Picks {
		return nil, ErrBadPicks
	}
	seen := make(map[int]bool, Picks)
	picks := make([]int, 0, Picks)
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > GamerCount || seen[n] {
			return nil, ErrBadPicks
		}
		seen[n] = true
		picks = append(picks, n)
	}
	return picks, nil
}

// Place takes the stake, asks the user for picks by direct message and
// records the bet. The stake stays held until the daily resolution.
func (p *Parley) Place(ctx context.Context, user models.Member, rawBet string) (economy.Settlement, []int, error) {
	if _, ok := p.Book().Bets[user.UserID]; ok {
		return economy.Settlement{}, nil, ErrAlreadyPlaced
	}

	var picks []int
	st, err := p.svc.Play(ctx, economy.PlayRequest{UserID: user.UserID, Bet: rawBet, Policy: economy.ParleyPolicy},
		func(ctx context.Context, w *economy.Wager) (economy.Outcome, error) {
			gamers := p.todaysGamers()
			var list strings.Builder
			list.WriteString("Gamers List:\n")
			for _, g := range gamers {
				fmt.Fprintf(&list, "%d. %s\n", g.ID, g.Name)
			}
			list.WriteString("\nPick 3 gamers (use numbers):\nExample: 1 2 3")
			dm, err := p.prompter.DirectMessage(ctx, user.UserID, list.String())
			if err != nil {
				return economy.Outcome{}, fmt.Errorf("send gamers list: %w", err)
			}

			text, err := p.prompter.AwaitMessage(ctx, dm, user.UserID, PickTimeout)
			if errors.Is(err, interact.ErrTimeout) {
				_, _ = p.prompter.DirectMessage(ctx, user.UserID, "Time expired. Bet canceled.")
				return economy.Outcome{}, err
			}
			if err != nil {
				return economy.Outcome{}, err
			}
			picks, err = ParsePicks(text)
			if err != nil {
				_, _ = p.prompter.DirectMessage(ctx, user.UserID, "Invalid selection. Bet canceled.")
				return economy.Outcome{}, interact.ErrDeclined
			}

			if err := p.record(user.UserID, Bet{Stake: w.Stake, Picks: picks}); err != nil {
				return economy.Outcome{}, err
			}
			_, _ = p.prompter.DirectMessage(ctx, user.UserID, fmt.Sprintf("Bet placed on gamers %v. Good luck!", picks))
			return economy.Outcome{Result: "placed", Detail: fmt.Sprint(picks)}, nil
		})
	if err != nil || st.Refunded {
		return st, nil, err
	}
	return st, picks, nil
}

func (p *Parley) todaysGamers() []Gamer {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.loadLocked()
	if len(b.Gamers) == GamerCount {
		return b.Gamers
	}
	b.Gamers = NewGamers()
	b.Day = p.svc.Now().UTC().Format(models.DateLayout)
	if err := saveBook(p.path, b); err != nil {
		p.log.Error("save parley gamers", "error", err)
	}
	return b.Gamers
}

func (p *Parley) record(userID string, bet Bet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.loadLocked()
	if _, ok := b.Bets[userID]; ok {
		return ErrAlreadyPlaced
	}
	b.Bets[userID] = bet
	if err := saveBook(p.path, b); err != nil {
		return err
	}
	p.log.Info("parley placed", "user", userID, "stake", bet.Stake.String(), "picks", bet.Picks)
	return nil
}

// Resolution is the outcome of one daily run.
type Resolution struct {
	Skipped bool
	Gamers  []Gamer
	Winners []Payout
	// Failed holds payouts whose credit did not go through.
	Failed []Payout
}

// Payout is what a top finisher won.
type Payout struct {
	Standing
	Place  int
	Amount decimal.Decimal
}

// Resolve scores the day's gamers, pays the top three bettors and clears the
// book. It runs at most once per calendar day: the cleared book is saved
// before any credit, so a failed or interrupted payout is never retried.
func (p *Parley) Resolve(ctx context.Context, now time.Time, channelID string) (Resolution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := now.UTC().Format(models.DateLayout)
	b := p.loadLocked()
	if b.LastRun == today {
		return Resolution{Skipped: true}, nil
	}

	if len(b.Gamers) != GamerCount {
		b.Gamers = NewGamers()
	}
	for i := range b.Gamers {
		b.Gamers[i].Points = 1 + p.rng.Intn(MaxPoints)
	}
	res := Resolution{Gamers: b.Gamers}

	var due []Payout
	for i, s := range b.Standings() {
		if i >= len(placePayouts) {
			break
		}
		due = append(due, Payout{Standing: s, Place: i + 1, Amount: s.Bet.Stake.Mul(placePayouts[i])})
	}
	placed := len(b.Bets)
	if err := saveBook(p.path, Book{Bets: map[string]Bet{}, LastRun: today}); err != nil {
		return res, fmt.Errorf("close parley book: %w", err)
	}

	var board strings.Builder
	board.WriteString("Today's leaderboard:\n")
	for _, g := range b.Gamers {
		fmt.Fprintf(&board, "%s (ID: %d): %d points\n", g.Name, g.ID, g.Points)
	}
	p.say(ctx, channelID, board.String())

	payCtx := context.WithoutCancel(ctx)
	var results strings.Builder
	results.WriteString("Daily Results:\n")
	for _, w := range due {
		if _, err := p.svc.Credit(payCtx, w.UserID, w.Amount); err != nil {
			p.log.Error("parley payout failed", "day", today, "user", w.UserID, "amount", w.Amount.String(), "error", err)
			res.Failed = append(res.Failed, w)
			continue
		}
		res.Winners = append(res.Winners, w)
		fmt.Fprintf(&results, "%d. <@%s> won %s bux!\n", w.Place, w.UserID, utils.FormatBux(w.Amount))
	}
	p.say(ctx, channelID, results.String())

	p.log.Info("parley resolved", "day", today, "bets", placed, "winners", len(res.Winners), "failed", len(res.Failed))
	return res, nil
}

func (p *Parley) say(ctx context.Context, channelID, text string) {
	if channelID == "" {
		return
	}
	if err := p.prompter.Say(ctx, channelID, text); err != nil {
		p.log.Warn("parley announcement failed", "channel", channelID, "error", err)
	}
}
