package blackjack

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"buxbot/economy"
	"buxbot/games/testutil"
	"buxbot/interact"
	"buxbot/utils"
)

func cards(ranks ...string) []utils.Card {
	out := make([]utils.Card, len(ranks))
	for i, r := range ranks {
		out[i] = utils.Card{Rank: r, Suit: "♠️"}
	}
	return out
}

// stacked deals player, player, dealer, dealer, then the rest in order.
func stacked(g *Game, ranks ...string) {
	g.newDeck = func() *utils.Deck {
		return utils.NewStackedDeck(rand.New(rand.NewSource(1)), cards(ranks...)...)
	}
}

func play(t *testing.T, p *interact.Scripted, balance, bet string, ranks ...string) (economy.Settlement, *economy.Service) {
	t.Helper()
	svc := testutil.NewService(t)
	testutil.Fund(t, svc, "1", balance)
	g := New(p, "chan", rand.New(rand.NewSource(1)))
	stacked(g, ranks...)
	st, err := svc.Play(context.Background(), economy.PlayRequest{UserID: "1", Bet: bet, Policy: economy.BlackjackPolicy}, g.Play)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return st, svc
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		player []string
		dealer []string
		want   string
		mult   string
	}{
		{"natural", []string{"A", "K"}, []string{"10", "9"}, ResultNatural, "2.5"},
		{"bust", []string{"K", "Q", "5"}, []string{"10", "9"}, ResultBust, "0"},
		{"dealer bust", []string{"10", "8"}, []string{"K", "6", "9"}, ResultWin, "2"},
		{"higher", []string{"10", "9"}, []string{"10", "8"}, ResultWin, "2"},
		{"push", []string{"10", "8"}, []string{"9", "9"}, ResultPush, "1"},
		{"lower", []string{"10", "7"}, []string{"10", "9"}, ResultLose, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Round{Player: &utils.Hand{Cards: cards(tt.player...)}, Dealer: &utils.Hand{Cards: cards(tt.dealer...)}}
			got, mult := r.Resolve()
			if got != tt.want || !mult.Equal(decimal.RequireFromString(tt.mult)) {
				t.Errorf("Expected %s x%s, got %s x%s", tt.want, tt.mult, got, mult)
			}
		})
	}
}

func TestPlayDealerStandsOn17(t *testing.T) {
	r := &Round{
		Deck:   utils.NewStackedDeck(rand.New(rand.NewSource(1)), cards("5", "K")...),
		Player: &utils.Hand{Cards: cards("10", "8")},
		Dealer: &utils.Hand{Cards: cards("10", "2")},
	}
	r.PlayDealer()
	if r.Dealer.Value() != 17 || len(r.Dealer.Cards) != 3 {
		t.Errorf("Expected dealer to stop at 17, got %s (%d)", r.Dealer, r.Dealer.Value())
	}
}

func TestNaturalPaysImmediately(t *testing.T) {
	p := interact.NewScripted()
	st, _ := play(t, p, "500", "100", "A", "K", "10", "9")
	if !st.Payout.Equal(decimal.NewFromInt(250)) || !st.Balance.Equal(decimal.NewFromInt(650)) {
		t.Errorf("Expected natural payout 250, got %+v", st)
	}
	if len(p.Prompts) != 0 {
		t.Error("A natural must not prompt")
	}
}

func TestStandAndWin(t *testing.T) {
	p := interact.NewScripted().QueueAsk(interact.Reply{UserID: "1", Text: interact.No})
	st, _ := play(t, p, "500", "100", "10", "9", "10", "8")
	if !st.Balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected 600, got %s", st.Balance)
	}
}

func TestHitAndBust(t *testing.T) {
	p := interact.NewScripted().QueueAsk(interact.Reply{UserID: "1", Text: interact.Yes})
	st, _ := play(t, p, "500", "100", "10", "6", "10", "8", "K")
	if !st.Payout.IsZero() || !st.Balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected a lost bet, got %+v", st)
	}
}

func TestDoubleDownWin(t *testing.T) {
	p := interact.NewScripted().QueueAsk(interact.Reply{UserID: "1", Text: interact.Double})
	st, _ := play(t, p, "500", "100", "6", "5", "10", "7", "9")
	if !st.Stake.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected doubled stake 200, got %s", st.Stake)
	}
	if !st.Payout.Equal(decimal.NewFromInt(400)) || !st.Balance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("Expected 4x bet payout, got %+v", st)
	}
}

func TestDoubleDownWithoutFundsCountsAsHit(t *testing.T) {
	p := interact.NewScripted().QueueAsk(
		interact.Reply{UserID: "1", Text: interact.Double},
		interact.Reply{UserID: "1", Text: interact.No},
	)
	st, _ := play(t, p, "150", "100", "6", "5", "10", "7", "2")
	if !st.Stake.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Stake must not grow without funds, got %s", st.Stake)
	}
	if len(p.Prompts) != 2 {
		t.Errorf("Expected play to continue after the forced hit, got %d prompts", len(p.Prompts))
	}
	// 13 vs 17
	if !st.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected a loss leaving 50, got %s", st.Balance)
	}
}

func TestTimeoutStands(t *testing.T) {
	p := interact.NewScripted()
	st, _ := play(t, p, "500", "100", "10", "8", "10", "8")
	if st.TimedOut {
		t.Error("Blackjack settles timeouts itself")
	}
	if !st.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected a push after standing on timeout, got %s", st.Balance)
	}
}

func TestMaxBet(t *testing.T) {
	svc := testutil.NewService(t)
	testutil.Fund(t, svc, "1", "5000")
	g := New(interact.NewScripted(), "chan", rand.New(rand.NewSource(1)))
	_, err := svc.Play(context.Background(), economy.PlayRequest{UserID: "1", Bet: "1001", Policy: economy.BlackjackPolicy}, g.Play)
	if err == nil {
		t.Fatal("Expected bets above 1000 to be rejected")
	}
	if testutil.Balance(svc, "1") != "5000" {
		t.Error("Rejected bet must not change the balance")
	}
}
