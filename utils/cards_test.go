package utils

import (
	"math/rand"
	"testing"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	if len(deck.Cards) != 52 {
		t.Fatalf("Expected 52 cards, got %d", len(deck.Cards))
	}

	seen := make(map[string]bool)
	for _, c := range deck.Cards {
		if seen[c.String()] {
			t.Errorf("Duplicate card %s", c)
		}
		seen[c.String()] = true
	}
}

func TestDealReshufflesWhenEmpty(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(2)))
	for i := 0; i < 52; i++ {
		deck.Deal()
	}
	if deck.CardsRemaining() != 0 {
		t.Fatalf("Expected empty deck, got %d remaining", deck.CardsRemaining())
	}
	deck.Deal()
	if deck.CardsRemaining() != 51 {
		t.Errorf("Expected reshuffled deck with 51 remaining, got %d", deck.CardsRemaining())
	}
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		ranks []string
		want  int
	}{
		{"pair", []string{"9", "9"}, 18},
		{"natural", []string{"A", "K"}, 21},
		{"soft ace drops", []string{"A", "9", "5"}, 15},
		{"two aces", []string{"A", "A"}, 12},
		{"bust", []string{"K", "Q", "5"}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hand{}
			for _, r := range tt.ranks {
				h.AddCard(Card{Rank: r, Suit: "♠️"})
			}
			if got := h.Value(); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIsBlackjack(t *testing.T) {
	h := &Hand{Cards: []Card{{Rank: "A"}, {Rank: "J"}}}
	if !h.IsBlackjack() {
		t.Error("Expected A+J to be blackjack")
	}
	h.AddCard(Card{Rank: "2"})
	if h.IsBlackjack() {
		t.Error("Three cards cannot be a natural")
	}
}

func TestHighLowValue(t *testing.T) {
	if (Card{Rank: "A"}).HighLowValue() != 14 {
		t.Error("Ace should be high")
	}
	if (Card{Rank: "10"}).HighLowValue() != 10 {
		t.Error("Ten should be 10")
	}
	if (Card{Rank: "J"}).HighLowValue() <= (Card{Rank: "10"}).HighLowValue() {
		t.Error("Jack should beat ten")
	}
}
