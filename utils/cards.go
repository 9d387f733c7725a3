package utils

import (
	"math/rand"
	"strconv"
	"strings"
)

// Card is one playing card, e.g. "10♥️".
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

func (c Card) String() string {
	return c.Rank + c.Suit
}

// CardRanks maps rank to blackjack points; aces start at 11.
var CardRanks = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 10, "Q": 10, "K": 10, "A": 11,
}

var CardSuits = []string{"♠️", "♥️", "♦️", "♣️"}

var rankOrder = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// HighLowValue ranks the card with Ace high (2..14).
func (c Card) HighLowValue() int {
	switch c.Rank {
	case "A":
		return 14
	case "K":
		return 13
	case "Q":
		return 12
	case "J":
		return 11
	default:
		v, _ := strconv.Atoi(c.Rank)
		return v
	}
}

// Deck is one 52-card deck dealt from the top.
type Deck struct {
	Cards      []Card `json:"cards"`
	DealtCards int    `json:"dealt_cards"`
	rng        *rand.Rand
}

// NewDeck creates a shuffled 52-card deck drawing randomness from rng
func NewDeck(rng *rand.Rand) *Deck {
	deck := &Deck{
		Cards: make([]Card, 0, 52),
		rng:   rng,
	}
	for _, suit := range CardSuits {
		for _, rank := range rankOrder {
			deck.Cards = append(deck.Cards, Card{Rank: rank, Suit: suit})
		}
	}
	deck.Shuffle()
	return deck
}

// NewStackedDeck returns a deck that deals cards in the given order. Used by tests.
func NewStackedDeck(rng *rand.Rand, cards ...Card) *Deck {
	return &Deck{Cards: cards, rng: rng}
}

// Shuffle reorders every card and restarts dealing.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
	d.DealtCards = 0
}

// Deal returns the next card, reshuffling the full deck when it runs out.
func (d *Deck) Deal() Card {
	if d.DealtCards >= len(d.Cards) {
		d.Shuffle()
	}
	c := d.Cards[d.DealtCards]
	d.DealtCards++
	return c
}

func (d *Deck) CardsRemaining() int {
	return len(d.Cards) - d.DealtCards
}

// Hand is a blackjack hand.
type Hand struct {
	Cards []Card `json:"cards"`
}

func (h *Hand) AddCard(c Card) {
	h.Cards = append(h.Cards, c)
}

// Value calculates the hand value, counting Aces as 1 where 11 would bust
func (h *Hand) Value() int {
	total, soft := 0, 0
	for _, c := range h.Cards {
		total += CardRanks[c.Rank]
		if c.IsAce() {
			soft++
		}
	}
	for ; soft > 0 && total > 21; soft-- {
		total -= 10
	}
	return total
}

// IsBlackjack reports a two-card 21.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == 21
}

func (h *Hand) IsBusted() bool {
	return h.Value() > 21
}

func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
