package parley

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/shopspring/decimal"

	"buxbot/utils"
)

// GamerCount is the size of the daily field
const GamerCount = 14

// Gamer is one contestant of the day.
type Gamer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Bet is a placed parley.
type Bet struct {
	Stake decimal.Decimal `json:"stake"`
	Picks []int           `json:"picks"`
}

// Book is the persisted parley state.
type Book struct {
	Day     string         `json:"day,omitempty"`
	Gamers  []Gamer        `json:"gamers,omitempty"`
	Bets    map[string]Bet `json:"bets"`
	LastRun string         `json:"last_run,omitempty"`
}

// NewGamers builds the field with zero points.
func NewGamers() []Gamer {
	g := make([]Gamer, GamerCount)
	for i := range g {
		g[i] = Gamer{ID: i + 1, Name: fmt.Sprintf("Gamer %d", i+1)}
	}
	return g
}

// Score sums the points of the picked gamers.
func (b Book) Score(picks []int) int {
	total := 0
	for _, p := range picks {
		if p >= 1 && p <= len(b.Gamers) {
			total += b.Gamers[p-1].Points
		}
	}
	return total
}

// Standing is one bettor's result.
type Standing struct {
	UserID string
	Score  int
	Bet    Bet
}

// Standings ranks every bet by score, highest first, ties by user ID.
func (b Book) Standings() []Standing {
	out := make([]Standing, 0, len(b.Bets))
	for uid, bet := range b.Bets {
		out = append(out, Standing{UserID: uid, Score: b.Score(bet.Picks), Bet: bet})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func loadBook(path string) (Book, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Book{Bets: map[string]Bet{}}, nil
	}
	if err != nil {
		return Book{}, fmt.Errorf("read parley book: %w", err)
	}
	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return Book{}, fmt.Errorf("decode parley book: %w", err)
	}
	if b.Bets == nil {
		b.Bets = map[string]Bet{}
	}
	return b, nil
}

func saveBook(path string, b Book) error {
	data, err := json.MarshalIndent(b, "", "    ")
	if err != nil {
		return fmt.Errorf("encode parley book: %w", err)
	}
	return utils.WriteFileAtomic(path, data)
}
