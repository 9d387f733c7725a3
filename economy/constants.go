package economy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Economy defaults
var (
	DefaultStartingGrant = decimal.NewFromInt(300)
	DefaultDailyGrant    = decimal.NewFromInt(300)
	DefaultWelfareGrant  = decimal.NewFromInt(100)
)

// LeaderboardSize is how many accounts the leaderboard shows.
const LeaderboardSize = 7

// Game policies
var (
	BlackjackPolicy = Policy{
		Game:     "blackjack",
		MaxBet:   decimal.NewFromInt(1000),
		Timeout:  SettleOnTimeout,
		Cooldown: 10 * time.Second,
	}
	SlotsPolicy = Policy{
		Game:     "slots",
		Timeout:  ForfeitOnTimeout,
		Cooldown: 3 * time.Second,
	}
	HigherOrLowerPolicy = Policy{
		Game:    "higherorlower",
		Timeout: SettleOnTimeout,
	}
	UnlockerPolicy = Policy{
		Game:    "unlocker",
		Timeout: RefundOnTimeout,
	}
	ParleyPolicy = Policy{
		Game:    "parley",
		Timeout: RefundOnTimeout,
	}
)
