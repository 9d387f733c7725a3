package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1000000)
	hundred  = decimal.NewFromInt(100)
)

// ParseBet parses bet strings like "100", "2.5", "1k", "all", "half", "50%".
// The result is not checked against the balance; a non-positive result is an error.
func ParseBet(betStr string, balance decimal.Decimal) (decimal.Decimal, error) {
	betStr = strings.TrimSpace(strings.ToLower(betStr))
	// Remove common formatting characters
	betStr = strings.ReplaceAll(betStr, ",", "")
	betStr = strings.ReplaceAll(betStr, "_", "")

	var bet decimal.Decimal
	switch betStr {
	case "":
		return decimal.Zero, fmt.Errorf("empty bet")
	case "all", "allin", "max":
		bet = balance
	case "half":
		bet = balance.Div(decimal.NewFromInt(2))
	default:
		if strings.HasSuffix(betStr, "%") {
			percent, err := decimal.NewFromString(strings.TrimSuffix(betStr, "%"))
			if err != nil {
				return decimal.Zero, fmt.Errorf("invalid percentage: %s", betStr)
			}
			if percent.IsNegative() || percent.GreaterThan(hundred) {
				return decimal.Zero, fmt.Errorf("percentage must be between 0 and 100")
			}
			bet = balance.Mul(percent).Div(hundred)
			break
		}

		multiplier := decimal.NewFromInt(1)
		if strings.HasSuffix(betStr, "k") {
			multiplier = thousand
			betStr = strings.TrimSuffix(betStr, "k")
		} else if strings.HasSuffix(betStr, "m") {
			multiplier = million
			betStr = strings.TrimSuffix(betStr, "m")
		}

		n, err := decimal.NewFromString(betStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid bet amount: %s", betStr)
		}
		bet = n.Mul(multiplier)
	}

	if !bet.IsPositive() {
		return decimal.Zero, fmt.Errorf("bet must be positive")
	}
	return bet, nil
}
