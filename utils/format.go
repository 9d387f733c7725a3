package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatBux renders an amount with comma thousands and no trailing zeros.
func FormatBux(amount decimal.Decimal) string {
	str := amount.String()
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign = "-"
		str = str[1:]
	}
	whole, frac, hasFrac := strings.Cut(str, ".")
	out := sign + FormatNumber(whole)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatNumber adds commas between thousands of a string of digits
func FormatNumber(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var result strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(r)
	}

	return result.String()
}

// FormatDuration renders d as "Nh Nm", rounding partial minutes down.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}

// UntilNextDay returns the time left until the next UTC midnight.
func UntilNextDay(now time.Time) time.Duration {
	now = now.UTC()
	y, mo, d := now.Date()
	next := time.Date(y, mo, d+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
