package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseBet(t *testing.T) {
	balance := decimal.NewFromInt(500)
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"100", "100", false},
		{" 2.5 ", "2.5", false},
		{"1k", "1000", false},
		{"1,500", "1500", false},
		{"all", "500", false},
		{"ALL", "500", false},
		{"half", "250", false},
		{"10%", "50", false},
		{"0", "", true},
		{"-5", "", true},
		{"abc", "", true},
		{"", "", true},
		{"150%", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBet(tt.in, balance)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %s", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseBetAllWithEmptyBalance(t *testing.T) {
	if _, err := ParseBet("all", decimal.Zero); err == nil {
		t.Error("Expected error betting all of an empty balance")
	}
}
