package economy

import (
	"errors"
	"fmt"
	"time"

	"buxbot/utils"
)

var (
	ErrNotClaimed        = errors.New("account not claimed yet")
	ErrBusy              = errors.New("already in an open bet")
	ErrInvalidBet        = errors.New("invalid bet")
	ErrBetTooLarge       = errors.New("bet above the maximum")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyClaimed    = errors.New("daily reward already claimed")
	ErrOnCooldown        = errors.New("command on cooldown")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// WaitError carries how long until an action becomes available again.
type WaitError struct {
	Err       error
	Remaining time.Duration
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("%v: next in %s", e.Err, utils.FormatDuration(e.Remaining))
}

func (e *WaitError) Unwrap() error { return e.Err }

// BusyError names the user whose open bet blocked the action.
type BusyError struct {
	UserID string
}

func (e *BusyError) Error() string { return fmt.Sprintf("user %s: %v", e.UserID, ErrBusy) }

func (e *BusyError) Unwrap() error { return ErrBusy }
