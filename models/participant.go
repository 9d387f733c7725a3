package models

import "fmt"

// Participant is anyone who can take part in a multi-player game.
type Participant interface {
	ID() string
	DisplayName() string
	Mention() string
	// Synthetic participants hold no ledger account.
	Synthetic() bool
}

// Member is a real chat user.
type Member struct {
	UserID string
	Name   string
}

func (m Member) ID() string          { return m.UserID }
func (m Member) DisplayName() string { return m.Name }
func (m Member) Mention() string     { return fmt.Sprintf("<@%s>", m.UserID) }
func (m Member) Synthetic() bool     { return false }

// HouseFighter is a participant played by the bot itself.
type HouseFighter struct {
	Name string
}

func (h HouseFighter) ID() string          { return "house:" + h.Name }
func (h HouseFighter) DisplayName() string { return h.Name }
func (h HouseFighter) Mention() string     { return "**" + h.Name + "**" }
func (h HouseFighter) Synthetic() bool     { return true }
