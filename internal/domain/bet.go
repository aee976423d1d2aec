package domain

import (
	"time"

	"github.com/google/uuid"
)

// BetProgress represents the lifecycle state of a bet
type BetProgress string

const (
	BetProgressVoting    BetProgress = "Voting"
	BetProgressLocked    BetProgress = "Locked"
	BetProgressComplete  BetProgress = "Complete"
	BetProgressCancelled BetProgress = "Cancelled"
)

// Valid reports whether p is a known bet progress value
func (p BetProgress) Valid() bool {
	switch p {
	case BetProgressVoting, BetProgressLocked, BetProgressComplete, BetProgressCancelled:
		return true
	}
	return false
}

// MinimumOptions is the least number of options a bet must keep while in Voting
const MinimumOptions = 2

// Bet is a discrete event users wager on. It belongs to a game, references
// the lock moment at which it stops accepting stakes, and moves through
// BetProgress states only via the lifecycle operations (never deleted once
// resolved).
type Bet struct {
	ID           uuid.UUID  `json:"id"`
	GameID       uuid.UUID  `json:"game_id"`
	LockMomentID uuid.UUID  `json:"lock_moment_id"`
	AuthorID     uuid.UUID  `json:"author_id"`
	Name         string     `json:"name"`
	Progress     BetProgress `json:"progress"`
	// CancelledReason and CancelledFrom are set only while Progress is
	// Cancelled. CancelledFrom records the progress the bet held at
	// cancellation so RevertCancel restores it without re-deriving it from
	// lock-moment status.
	CancelledReason string      `json:"cancelled_reason,omitempty"`
	CancelledFrom   BetProgress `json:"-"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	Version         int         `json:"version"`
	Created         time.Time   `json:"created"`
	Modified        time.Time   `json:"modified"`
	Options         []Option    `json:"options,omitempty"`
}

// Option is one of the mutually exclusive outcomes of a bet
type Option struct {
	ID      uuid.UUID `json:"id"`
	BetID   uuid.UUID `json:"bet_id"`
	Name    string    `json:"name"`
	Order   int       `json:"order"`
	Won     bool      `json:"won"`
	Version int       `json:"version"`
	Stakes  []Stake   `json:"stakes,omitempty"`
}

// Option lookup helpers

// FindOption returns the option with the given ID, or nil
func (b *Bet) FindOption(optionID uuid.UUID) *Option {
	for i := range b.Options {
		if b.Options[i].ID == optionID {
			return &b.Options[i]
		}
	}
	return nil
}

// StakeByUser returns the user's stake on any option of the bet, or nil.
// At most one active stake per user per bet is an invariant.
func (b *Bet) StakeByUser(userID uuid.UUID) (*Option, *Stake) {
	for i := range b.Options {
		for j := range b.Options[i].Stakes {
			if b.Options[i].Stakes[j].UserID == userID {
				return &b.Options[i], &b.Options[i].Stakes[j]
			}
		}
	}
	return nil, nil
}
