package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stake is a user's wager on one option of a bet. The amount is debited
// from the user's balance when the stake is placed, so losing requires no
// further balance change.
type Stake struct {
	OptionID uuid.UUID `json:"option_id"`
	BetID    uuid.UUID `json:"bet_id"`
	UserID   uuid.UUID `json:"user_id"`
	Amount   int64     `json:"amount"`
	Message  string    `json:"message,omitempty"`
	PlacedAt time.Time `json:"placed_at"`

	// Refunded marks a stake whose amount was credited back by a
	// cancellation. The stake stays in place so RevertCancel can re-debit
	// the exact figure.
	Refunded bool `json:"refunded,omitempty"`

	// Payout is the gross amount credited by Complete, recorded so
	// RevertComplete can debit exactly what was paid rather than
	// recomputing it. Zero for losing or unresolved stakes.
	Payout int64 `json:"payout,omitempty"`
}
