package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies the payload type of a notification
type NotificationKind string

const (
	NotificationGifted      NotificationKind = "Gifted"
	NotificationRefunded    NotificationKind = "Refunded"
	NotificationBetFinished NotificationKind = "BetFinished"
	NotificationBetReverted NotificationKind = "BetReverted"
)

// StakeResult is the outcome carried by a BetFinished notification
type StakeResult string

const (
	StakeResultWin  StakeResult = "Win"
	StakeResultLoss StakeResult = "Loss"
)

// Notification is a per-user message generated as a side effect of ledger
// state changes the user should know about. Written in the same
// transaction as the triggering mutation.
type Notification struct {
	ID      int64            `json:"id"`
	UserID  uuid.UUID        `json:"user_id"`
	Kind    NotificationKind `json:"kind"`
	Payload interface{}      `json:"payload"`
	Read    bool             `json:"read"`
	Created time.Time        `json:"created"`
}

// Typed notification payloads. Each carries the identifiers and display
// names a client needs without further lookups.

// GiftedPayload notifies a user of an admin currency gift
type GiftedPayload struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// RefundedPayload notifies a user that a cancelled bet returned their stake
type RefundedPayload struct {
	GameID     uuid.UUID `json:"game_id"`
	GameName   string    `json:"game_name"`
	BetID      uuid.UUID `json:"bet_id"`
	BetName    string    `json:"bet_name"`
	OptionID   uuid.UUID `json:"option_id"`
	OptionName string    `json:"option_name"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
}

// BetFinishedPayload notifies a participant of a completed bet's outcome
type BetFinishedPayload struct {
	GameID     uuid.UUID   `json:"game_id"`
	GameName   string      `json:"game_name"`
	BetID      uuid.UUID   `json:"bet_id"`
	BetName    string      `json:"bet_name"`
	OptionID   uuid.UUID   `json:"option_id"`
	OptionName string      `json:"option_name"`
	Result     StakeResult `json:"result"`
	// Amount is the payout credited on a win, or the stake lost on a loss
	Amount int64 `json:"amount"`
}

// BetRevertedPayload notifies a participant that a resolution was undone
type BetRevertedPayload struct {
	GameID   uuid.UUID `json:"game_id"`
	GameName string    `json:"game_name"`
	BetID    uuid.UUID `json:"bet_id"`
	BetName  string    `json:"bet_name"`
	// Amount is the signed balance adjustment the reversal applied
	Amount int64 `json:"amount"`
}
