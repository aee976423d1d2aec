package domain

import "github.com/google/uuid"

// Feed event types, broadcast for public display after a mutation commits
const (
	EventNewBet       = "NewBet"
	EventBetComplete  = "BetComplete"
	EventNotableStake = "NotableStake"
)

// NewBetPayload announces a freshly created bet
type NewBetPayload struct {
	GameID   uuid.UUID `json:"game_id"`
	GameName string    `json:"game_name"`
	BetID    uuid.UUID `json:"bet_id"`
	BetName  string    `json:"bet_name"`
	Options  []string  `json:"options"`
}

// BetCompletePayload announces a resolved bet and its headline numbers
type BetCompletePayload struct {
	GameID         uuid.UUID   `json:"game_id"`
	GameName       string      `json:"game_name"`
	BetID          uuid.UUID   `json:"bet_id"`
	BetName        string      `json:"bet_name"`
	WinningOptions []string    `json:"winning_options"`
	TotalPot       int64       `json:"total_pot"`
	WinnerCount    int         `json:"winner_count"`
	TopPayout      int64       `json:"top_payout"`
	TopWinnerIDs   []uuid.UUID `json:"top_winner_ids,omitempty"`
}

// NotableStakePayload announces a stake at or above the notable threshold
type NotableStakePayload struct {
	GameID     uuid.UUID `json:"game_id"`
	GameName   string    `json:"game_name"`
	BetID      uuid.UUID `json:"bet_id"`
	BetName    string    `json:"bet_name"`
	OptionID   uuid.UUID `json:"option_id"`
	OptionName string    `json:"option_name"`
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	Amount     int64     `json:"amount"`
	Message    string    `json:"message,omitempty"`
}
