package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered community member and their currency account.
// Balance may go negative (debt) through staking, bounded by the configured
// debt ceiling. Balance only ever changes through ledger operations that
// also write an audit entry.
type User struct {
	ID      uuid.UUID `json:"id"`
	Slug    string    `json:"slug"`
	Name    string    `json:"name"`
	Balance int64     `json:"balance"`
	IsAdmin bool      `json:"is_admin"`
	Created time.Time `json:"created"`
}
