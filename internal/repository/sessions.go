package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is a stored session proof for a user. Issuing sessions (the
// OAuth handshake) is an external concern; the ledger only validates.
type Session struct {
	UserID  uuid.UUID
	Proof   string
	Expires time.Time
}

// Sessions defines the interface for session lookup
type Sessions interface {
	GetSession(ctx context.Context, userID uuid.UUID, proof string) (*Session, error)
}
