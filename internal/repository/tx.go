package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// Tx defines the interface for transactional operations
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// LedgerTx is the balance-and-audit surface shared by every transactional
// repository. Balance changes, audit entries and notifications always
// travel together inside one transaction - a commit that moves money
// without its paper trail must be impossible to express.
type LedgerTx interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// AdjustBalance applies a signed delta atomically and returns the
	// resulting balance. The delta form (rather than read-then-set) keeps
	// concurrent transactions on the same account from losing updates.
	AdjustBalance(ctx context.Context, userID uuid.UUID, delta int64) (int64, error)

	// SetBalance overwrites the balance and returns the previous value
	SetBalance(ctx context.Context, userID uuid.UUID, balance int64) (int64, error)

	AppendAudit(ctx context.Context, entry *domain.AuditEntry) error
	CreateNotification(ctx context.Context, n *domain.Notification) error
}
