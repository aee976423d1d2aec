package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// AuditLog defines the read interface for the append-only audit trail.
// Writes only happen through LedgerTx.AppendAudit so they cannot escape
// the transaction of the mutation they describe.
type AuditLog interface {
	// GetEntriesByUser retrieves a user's audit entries newest-first
	GetEntriesByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEntry, error)

	// GetEntriesByBet retrieves every audit entry referencing a bet
	GetEntriesByBet(ctx context.Context, betID uuid.UUID) ([]domain.AuditEntry, error)
}
