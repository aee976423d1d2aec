package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// Notifications defines the read/acknowledge interface for per-user
// notifications. Creation only happens through LedgerTx.CreateNotification.
type Notifications interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]domain.Notification, error)

	// MarkAllRead flags every unread notification read, returning the count
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
