package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// DefaultLimit caps a feed query when the caller does not ask for a
// specific page size.
const DefaultLimit = 50

// MaxLimit bounds how many notifications one query may return
const MaxLimit = 200

// Service exposes the per-user notification feed. Notifications are
// created only inside ledger transactions; this surface reads and
// acknowledges them.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo repository.Notifications
}

// NewService creates a new notification service
func NewService(repo repository.Notifications) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	notifications, err := s.repo.ListByUser(ctx, userID, limit, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	if count > 0 {
		logger.FromContext(ctx).Debug("Notifications marked read", "user_id", userID, "count", count)
	}
	return count, nil
}
