package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// DefaultLimit caps a user history query when the caller does not ask
// for a specific page size.
const DefaultLimit = 50

// MaxLimit bounds how many entries one query may return
const MaxLimit = 500

// Service exposes the audit trail for reading. Entries are written only
// inside ledger transactions, so there is no write surface here.
type Service interface {
	// UserHistory returns a user's balance-affecting entries newest-first
	UserHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEntry, error)

	// BetHistory returns every entry referencing a bet, for reconciling a
	// resolution or reversal against the moves it made
	BetHistory(ctx context.Context, betID uuid.UUID) ([]domain.AuditEntry, error)
}

type service struct {
	repo repository.AuditLog
}

// NewService creates a new audit read service
func NewService(repo repository.AuditLog) Service {
	return &service{repo: repo}
}

func (s *service) UserHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	entries, err := s.repo.GetEntriesByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	return entries, nil
}

func (s *service) BetHistory(ctx context.Context, betID uuid.UUID) ([]domain.AuditEntry, error) {
	entries, err := s.repo.GetEntriesByBet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	return entries, nil
}
