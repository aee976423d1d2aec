package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// Accounts defines the interface for user account persistence
type Accounts interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserBySlug(ctx context.Context, slug string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	BeginTx(ctx context.Context) (AccountsTx, error)
}

// AccountsTx defines the transactional surface for account mutations.
// User creation lives here rather than on Accounts: the initial balance
// grant is a balance change, so the row and its audit entry must land in
// the same transaction.
type AccountsTx interface {
	Tx
	LedgerTx

	CreateUser(ctx context.Context, user *domain.User) error
}
