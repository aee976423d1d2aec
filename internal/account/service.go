package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// Service defines the interface for account operations
type Service interface {
	Register(ctx context.Context, slug, name string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserBySlug(ctx context.Context, slug string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	Gift(ctx context.Context, actingUserID, targetUserID uuid.UUID, amount int64, reason string) (*domain.User, error)
	Bankrupt(ctx context.Context, actingUserID, targetUserID uuid.UUID) (*domain.User, error)
}

// Config carries the ledger tunables the account service needs
type Config struct {
	InitialBalance int64
}

type service struct {
	repo repository.Accounts
	cfg  Config
}

// NewService creates a new account service
func NewService(repo repository.Accounts, cfg Config) Service {
	return &service{repo: repo, cfg: cfg}
}

// Register creates a user with the configured initial balance. The grant
// is the only way money enters the system besides bankruptcy resets, and
// it is audited like every other balance change.
func (s *service) Register(ctx context.Context, slug, name string) (*domain.User, error) {
	log := logger.FromContext(ctx)

	slug = strings.TrimSpace(strings.ToLower(slug))
	name = strings.TrimSpace(name)
	if slug == "" || name == "" {
		return nil, fmt.Errorf("%w: slug and name are required", domain.ErrInvalidInput)
	}

	user := &domain.User{
		ID:      uuid.New(),
		Slug:    slug,
		Name:    name,
		Balance: s.cfg.InitialBalance,
		Created: time.Now(),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	entry := &domain.AuditEntry{
		UserID:  user.ID,
		Kind:    domain.AuditAccountCreated,
		Delta:   s.cfg.InitialBalance,
		Balance: s.cfg.InitialBalance,
	}
	if err := tx.AppendAudit(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Registered user", "user_id", user.ID, "slug", slug, "initial_balance", s.cfg.InitialBalance)
	return user, nil
}

// GetUser retrieves a user by ID
func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetUser(ctx, id)
}

// GetUserBySlug retrieves a user by slug
func (s *service) GetUserBySlug(ctx context.Context, slug string) (*domain.User, error) {
	return s.repo.GetUserBySlug(ctx, strings.TrimSpace(strings.ToLower(slug)))
}

// ListUsers retrieves all users
func (s *service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// Gift credits currency to a user on an admin's behalf and notifies them
func (s *service) Gift(ctx context.Context, actingUserID, targetUserID uuid.UUID, amount int64, reason string) (*domain.User, error) {
	log := logger.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("%w: gift amount must be positive", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := requireAdmin(ctx, tx, actingUserID); err != nil {
		return nil, err
	}

	target, err := tx.GetUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target user: %w", err)
	}
	if target == nil {
		return nil, domain.ErrUserNotFound
	}

	balance, err := Credit(ctx, tx, targetUserID, amount, domain.AuditGifted, Ref{Reason: reason})
	if err != nil {
		return nil, err
	}

	n := &domain.Notification{
		UserID: targetUserID,
		Kind:   domain.NotificationGifted,
		Payload: domain.GiftedPayload{
			Amount: amount,
			Reason: reason,
		},
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Gifted currency", "from", actingUserID, "to", targetUserID, "amount", amount)
	target.Balance = balance
	return target, nil
}

// Bankrupt resets a user's balance to the configured initial amount. Open
// stakes are deliberately untouched - a user may go bankrupt while still
// holding active stakes.
func (s *service) Bankrupt(ctx context.Context, actingUserID, targetUserID uuid.UUID) (*domain.User, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	// Users may declare their own bankruptcy; admins may force it
	if actingUserID != targetUserID {
		if err := requireAdmin(ctx, tx, actingUserID); err != nil {
			return nil, err
		}
	}

	target, err := tx.GetUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target user: %w", err)
	}
	if target == nil {
		return nil, domain.ErrUserNotFound
	}

	oldBalance, err := tx.SetBalance(ctx, targetUserID, s.cfg.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to reset balance: %w", err)
	}

	entry := &domain.AuditEntry{
		UserID:  targetUserID,
		Kind:    domain.AuditBankruptcy,
		Delta:   s.cfg.InitialBalance - oldBalance,
		Balance: s.cfg.InitialBalance,
	}
	if err := tx.AppendAudit(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Bankruptcy processed", "user_id", targetUserID, "old_balance", oldBalance, "new_balance", s.cfg.InitialBalance)
	target.Balance = s.cfg.InitialBalance
	return target, nil
}

func requireAdmin(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID) error {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get acting user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if !user.IsAdmin {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}
