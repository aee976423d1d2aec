package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// ledgerOps implements repository.LedgerTx over an open pgx transaction.
// It is embedded by every transactional repository so balance changes,
// audit entries and notifications share the surrounding transaction.
type ledgerOps struct {
	tx pgx.Tx
}

func (l *ledgerOps) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, slug, name, balance, is_admin, created
		FROM users
		WHERE id = $1
	`
	var u domain.User
	err := l.tx.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Slug, &u.Name, &u.Balance, &u.IsAdmin, &u.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// AdjustBalance applies the delta in a single UPDATE so concurrent
// transactions on the same account serialize on the row instead of
// losing updates.
func (l *ledgerOps) AdjustBalance(ctx context.Context, userID uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`
	var balance int64
	err := l.tx.QueryRow(ctx, query, userID, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return balance, nil
}

// SetBalance overwrites the balance, returning the value it replaced.
// The self-join is the standard trick for reading the pre-update value
// in the same statement.
func (l *ledgerOps) SetBalance(ctx context.Context, userID uuid.UUID, balance int64) (int64, error) {
	query := `
		UPDATE users u
		SET balance = $2
		FROM users old
		WHERE u.id = $1 AND old.id = u.id
		RETURNING old.balance
	`
	var previous int64
	err := l.tx.QueryRow(ctx, query, userID, balance).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to set balance: %w", err)
	}
	return previous, nil
}

func (l *ledgerOps) AppendAudit(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (user_id, kind, delta, balance, bet_id, option_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created
	`
	err := l.tx.QueryRow(ctx, query,
		entry.UserID, string(entry.Kind), entry.Delta, entry.Balance,
		entry.BetID, entry.OptionID, entry.Reason,
	).Scan(&entry.ID, &entry.Created)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (l *ledgerOps) CreateNotification(ctx context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (user_id, kind, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created
	`
	err = l.tx.QueryRow(ctx, query, n.UserID, string(n.Kind), payload).Scan(&n.ID, &n.Created)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
