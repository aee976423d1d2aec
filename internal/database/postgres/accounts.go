package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// AccountsRepository implements the accounts repository for PostgreSQL
type AccountsRepository struct {
	db *pgxpool.Pool
}

// NewAccountsRepository creates a new AccountsRepository
func NewAccountsRepository(db *pgxpool.Pool) *AccountsRepository {
	return &AccountsRepository{db: db}
}

func (r *AccountsRepository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
}

func (r *AccountsRepository) GetUserBySlug(ctx context.Context, slug string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE slug = $1`, slug))
}

func (r *AccountsRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Slug, &u.Name, &u.Balance, &u.IsAdmin, &u.Created); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user row outside a transaction. The registration
// path goes through accountsTx.CreateUser instead so the row and its
// audit entry commit together.
func (r *AccountsRepository) CreateUser(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, r.db, user)
}

func insertUser(ctx context.Context, db dbtx, user *domain.User) error {
	query := `
		INSERT INTO users (id, slug, name, balance, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created
	`
	err := db.QueryRow(ctx, query,
		user.ID, user.Slug, user.Name, user.Balance, user.IsAdmin,
	).Scan(&user.Created)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: slug %q is taken", domain.ErrInvalidInput, user.Slug)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// BeginTx starts a transaction for account mutations
func (r *AccountsRepository) BeginTx(ctx context.Context) (repository.AccountsTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin accounts transaction: %w", err)
	}
	return &accountsTx{tx: tx, ledgerOps: ledgerOps{tx: tx}}, nil
}

// accountsTx implements repository.AccountsTx
type accountsTx struct {
	tx pgx.Tx
	ledgerOps
}

func (t *accountsTx) CreateUser(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, t.tx, user)
}

func (t *accountsTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *accountsTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

const userSelect = `SELECT id, slug, name, balance, is_admin, created FROM users`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Slug, &u.Name, &u.Balance, &u.IsAdmin, &u.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
