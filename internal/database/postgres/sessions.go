package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/StakeBot_Go/internal/repository"
)

type sessionsRepository struct {
	db *pgxpool.Pool
}

// NewSessionsRepository creates a new PostgreSQL sessions repository
func NewSessionsRepository(db *pgxpool.Pool) repository.Sessions {
	return &sessionsRepository{db: db}
}

func (r *sessionsRepository) GetSession(ctx context.Context, userID uuid.UUID, proof string) (*repository.Session, error) {
	query := `
		SELECT user_id, proof, expires
		FROM sessions
		WHERE user_id = $1 AND proof = $2
	`
	var s repository.Session
	err := r.db.QueryRow(ctx, query, userID, proof).Scan(&s.UserID, &s.Proof, &s.Expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}
