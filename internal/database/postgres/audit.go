package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

type auditLogRepository struct {
	db *pgxpool.Pool
}

// NewAuditLogRepository creates a new PostgreSQL audit log repository
func NewAuditLogRepository(db *pgxpool.Pool) repository.AuditLog {
	return &auditLogRepository{db: db}
}

const auditSelect = `SELECT id, user_id, kind, delta, balance, bet_id, option_id, reason, created FROM audit_entries`

func (r *auditLogRepository) GetEntriesByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	query := auditSelect + ` WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

func (r *auditLogRepository) GetEntriesByBet(ctx context.Context, betID uuid.UUID) ([]domain.AuditEntry, error) {
	query := auditSelect + ` WHERE bet_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

func scanAuditEntries(rows pgx.Rows) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Delta, &e.Balance,
			&e.BetID, &e.OptionID, &e.Reason, &e.Created); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Kind = domain.AuditKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
