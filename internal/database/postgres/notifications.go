package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

type notificationsRepository struct {
	db *pgxpool.Pool
}

// NewNotificationsRepository creates a new PostgreSQL notifications repository
func NewNotificationsRepository(db *pgxpool.Pool) repository.Notifications {
	return &notificationsRepository{db: db}
}

func (r *notificationsRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, kind, payload, read, created
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY id DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kind string
		var payload []byte
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &payload, &n.Read, &n.Created); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = domain.NotificationKind(kind)

		// payloads round-trip as generic JSON; the kind tells the client
		// which shape to expect
		var decoded map[string]interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
		}
		n.Payload = decoded

		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationsRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}
