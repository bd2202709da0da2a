package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlive/backend/internal/models"
)

// Repository handles user_notifications persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBulk inserts one notification per recipient. Conflicting rows
// (e.g. a repeated announcement for the same user) are silently dropped.
// Returns the number of rows actually inserted.
func (r *Repository) CreateBulk(ctx context.Context, items []models.UserNotification) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	const q = `INSERT INTO user_notifications (user_id, notification_type, title, content, event_id, announcement_id, recording_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`
	batch := &pgx.Batch{}
	for _, n := range items {
		batch.Queue(q, n.UserID, string(n.Type), n.Title, n.Content, n.EventID, n.AnnouncementID, n.RecordingID)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range items {
		tag, err := results.Exec()
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// ListByUser returns the user's notifications, newest first. When onlyUnread
// is true, read notifications are excluded.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool) ([]models.UserNotification, error) {
	q := `SELECT id, user_id, notification_type, title, content, event_id, announcement_id, recording_id, is_read, created_at
		FROM user_notifications WHERE user_id = $1`
	if onlyUnread {
		q += ` AND is_read = FALSE`
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserNotification
	for rows.Next() {
		var n models.UserNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content, &n.EventID, &n.AnnouncementID, &n.RecordingID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// UnreadCount returns the number of unread notifications for a user.
func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM user_notifications WHERE user_id = $1 AND is_read = FALSE`
	var n int
	err := r.pool.QueryRow(ctx, q, userID).Scan(&n)
	return n, err
}

// MarkRead marks one of the user's notifications as read. Returns false when
// no matching notification exists.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	const q = `UPDATE user_notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead marks every unread notification for the user as read.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	const q = `UPDATE user_notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	tag, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
