package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlive/backend/internal/models"
)

// ErrAlreadyRegistered is returned when the user already holds a
// registration for the event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration. The (event, user) unique constraint rejects
// duplicates, including the loser of a concurrent double-submit.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (id, event_id, user_id)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, attended, registered_at`
	err := r.pool.QueryRow(ctx, q, reg.EventID, reg.UserID).Scan(&reg.ID, &reg.Attended, &reg.RegisteredAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyRegistered
	}
	return err
}

// GetByID returns a registration by ID, or nil when none exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	const q = `SELECT id, event_id, user_id, attended, registered_at FROM registrations WHERE id = $1`
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, id).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Attended, &reg.RegisteredAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// Exists reports whether the user holds a registration for the event.
func (r *Repository) Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, eventID, userID).Scan(&exists)
	return exists, err
}

// ListByUser returns the user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return r.list(ctx, `SELECT id, event_id, user_id, attended, registered_at FROM registrations WHERE user_id = $1 ORDER BY registered_at DESC`, userID)
}

// ListByEvent returns all registrations for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	return r.list(ctx, `SELECT id, event_id, user_id, attended, registered_at FROM registrations WHERE event_id = $1 ORDER BY registered_at DESC`, eventID)
}

func (r *Repository) list(ctx context.Context, q string, arg uuid.UUID) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Attended, &reg.RegisteredAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// ListUserIDsByEvent returns the ids of every registered user for an event.
// Used for live-session and recording fan-out.
func (r *Repository) ListUserIDsByEvent(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkAttended flags a registration as attended. Idempotent.
func (r *Repository) MarkAttended(ctx context.Context, eventID, userID uuid.UUID) error {
	const q = `UPDATE registrations SET attended = TRUE WHERE event_id = $1 AND user_id = $2 AND attended = FALSE`
	_, err := r.pool.Exec(ctx, q, eventID, userID)
	return err
}

// Delete removes a registration.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	return err
}
