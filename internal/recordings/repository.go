package recordings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlive/backend/internal/models"
)

const recordingColumns = `id, event_id, title, description, recording_url, duration_minutes, uploaded_by, is_public, s3_key, status, uploaded_at`

// Repository handles recording persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRecording(row pgx.Row) (*models.Recording, error) {
	var rec models.Recording
	err := row.Scan(&rec.ID, &rec.EventID, &rec.Title, &rec.Description, &rec.RecordingURL,
		&rec.DurationMinutes, &rec.UploadedBy, &rec.IsPublic, &rec.S3Key, &rec.Status, &rec.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a recording in pending status.
func (r *Repository) Create(ctx context.Context, rec *models.Recording) error {
	const q = `INSERT INTO recordings (id, event_id, title, description, recording_url, duration_minutes, uploaded_by, is_public)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, s3_key, status, uploaded_at`
	return r.pool.QueryRow(ctx, q, rec.EventID, rec.Title, rec.Description, rec.RecordingURL,
		rec.DurationMinutes, rec.UploadedBy, rec.IsPublic).
		Scan(&rec.ID, &rec.S3Key, &rec.Status, &rec.UploadedAt)
}

// GetByID returns a recording, or nil when none exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	rec, err := scanRecording(r.pool.QueryRow(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListByEvent returns an event's recordings, newest first. When publicOnly
// is set, private recordings are filtered out.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID, publicOnly bool) ([]models.Recording, error) {
	q := `SELECT ` + recordingColumns + ` FROM recordings WHERE event_id = $1`
	if publicOnly {
		q += ` AND is_public = TRUE`
	}
	q += ` ORDER BY uploaded_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.Recording, 0)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

// MarkArchived stores the S3 key and flips status to completed. Called by
// the background worker once the file is in the bucket.
func (r *Repository) MarkArchived(ctx context.Context, id uuid.UUID, s3Key string) error {
	const q = `UPDATE recordings SET s3_key = $2, status = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, s3Key, models.RecordingCompleted)
	return err
}

// Delete removes a recording row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	return err
}
