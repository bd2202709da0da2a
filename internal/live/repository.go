package live

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlive/backend/internal/models"
)

const sessionColumns = `id, event_id, room_name, is_active, start_time, started_at, end_time, started_by, created_at`

// Repository handles live session and participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a live session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// roomName builds the conferencing room identifier for an event:
// webinar_<event_id>_<random suffix>. Globally unique via the room_name
// unique constraint.
func roomName(eventID uuid.UUID) string {
	return fmt.Sprintf("webinar_%s_%s", eventID, uuid.New().String()[:8])
}

func scanSession(row pgx.Row) (*models.LiveSession, error) {
	var s models.LiveSession
	err := row.Scan(&s.ID, &s.EventID, &s.RoomName, &s.IsActive, &s.StartTime, &s.StartedAt, &s.EndTime, &s.StartedBy, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByEvent returns the session row for an event, or nil when none exists.
func (r *Repository) GetByEvent(ctx context.Context, eventID uuid.UUID) (*models.LiveSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM live_sessions WHERE event_id = $1`, eventID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// GetActiveByEvent returns the active session for an event, or nil.
func (r *Repository) GetActiveByEvent(ctx context.Context, eventID uuid.UUID) (*models.LiveSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM live_sessions WHERE event_id = $1 AND is_active = TRUE`, eventID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// GetOrCreate returns the session row for an event, creating it when absent.
// Concurrent creators race on the event_id unique constraint; the loser's
// insert is a no-op and both callers read the surviving row.
func (r *Repository) GetOrCreate(ctx context.Context, eventID, startedBy uuid.UUID) (*models.LiveSession, error) {
	const q = `INSERT INTO live_sessions (id, event_id, room_name, started_by)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, eventID, roomName(eventID), startedBy); err != nil {
		return nil, err
	}
	return r.GetByEvent(ctx, eventID)
}

// Activate marks a session active, stamps started_at and clears end_time.
// Restarting an ended session is the intended path; no archived state exists.
func (r *Repository) Activate(ctx context.Context, sessionID, startedBy uuid.UUID) (*models.LiveSession, error) {
	const q = `UPDATE live_sessions
		SET is_active = TRUE, started_at = NOW(), end_time = NULL, started_by = $2
		WHERE id = $1
		RETURNING ` + sessionColumns
	return scanSession(r.pool.QueryRow(ctx, q, sessionID, startedBy))
}

// End marks a session inactive and stamps end_time.
func (r *Repository) End(ctx context.Context, sessionID uuid.UUID) (*models.LiveSession, error) {
	const q = `UPDATE live_sessions
		SET is_active = FALSE, end_time = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns
	return scanSession(r.pool.QueryRow(ctx, q, sessionID))
}

// AddParticipant records a join. Idempotent: the (session, user) unique
// constraint swallows repeat joins.
func (r *Repository) AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error {
	const q = `INSERT INTO live_session_participants (id, session_id, user_id)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (session_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, sessionID, userID)
	return err
}

// CountParticipants returns the distinct participant count for a session.
func (r *Repository) CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM live_session_participants WHERE session_id = $1`
	var n int
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(&n)
	return n, err
}

// ListParticipantUserIDs returns the ids of every user who joined the session.
func (r *Repository) ListParticipantUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM live_session_participants WHERE session_id = $1`, sessionID)
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

// Analytics aggregates statistics across all sessions.
func (r *Repository) Analytics(ctx context.Context) (*models.LiveAnalytics, error) {
	out := &models.LiveAnalytics{}

	const totalsQ = `SELECT
		COUNT(DISTINCT event_id),
		COUNT(*),
		COUNT(*) FILTER (WHERE is_active),
		COUNT(*) FILTER (WHERE NOT is_active AND end_time IS NOT NULL),
		AVG(EXTRACT(EPOCH FROM (end_time - start_time))) FILTER (WHERE end_time IS NOT NULL)
		FROM live_sessions`
	var avgSeconds *float64
	err := r.pool.QueryRow(ctx, totalsQ).Scan(
		&out.TotalWebinars, &out.TotalLiveSessions, &out.ActiveSessions, &out.CompletedSessions, &avgSeconds)
	if err != nil {
		return nil, err
	}
	if avgSeconds != nil {
		minutes := math.Round(*avgSeconds/60*100) / 100
		out.AverageSessionDurationMinutes = &minutes
	}

	const participantsQ = `SELECT COUNT(DISTINCT user_id) FROM live_session_participants`
	if err := r.pool.QueryRow(ctx, participantsQ).Scan(&out.TotalParticipants); err != nil {
		return nil, err
	}

	const perSessionQ = `SELECT s.event_id, e.title, COUNT(DISTINCT p.user_id) AS participant_count
		FROM live_sessions s
		JOIN events e ON e.id = s.event_id
		LEFT JOIN live_session_participants p ON p.session_id = s.id
		GROUP BY s.id, s.event_id, e.title
		ORDER BY participant_count DESC`
	rows, err := r.pool.Query(ctx, perSessionQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out.SessionsPerWebinar = make([]models.SessionParticipantCount, 0)
	for rows.Next() {
		var row models.SessionParticipantCount
		if err := rows.Scan(&row.EventID, &row.Title, &row.ParticipantCount); err != nil {
			return nil, err
		}
		out.SessionsPerWebinar = append(out.SessionsPerWebinar, row)
	}
	return out, rows.Err()
}
