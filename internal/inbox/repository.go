package inbox

import (
	"bytes"
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenlive/backend/internal/models"
)

const conversationColumns = `id, event_id, last_message_at, created_at, updated_at`
const messageColumns = `id, conversation_id, sender_id, content, is_read, created_at`

// Repository handles conversation and message persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an inbox repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.EventID, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByParticipants returns the conversation whose participant set equals
// participantIDs exactly and whose event context matches, or nil when no
// such conversation exists. Matching is on the full set, so a group thread
// never shadows a direct thread between a subset of its members.
func (r *Repository) FindByParticipants(ctx context.Context, participantIDs []uuid.UUID, eventID *uuid.UUID) (*models.Conversation, error) {
	const q = `SELECT c.id, c.event_id, c.last_message_at, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.event_id = $1 OR ($1::uuid IS NULL AND c.event_id IS NULL)
		GROUP BY c.id
		HAVING array_agg(p.user_id ORDER BY p.user_id) = $2::uuid[]
		LIMIT 1`
	c, err := scanConversation(r.pool.QueryRow(ctx, q, eventID, sortedIDs(participantIDs)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Create inserts a conversation and its participant rows in one transaction.
func (r *Repository) Create(ctx context.Context, participantIDs []uuid.UUID, eventID *uuid.UUID) (*models.Conversation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	conv, err := scanConversation(tx.QueryRow(ctx,
		`INSERT INTO conversations (id, event_id) VALUES (gen_random_uuid(), $1) RETURNING `+conversationColumns, eventID))
	if err != nil {
		return nil, err
	}
	for _, uid := range participantIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`, conv.ID, uid); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return conv, nil
}

// IsParticipant reports whether the user belongs to the conversation.
func (r *Repository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, conversationID, userID).Scan(&exists)
	return exists, err
}

// ListParticipantIDs returns the user ids in a conversation.
func (r *Repository) ListParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = $1`, conversationID)
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

// AddMessage inserts a message and bumps the conversation's last_message_at.
func (r *Repository) AddMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	msg, err := scanMessage(tx.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING `+messageColumns, conversationID, senderID, content))
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET last_message_at = $2, updated_at = $2 WHERE id = $1`,
		conversationID, msg.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListSummaries returns every conversation the user participates in, most
// recently active first, each with its participant roster, latest message
// and the user's unread count.
func (r *Repository) ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	const q = `SELECT c.id, c.event_id, c.last_message_at, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.ConversationSummary{Conversation: *conv})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range summaries {
		if err := r.fillSummary(ctx, &summaries[i], userID); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

func (r *Repository) fillSummary(ctx context.Context, s *models.ConversationSummary, userID uuid.UUID) error {
	const participantsQ = `SELECT u.id, u.email, u.full_name, u.role, u.created_at
		FROM conversation_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.conversation_id = $1
		ORDER BY u.full_name`
	rows, err := r.pool.Query(ctx, participantsQ, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
			return err
		}
		s.Participants = append(s.Participants, u)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	last, err := scanMessage(r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT 1`, s.ID))
	if err != nil && err != pgx.ErrNoRows {
		return err
	}
	if err == nil {
		s.LastMessage = last
	}

	const unreadQ = `SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE`
	return r.pool.QueryRow(ctx, unreadQ, s.ID, userID).Scan(&s.UnreadCount)
}

// ListMessages returns one page of a conversation's messages in chronological
// order, plus the total message count.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT ` + messageColumns + ` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	msgs := make([]models.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, total, rows.Err()
}

// MarkRead marks every message in the conversation not sent by the reader
// as read. Returns the number of messages updated.
func (r *Repository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int, error) {
	const q = `UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE`
	tag, err := r.pool.Exec(ctx, q, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
