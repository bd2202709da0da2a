package inbox

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
	"github.com/lumenlive/backend/pkg/response"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ConversationStore is the persistence surface the handler needs.
type ConversationStore interface {
	FindByParticipants(ctx context.Context, participantIDs []uuid.UUID, eventID *uuid.UUID) (*models.Conversation, error)
	Create(ctx context.Context, participantIDs []uuid.UUID, eventID *uuid.UUID) (*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	AddMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error)
	ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, int, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int, error)
}

// UserStore resolves recipients and the sender's display name.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

// MessageNotifier fans new-message notifications out to recipients.
type MessageNotifier interface {
	NewMessage(ctx context.Context, senderName string, recipientIDs []uuid.UUID) int
}

// SendRequest is the body for POST /inbox/send.
type SendRequest struct {
	ParticipantIDs []uuid.UUID `json:"participant_ids" binding:"required"`
	Content        string      `json:"content" binding:"required"`
	EventID        *uuid.UUID  `json:"event_id"`
}

// Handler handles inbox HTTP endpoints.
type Handler struct {
	store    ConversationStore
	users    UserStore
	notifier MessageNotifier
	logger   *zap.Logger
}

// NewHandler creates an inbox handler.
func NewHandler(store ConversationStore, users UserStore, notifier MessageNotifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, users: users, notifier: notifier, logger: logger}
}

// Send handles POST /inbox/send. Routes the message to the conversation
// whose participant set and event context match exactly, creating one when
// none exists.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.BadRequest(c, "content must not be empty")
		return
	}
	if len(req.ParticipantIDs) == 0 {
		response.BadRequest(c, "participant_ids must not be empty")
		return
	}
	senderID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	// Participant set: recipients plus sender, deduplicated.
	seen := map[uuid.UUID]struct{}{senderID: {}}
	participants := []uuid.UUID{senderID}
	var recipients []uuid.UUID
	for _, id := range req.ParticipantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		response.BadRequest(c, "cannot send a message only to yourself")
		return
	}

	existing, err := h.users.CountExisting(ctx, recipients)
	if err != nil {
		response.Internal(c, "failed to validate recipients")
		return
	}
	if existing != len(recipients) {
		response.BadRequest(c, "one or more recipients do not exist")
		return
	}

	conv, err := h.store.FindByParticipants(ctx, participants, req.EventID)
	if err != nil {
		response.Internal(c, "failed to resolve conversation")
		return
	}
	if conv == nil {
		conv, err = h.store.Create(ctx, participants, req.EventID)
		if err != nil {
			response.Internal(c, "failed to create conversation")
			return
		}
	}

	msg, err := h.store.AddMessage(ctx, conv.ID, senderID, req.Content)
	if err != nil {
		response.Internal(c, "failed to send message")
		return
	}

	sender, err := h.users.GetByID(ctx, senderID)
	senderName := "Someone"
	if err == nil && sender != nil {
		senderName = sender.FullName
	}
	h.notifier.NewMessage(ctx, senderName, recipients)

	response.Created(c, gin.H{"conversation_id": conv.ID, "message": msg})
}

// ListConversations handles GET /inbox/conversations.
func (h *Handler) ListConversations(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	summaries, err := h.store.ListSummaries(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list conversations")
		return
	}
	response.OK(c, summaries)
}

// ListMessages handles GET /inbox/messages/:id. Participants only; paginated
// via ?page= and ?page_size=.
func (h *Handler) ListMessages(c *gin.Context) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	member, err := h.store.IsParticipant(ctx, convID, userID)
	if err != nil {
		response.Internal(c, "failed to check conversation access")
		return
	}
	if !member {
		response.Forbidden(c, "not a participant in this conversation")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	msgs, total, err := h.store.ListMessages(ctx, convID, pageSize, (page-1)*pageSize)
	if err != nil {
		response.Internal(c, "failed to list messages")
		return
	}
	response.OK(c, gin.H{
		"messages":  msgs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"has_more":  page*pageSize < total,
	})
}

// MarkRead handles POST /inbox/mark-read/:id. Marks every message the
// requester did not send as read and returns the updated count.
func (h *Handler) MarkRead(c *gin.Context) {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	member, err := h.store.IsParticipant(ctx, convID, userID)
	if err != nil {
		response.Internal(c, "failed to check conversation access")
		return
	}
	if !member {
		response.Forbidden(c, "not a participant in this conversation")
		return
	}

	updated, err := h.store.MarkRead(ctx, convID, userID)
	if err != nil {
		response.Internal(c, "failed to mark conversation read")
		return
	}
	response.OK(c, gin.H{"marked_read": updated})
}
