package live

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
	"github.com/lumenlive/backend/pkg/response"
)

// SessionStore is the session persistence surface the handler needs.
type SessionStore interface {
	GetByEvent(ctx context.Context, eventID uuid.UUID) (*models.LiveSession, error)
	GetActiveByEvent(ctx context.Context, eventID uuid.UUID) (*models.LiveSession, error)
	GetOrCreate(ctx context.Context, eventID, startedBy uuid.UUID) (*models.LiveSession, error)
	Activate(ctx context.Context, sessionID, startedBy uuid.UUID) (*models.LiveSession, error)
	End(ctx context.Context, sessionID uuid.UUID) (*models.LiveSession, error)
	AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error
	CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error)
	ListParticipantUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
	Analytics(ctx context.Context) (*models.LiveAnalytics, error)
}

// EventStore resolves events for authorization checks.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// RegistrationStore checks and updates event registrations.
type RegistrationStore interface {
	Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ListUserIDsByEvent(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	MarkAttended(ctx context.Context, eventID, userID uuid.UUID) error
}

// Notifier fans session lifecycle notifications out to users.
type Notifier interface {
	LiveSessionStarted(ctx context.Context, event *models.Event, userIDs []uuid.UUID) int
	LiveSessionEnded(ctx context.Context, event *models.Event, userIDs []uuid.UUID) int
}

// Handler handles live session HTTP endpoints.
type Handler struct {
	sessions SessionStore
	events   EventStore
	regs     RegistrationStore
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a live session handler.
func NewHandler(sessions SessionStore, events EventStore, regs RegistrationStore, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, events: events, regs: regs, notifier: notifier, logger: logger}
}

func (h *Handler) loadEvent(c *gin.Context) (*models.Event, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	event, err := h.events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return nil, false
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	return event, true
}

// Start handles POST /live/start/:id (organizer only). Idempotent: starting
// an already-active session returns the running session unchanged. Starting
// an ended session reactivates it with a fresh started_at.
func (h *Handler) Start(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if event.OrganizerID != userID {
		response.Forbidden(c, "only the organizer can start the live session")
		return
	}
	ctx := c.Request.Context()

	session, err := h.sessions.GetByEvent(ctx, event.ID)
	if err != nil {
		response.Internal(c, "failed to load live session")
		return
	}
	if session != nil && session.IsActive {
		response.OK(c, session)
		return
	}
	if session == nil {
		session, err = h.sessions.GetOrCreate(ctx, event.ID, userID)
		if err != nil || session == nil {
			response.Internal(c, "failed to create live session")
			return
		}
	}
	// Re-check after create: a concurrent start may have activated it already.
	if !session.IsActive {
		session, err = h.sessions.Activate(ctx, session.ID, userID)
		if err != nil {
			response.Internal(c, "failed to start live session")
			return
		}
	}

	registered, err := h.regs.ListUserIDsByEvent(ctx, event.ID)
	if err != nil {
		h.logger.Warn("failed to list registered users for start notification",
			zap.String("event_id", event.ID.String()), zap.Error(err))
	} else {
		h.notifier.LiveSessionStarted(ctx, event, registered)
	}

	h.logger.Info("live session started",
		zap.String("event_id", event.ID.String()),
		zap.String("room_name", session.RoomName),
		zap.String("started_by", userID.String()))
	response.OK(c, session)
}

// Join handles GET /live/join/:id. Registered users and the organizer may
// join an active session; everyone else is rejected.
func (h *Handler) Join(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	session, err := h.sessions.GetByEvent(ctx, event.ID)
	if err != nil {
		response.Internal(c, "failed to load live session")
		return
	}
	if session == nil {
		response.NotFound(c, "live session not found for this event")
		return
	}
	if !session.IsActive {
		response.Forbidden(c, "live session is not active")
		return
	}

	registered, err := h.regs.Exists(ctx, event.ID, userID)
	if err != nil {
		response.Internal(c, "failed to check registration")
		return
	}
	if !registered && event.OrganizerID != userID {
		response.Forbidden(c, "you are not registered for this event")
		return
	}

	if err := h.sessions.AddParticipant(ctx, session.ID, userID); err != nil {
		response.Internal(c, "failed to join live session")
		return
	}
	if registered {
		if err := h.regs.MarkAttended(ctx, event.ID, userID); err != nil {
			h.logger.Warn("failed to mark registration attended",
				zap.String("event_id", event.ID.String()),
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	count, err := h.sessions.CountParticipants(ctx, session.ID)
	if err != nil {
		response.Internal(c, "failed to count participants")
		return
	}
	response.OK(c, gin.H{
		"room_name":         session.RoomName,
		"is_active":         session.IsActive,
		"participant_count": count,
	})
}

// End handles POST /live/end/:id (organizer only). 404 when no active
// session exists for the event.
func (h *Handler) End(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if event.OrganizerID != userID {
		response.Forbidden(c, "only the organizer can end the live session")
		return
	}
	ctx := c.Request.Context()

	session, err := h.sessions.GetActiveByEvent(ctx, event.ID)
	if err != nil {
		response.Internal(c, "failed to load live session")
		return
	}
	if session == nil {
		response.NotFound(c, "no active live session found for this event")
		return
	}

	ended, err := h.sessions.End(ctx, session.ID)
	if err != nil {
		response.Internal(c, "failed to end live session")
		return
	}

	participants, err := h.sessions.ListParticipantUserIDs(ctx, session.ID)
	if err != nil {
		h.logger.Warn("failed to list participants for end notification",
			zap.String("event_id", event.ID.String()), zap.Error(err))
	} else {
		h.notifier.LiveSessionEnded(ctx, event, participants)
	}

	h.logger.Info("live session ended",
		zap.String("event_id", event.ID.String()),
		zap.String("room_name", ended.RoomName))
	response.OK(c, gin.H{
		"message":  "live session ended",
		"end_time": ended.EndTime,
	})
}

// Status handles GET /live/status/:id. Public: no authentication required.
// Reports is_active=false with a null room when no session exists.
func (h *Handler) Status(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	session, err := h.sessions.GetByEvent(c.Request.Context(), event.ID)
	if err != nil {
		response.Internal(c, "failed to load live session")
		return
	}
	if session == nil {
		response.OK(c, gin.H{"is_active": false, "room_name": nil})
		return
	}
	response.OK(c, gin.H{"is_active": session.IsActive, "room_name": session.RoomName})
}

// Analytics handles GET /live/analytics (admin only).
func (h *Handler) Analytics(c *gin.Context) {
	stats, err := h.sessions.Analytics(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to compute analytics")
		return
	}
	response.OK(c, stats)
}
