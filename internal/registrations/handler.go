package registrations

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/events"
	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
	"github.com/lumenlive/backend/internal/notifications"
	"github.com/lumenlive/backend/pkg/response"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	notifier  *notifications.Service
	logger    *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, notifier *notifications.Service, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, eventRepo: eventRepo, notifier: notifier, logger: logger}
}

// Register handles POST /events/:id/register. The requester registers themselves.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	event, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return
	}

	reg := &models.Registration{EventID: eventID, UserID: userID}
	if err := h.repo.Create(c.Request.Context(), reg); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			response.BadRequest(c, "already registered for this event")
			return
		}
		response.Internal(c, "failed to create registration")
		return
	}

	h.notifier.RegistrationApproved(c.Request.Context(), event, userID)
	response.Created(c, reg)
}

// ListMine handles GET /registrations. Returns the requester's registrations.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// ListByEvent handles GET /events/:id/registrations (organizer or admin).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	event, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextUserRole).(string)
	if event.OrganizerID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "only the organizer can list registrations")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// Cancel handles DELETE /registrations/:id (owner only).
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if reg.UserID != userID {
		response.Forbidden(c, "cannot cancel another user's registration")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to cancel registration")
		return
	}
	response.NoContent(c)
}
