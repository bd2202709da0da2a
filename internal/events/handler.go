package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
	"github.com/lumenlive/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	StartsAt        string `json:"starts_at" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int    `json:"price_cents"`
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	StartsAt        *string `json:"starts_at"`
	DurationMinutes *int    `json:"duration_minutes"`
	PriceCents      *int    `json:"price_cents"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an event handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /events (admin only). The creator becomes the organizer.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}
	if req.PriceCents < 0 {
		response.BadRequest(c, "price_cents must not be negative")
		return
	}

	e := &models.Event{
		Title:           req.Title,
		Description:     req.Description,
		StartsAt:        startsAt,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		OrganizerID:     c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, WithStatus(*e, time.Now()))
}

// List handles GET /events. Query ?status=upcoming|live|completed filters by
// derived status as of the request time.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}

	now := time.Now()
	filter := c.Query("status")
	out := make([]EventWithStatus, 0, len(list))
	for _, e := range list {
		es := WithStatus(e, now)
		if filter != "" && es.Status != filter {
			continue
		}
		out = append(out, es)
	}
	response.OK(c, out)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, WithStatus(*e, time.Now()))
}

// Update handles PATCH /events/:id (organizer only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, ok := h.requireOrganizer(c, id)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	var startsAt *time.Time
	if req.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		startsAt = &t
	}
	if err := h.repo.Update(c.Request.Context(), e.ID, req.Title, req.Description, startsAt, req.DurationMinutes, req.PriceCents); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), e.ID)
	if err != nil || updated == nil {
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, WithStatus(*updated, time.Now()))
}

// MarkCompleted handles POST /events/:id/mark-completed (admin only).
func (h *Handler) MarkCompleted(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	if err := h.repo.MarkCompleted(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to mark event completed")
		return
	}
	response.OK(c, gin.H{"status": models.StatusCompleted})
}

// Delete handles DELETE /events/:id (organizer only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, ok := h.requireOrganizer(c, id)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), e.ID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// requireOrganizer loads the event and verifies the requester organizes it.
// Writes the error response and returns ok=false otherwise.
func (h *Handler) requireOrganizer(c *gin.Context, id uuid.UUID) (*models.Event, bool) {
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load event")
		return nil, false
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if e.OrganizerID != userID {
		response.Forbidden(c, "only the organizer can modify this event")
		return nil, false
	}
	return e, true
}
