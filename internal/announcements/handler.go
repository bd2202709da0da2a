package announcements

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
	"github.com/lumenlive/backend/pkg/queue"
	"github.com/lumenlive/backend/pkg/response"
)

// CreateRequest is the body for POST /announcements.
type CreateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Handler handles announcement HTTP endpoints.
type Handler struct {
	repo   *Repository
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an announcements handler.
func NewHandler(repo *Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jobs: jobs, logger: logger}
}

// Create handles POST /announcements (admin only). Persists the broadcast
// and hands per-user fan-out to the background worker.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	senderID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	a := &models.Announcement{SenderID: senderID, Title: req.Title, Content: req.Content}
	if err := h.repo.Create(c.Request.Context(), a); err != nil {
		response.Internal(c, "failed to create announcement")
		return
	}

	err := h.jobs.EnqueueAnnouncementFanout(c.Request.Context(), queue.AnnouncementFanoutPayload{
		AnnouncementID: a.ID,
		SenderID:       a.SenderID,
		Title:          a.Title,
		Content:        a.Content,
	})
	if err != nil {
		// The announcement exists; fan-out can be replayed from the record.
		h.logger.Error("failed to enqueue announcement fan-out",
			zap.String("announcement_id", a.ID.String()), zap.Error(err))
	}
	response.Created(c, a)
}

// List handles GET /announcements. Query ?limit= caps the result.
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit < 0 {
		limit = 0
	}
	list, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		response.Internal(c, "failed to list announcements")
		return
	}
	response.OK(c, list)
}

// Recent handles GET /announcements/recent. Returns the latest 10.
func (h *Handler) Recent(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), 10)
	if err != nil {
		response.Internal(c, "failed to list announcements")
		return
	}
	response.OK(c, list)
}
