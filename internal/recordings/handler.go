package recordings

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/events"
	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
	"github.com/lumenlive/backend/internal/notifications"
	"github.com/lumenlive/backend/internal/registrations"
	"github.com/lumenlive/backend/pkg/queue"
	"github.com/lumenlive/backend/pkg/response"
	"github.com/lumenlive/backend/pkg/storage"
)

// CreateRequest is the body for POST /events/:id/recordings.
type CreateRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	RecordingURL    string `json:"recording_url" binding:"required,url"`
	DurationMinutes *int   `json:"duration_minutes"`
	IsPublic        bool   `json:"is_public"`
}

// Handler handles recording HTTP endpoints. s3 is nil when archival is not
// configured; download URLs then fall back to the provider URL.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	regRepo   *registrations.Repository
	notifier  *notifications.Service
	jobs      *queue.Queue
	s3        *storage.S3
	logger    *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, regRepo *registrations.Repository, notifier *notifications.Service, jobs *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, regRepo: regRepo, notifier: notifier, jobs: jobs, s3: s3, logger: logger}
}

func (h *Handler) loadEvent(c *gin.Context) (*models.Event, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	event, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
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

func canManage(c *gin.Context, event *models.Event) bool {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextUserRole).(string)
	return event.OrganizerID == userID || role == string(models.RoleAdmin)
}

// Create handles POST /events/:id/recordings (organizer or admin). Notifies
// registered users and, when S3 is configured, queues archival of the file.
func (h *Handler) Create(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	if !canManage(c, event) {
		response.Forbidden(c, "only the organizer can add recordings")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	rec := &models.Recording{
		EventID:         event.ID,
		Title:           req.Title,
		Description:     req.Description,
		RecordingURL:    req.RecordingURL,
		DurationMinutes: req.DurationMinutes,
		UploadedBy:      &userID,
		IsPublic:        req.IsPublic,
	}
	if err := h.repo.Create(ctx, rec); err != nil {
		response.Internal(c, "failed to create recording")
		return
	}

	registered, err := h.regRepo.ListUserIDsByEvent(ctx, event.ID)
	if err != nil {
		h.logger.Warn("failed to list registered users for recording notification",
			zap.String("event_id", event.ID.String()), zap.Error(err))
	} else {
		h.notifier.NewRecording(ctx, event, rec.ID, rec.Title, registered)
	}

	if h.s3 != nil && h.jobs != nil {
		err := h.jobs.EnqueueRecordingArchive(ctx, queue.RecordingArchivePayload{
			RecordingID: rec.ID,
			EventID:     event.ID,
			SourceURL:   rec.RecordingURL,
		})
		if err != nil {
			h.logger.Error("failed to enqueue recording archive",
				zap.String("recording_id", rec.ID.String()), zap.Error(err))
		}
	}
	response.Created(c, rec)
}

// ListByEvent handles GET /events/:id/recordings. Organizer and admins see
// every recording; everyone else only public ones.
func (h *Handler) ListByEvent(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	publicOnly := !canManage(c, event)
	list, err := h.repo.ListByEvent(c.Request.Context(), event.ID, publicOnly)
	if err != nil {
		response.Internal(c, "failed to list recordings")
		return
	}
	response.OK(c, list)
}

// DownloadURL handles GET /recordings/:id/download-url. Returns a pre-signed
// S3 URL for archived recordings, the provider URL otherwise.
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid recording id")
		return
	}
	rec, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load recording")
		return
	}
	if rec == nil {
		response.NotFound(c, "recording not found")
		return
	}
	if !rec.IsPublic {
		event, err := h.eventRepo.GetByID(c.Request.Context(), rec.EventID)
		if err != nil || event == nil {
			response.Internal(c, "failed to load event")
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		registered, err := h.regRepo.Exists(c.Request.Context(), rec.EventID, userID)
		if err != nil {
			response.Internal(c, "failed to check registration")
			return
		}
		if !registered && !canManage(c, event) {
			response.Forbidden(c, "you are not registered for this event")
			return
		}
	}

	if h.s3 != nil && rec.S3Key != nil && rec.Status == models.RecordingCompleted {
		url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), *rec.S3Key, h.s3.PresignExpire())
		if err != nil {
			response.Internal(c, "failed to generate download url")
			return
		}
		response.OK(c, gin.H{"download_url": url, "archived": true})
		return
	}
	response.OK(c, gin.H{"download_url": rec.RecordingURL, "archived": false})
}

// Delete handles DELETE /recordings/:id (organizer or admin). Removes the
// archived S3 object best-effort.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid recording id")
		return
	}
	rec, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load recording")
		return
	}
	if rec == nil {
		response.NotFound(c, "recording not found")
		return
	}
	event, err := h.eventRepo.GetByID(c.Request.Context(), rec.EventID)
	if err != nil || event == nil {
		response.Internal(c, "failed to load event")
		return
	}
	if !canManage(c, event) {
		response.Forbidden(c, "only the organizer can delete recordings")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete recording")
		return
	}
	if h.s3 != nil && rec.S3Key != nil {
		if err := h.s3.DeleteRecording(c.Request.Context(), *rec.S3Key); err != nil {
			h.logger.Warn("failed to delete archived recording object",
				zap.String("s3_key", *rec.S3Key), zap.Error(err))
		}
	}
	response.NoContent(c)
}
