package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/models"
)

// Service creates notifications for platform activity. All fan-out is
// best-effort: failures are logged and never surfaced to the primary request.
type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService creates a notification service.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) fanOut(ctx context.Context, userIDs []uuid.UUID, typ models.NotificationType, title, content string, eventID, announcementID, recordingID *uuid.UUID) int {
	items := make([]models.UserNotification, 0, len(userIDs))
	for _, uid := range userIDs {
		items = append(items, models.UserNotification{
			UserID:         uid,
			Type:           typ,
			Title:          title,
			Content:        content,
			EventID:        eventID,
			AnnouncementID: announcementID,
			RecordingID:    recordingID,
		})
	}
	created, err := s.repo.CreateBulk(ctx, items)
	if err != nil {
		s.logger.Warn("notification fan-out failed",
			zap.String("type", string(typ)),
			zap.Int("recipients", len(userIDs)),
			zap.Error(err))
	}
	return created
}

// LiveSessionStarted notifies registered users that the live session started.
func (s *Service) LiveSessionStarted(ctx context.Context, event *models.Event, userIDs []uuid.UUID) int {
	return s.fanOut(ctx, userIDs, models.NotificationLiveStarted,
		fmt.Sprintf("Live Session Started: %s", event.Title),
		fmt.Sprintf("The live session for '%s' has just started. Join now!", event.Title),
		&event.ID, nil, nil)
}

// LiveSessionEnded notifies session participants that the live session ended.
func (s *Service) LiveSessionEnded(ctx context.Context, event *models.Event, userIDs []uuid.UUID) int {
	return s.fanOut(ctx, userIDs, models.NotificationLiveEnded,
		fmt.Sprintf("Live Session Ended: %s", event.Title),
		fmt.Sprintf("The live session for '%s' has ended. Recording will be available soon.", event.Title),
		&event.ID, nil, nil)
}

// NewMessage notifies conversation participants (other than the sender) of a new message.
func (s *Service) NewMessage(ctx context.Context, senderName string, recipientIDs []uuid.UUID) int {
	return s.fanOut(ctx, recipientIDs, models.NotificationNewMessage,
		"New Message",
		fmt.Sprintf("%s sent you a message", senderName),
		nil, nil, nil)
}

// RegistrationApproved notifies a user that their event registration went through.
func (s *Service) RegistrationApproved(ctx context.Context, event *models.Event, userID uuid.UUID) int {
	return s.fanOut(ctx, []uuid.UUID{userID}, models.NotificationRegistrationApproved,
		"Registration Approved",
		fmt.Sprintf("Your registration for '%s' has been approved!", event.Title),
		&event.ID, nil, nil)
}

// NewRecording notifies registered users that a recording is available.
func (s *Service) NewRecording(ctx context.Context, event *models.Event, recordingID uuid.UUID, title string, userIDs []uuid.UUID) int {
	return s.fanOut(ctx, userIDs, models.NotificationNewRecording,
		"New Recording Available",
		fmt.Sprintf("A new recording is now available: %s", title),
		&event.ID, nil, &recordingID)
}

// Announcement fans an announcement out to the given users. Used by the
// queue worker; duplicate deliveries are suppressed by the storage layer.
func (s *Service) Announcement(ctx context.Context, announcementID, senderID uuid.UUID, title, content string, userIDs []uuid.UUID) int {
	recipients := userIDs[:0:0]
	for _, uid := range userIDs {
		if uid != senderID {
			recipients = append(recipients, uid)
		}
	}
	return s.fanOut(ctx, recipients, models.NotificationAnnouncement, title, content, nil, &announcementID, nil)
}
