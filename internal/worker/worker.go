package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lumenlive/backend/internal/auth"
	"github.com/lumenlive/backend/internal/notifications"
	"github.com/lumenlive/backend/internal/recordings"
	"github.com/lumenlive/backend/pkg/queue"
	"github.com/lumenlive/backend/pkg/storage"
)

// Processor consumes background jobs: announcement fan-out and recording
// archival. s3 may be nil; archive jobs then fail and land in the DLQ.
type Processor struct {
	jobs       *queue.Queue
	users      *auth.Repository
	notifier   *notifications.Service
	recordings *recordings.Repository
	s3         *storage.S3
	httpClient *http.Client
	logger     *zap.Logger
}

// NewProcessor creates a job processor.
func NewProcessor(jobs *queue.Queue, users *auth.Repository, notifier *notifications.Service, recRepo *recordings.Repository, s3 *storage.S3, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		jobs:       jobs,
		users:      users,
		notifier:   notifier,
		recordings: recRepo,
		s3:         s3,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		logger:     logger,
	}
}

// Run consumes jobs until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("worker started")
	for {
		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("worker stopping")
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}
		if err := p.process(ctx, job); err != nil {
			p.logger.Error("job failed",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			if err := p.jobs.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			continue
		}
		p.logger.Info("job done", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	}
}

func (p *Processor) process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAnnouncementFanout:
		var payload queue.AnnouncementFanoutPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.fanOutAnnouncement(ctx, payload)
	case queue.JobTypeRecordingArchive:
		var payload queue.RecordingArchivePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		return p.archiveRecording(ctx, payload)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// fanOutAnnouncement creates one notification per user. Safe to retry: the
// per-user announcement unique constraint suppresses duplicate deliveries.
func (p *Processor) fanOutAnnouncement(ctx context.Context, payload queue.AnnouncementFanoutPayload) error {
	userIDs, err := p.users.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	created := p.notifier.Announcement(ctx, payload.AnnouncementID, payload.SenderID, payload.Title, payload.Content, userIDs)
	p.logger.Info("announcement fanned out",
		zap.String("announcement_id", payload.AnnouncementID.String()),
		zap.Int("recipients", len(userIDs)),
		zap.Int("created", created))
	return nil
}

// archiveRecording downloads the provider file and streams it into S3, then
// marks the recording archived.
func (p *Processor) archiveRecording(ctx context.Context, payload queue.RecordingArchivePayload) error {
	if p.s3 == nil {
		return fmt.Errorf("s3 storage not configured")
	}
	rec, err := p.recordings.GetByID(ctx, payload.RecordingID)
	if err != nil {
		return fmt.Errorf("load recording: %w", err)
	}
	if rec == nil {
		p.logger.Warn("recording deleted before archival", zap.String("recording_id", payload.RecordingID.String()))
		return nil
	}
	if rec.S3Key != nil {
		return nil // already archived
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download recording: status %d", resp.StatusCode)
	}

	key := storage.RecordingKey(payload.EventID.String(), payload.RecordingID.String())
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	if _, err := p.s3.Upload(ctx, key, contentType, resp.Body, resp.ContentLength); err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}
	if err := p.recordings.MarkArchived(ctx, payload.RecordingID, key); err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	p.logger.Info("recording archived",
		zap.String("recording_id", payload.RecordingID.String()),
		zap.String("s3_key", key))
	return nil
}
