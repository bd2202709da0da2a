package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumenlive/backend/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		startsAt     time.Time
		duration     int
		manualStatus string
		want         string
	}{
		{
			name:     "before start",
			startsAt: now.Add(time.Hour),
			duration: 60,
			want:     models.StatusUpcoming,
		},
		{
			name:     "during window",
			startsAt: now.Add(-30 * time.Minute),
			duration: 60,
			want:     models.StatusLive,
		},
		{
			name:     "exactly at start",
			startsAt: now,
			duration: 60,
			want:     models.StatusLive,
		},
		{
			name:     "after window",
			startsAt: now.Add(-2 * time.Hour),
			duration: 60,
			want:     models.StatusCompleted,
		},
		{
			name:         "manual override wins over schedule",
			startsAt:     now.Add(time.Hour),
			duration:     60,
			manualStatus: models.StatusCompleted,
			want:         models.StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(now, tt.startsAt, tt.duration, tt.manualStatus)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	e := models.Event{
		Title:           "Go Concurrency Patterns",
		StartsAt:        now.Add(-10 * time.Minute),
		DurationMinutes: 45,
	}
	es := WithStatus(e, now)
	assert.Equal(t, models.StatusLive, es.Status)
	assert.Equal(t, e.Title, es.Title)
}
