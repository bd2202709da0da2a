package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lumenlive/backend/internal/middleware"
	"github.com/lumenlive/backend/internal/models"
)

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) GetByEvent(ctx context.Context, eventID uuid.UUID) (*models.LiveSession, error) {
	args := m.Called(ctx, eventID)
	s, _ := args.Get(0).(*models.LiveSession)
	return s, args.Error(1)
}

func (m *mockSessionStore) GetActiveByEvent(ctx context.Context, eventID uuid.UUID) (*models.LiveSession, error) {
	args := m.Called(ctx, eventID)
	s, _ := args.Get(0).(*models.LiveSession)
	return s, args.Error(1)
}

func (m *mockSessionStore) GetOrCreate(ctx context.Context, eventID, startedBy uuid.UUID) (*models.LiveSession, error) {
	args := m.Called(ctx, eventID, startedBy)
	s, _ := args.Get(0).(*models.LiveSession)
	return s, args.Error(1)
}

func (m *mockSessionStore) Activate(ctx context.Context, sessionID, startedBy uuid.UUID) (*models.LiveSession, error) {
	args := m.Called(ctx, sessionID, startedBy)
	s, _ := args.Get(0).(*models.LiveSession)
	return s, args.Error(1)
}

func (m *mockSessionStore) End(ctx context.Context, sessionID uuid.UUID) (*models.LiveSession, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*models.LiveSession)
	return s, args.Error(1)
}

func (m *mockSessionStore) AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error {
	return m.Called(ctx, sessionID, userID).Error(0)
}

func (m *mockSessionStore) CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionStore) ListParticipantUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, sessionID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *mockSessionStore) Analytics(ctx context.Context) (*models.LiveAnalytics, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).(*models.LiveAnalytics)
	return a, args.Error(1)
}

type mockEventStore struct{ mock.Mock }

func (m *mockEventStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}

type mockRegistrationStore struct{ mock.Mock }

func (m *mockRegistrationStore) Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRegistrationStore) ListUserIDsByEvent(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, eventID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *mockRegistrationStore) MarkAttended(ctx context.Context, eventID, userID uuid.UUID) error {
	return m.Called(ctx, eventID, userID).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) LiveSessionStarted(ctx context.Context, event *models.Event, userIDs []uuid.UUID) int {
	return m.Called(ctx, event, userIDs).Int(0)
}

func (m *mockNotifier) LiveSessionEnded(ctx context.Context, event *models.Event, userIDs []uuid.UUID) int {
	return m.Called(ctx, event, userIDs).Int(0)
}

type liveEnv struct {
	sessions *mockSessionStore
	events   *mockEventStore
	regs     *mockRegistrationStore
	notifier *mockNotifier
	handler  *Handler
}

func newLiveEnv() *liveEnv {
	env := &liveEnv{
		sessions: &mockSessionStore{},
		events:   &mockEventStore{},
		regs:     &mockRegistrationStore{},
		notifier: &mockNotifier{},
	}
	env.handler = NewHandler(env.sessions, env.events, env.regs, env.notifier, nil)
	return env
}

func asUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	}
}

func perform(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func testEvent(organizerID uuid.UUID) *models.Event {
	return &models.Event{
		ID:              uuid.New(),
		Title:           "Scaling Postgres",
		StartsAt:        time.Now().Add(-time.Hour),
		DurationMinutes: 90,
		OrganizerID:     organizerID,
	}
}

func TestStartNotOrganizer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	requester := uuid.New()
	event := testEvent(organizer)
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)

	router := gin.New()
	router.POST("/live/start/:id", asUser(requester, "user"), env.handler.Start)
	w := perform(router, http.MethodPost, "/live/start/"+event.ID.String())

	assert.Equal(t, http.StatusForbidden, w.Code)
	env.sessions.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartUnknownEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	eventID := uuid.New()
	env.events.On("GetByID", mock.Anything, eventID).Return(nil, nil)

	router := gin.New()
	router.POST("/live/start/:id", asUser(uuid.New(), "user"), env.handler.Start)
	w := perform(router, http.MethodPost, "/live/start/"+eventID.String())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartIdempotentWhenActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	event := testEvent(organizer)
	session := &models.LiveSession{
		ID:       uuid.New(),
		EventID:  event.ID,
		RoomName: "webinar_" + event.ID.String() + "_a1b2c3d4",
		IsActive: true,
	}
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(session, nil)

	router := gin.New()
	router.POST("/live/start/:id", asUser(organizer, "admin"), env.handler.Start)
	w := perform(router, http.MethodPost, "/live/start/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, session.RoomName, data["room_name"])
	env.sessions.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
	env.notifier.AssertNotCalled(t, "LiveSessionStarted", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartCreatesAndNotifies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	event := testEvent(organizer)
	created := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_deadbeef"}
	startedAt := time.Now()
	active := &models.LiveSession{
		ID: created.ID, EventID: event.ID, RoomName: created.RoomName,
		IsActive: true, StartedAt: &startedAt, StartedBy: &organizer,
	}
	registered := []uuid.UUID{uuid.New(), uuid.New()}

	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(nil, nil)
	env.sessions.On("GetOrCreate", mock.Anything, event.ID, organizer).Return(created, nil)
	env.sessions.On("Activate", mock.Anything, created.ID, organizer).Return(active, nil)
	env.regs.On("ListUserIDsByEvent", mock.Anything, event.ID).Return(registered, nil)
	env.notifier.On("LiveSessionStarted", mock.Anything, event, registered).Return(len(registered))

	router := gin.New()
	router.POST("/live/start/:id", asUser(organizer, "admin"), env.handler.Start)
	w := perform(router, http.MethodPost, "/live/start/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["is_active"])
	env.notifier.AssertExpectations(t)
}

func TestStartReactivatesEndedSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	event := testEvent(organizer)
	endTime := time.Now().Add(-time.Minute)
	ended := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_cafe0123", EndTime: &endTime}
	reactivated := &models.LiveSession{ID: ended.ID, EventID: event.ID, RoomName: ended.RoomName, IsActive: true}

	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(ended, nil)
	env.sessions.On("Activate", mock.Anything, ended.ID, organizer).Return(reactivated, nil)
	env.regs.On("ListUserIDsByEvent", mock.Anything, event.ID).Return([]uuid.UUID{}, nil)
	env.notifier.On("LiveSessionStarted", mock.Anything, event, []uuid.UUID{}).Return(0)

	router := gin.New()
	router.POST("/live/start/:id", asUser(organizer, "admin"), env.handler.Start)
	w := perform(router, http.MethodPost, "/live/start/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["is_active"])
	assert.Nil(t, data["end_time"])
	// Room name survives restarts.
	assert.Equal(t, ended.RoomName, data["room_name"])
}

func TestJoinNoSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	event := testEvent(uuid.New())
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(nil, nil)

	router := gin.New()
	router.GET("/live/join/:id", asUser(uuid.New(), "user"), env.handler.Join)
	w := perform(router, http.MethodGet, "/live/join/"+event.ID.String())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinInactiveSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	event := testEvent(uuid.New())
	session := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_0badf00d"}
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(session, nil)

	router := gin.New()
	router.GET("/live/join/:id", asUser(uuid.New(), "user"), env.handler.Join)
	w := perform(router, http.MethodGet, "/live/join/"+event.ID.String())

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestJoinUnregisteredUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	requester := uuid.New()
	event := testEvent(uuid.New())
	session := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_12345678", IsActive: true}
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(session, nil)
	env.regs.On("Exists", mock.Anything, event.ID, requester).Return(false, nil)

	router := gin.New()
	router.GET("/live/join/:id", asUser(requester, "user"), env.handler.Join)
	w := perform(router, http.MethodGet, "/live/join/"+event.ID.String())

	assert.Equal(t, http.StatusForbidden, w.Code)
	env.sessions.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinRegisteredUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	requester := uuid.New()
	event := testEvent(uuid.New())
	session := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_87654321", IsActive: true}
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(session, nil)
	env.regs.On("Exists", mock.Anything, event.ID, requester).Return(true, nil)
	env.sessions.On("AddParticipant", mock.Anything, session.ID, requester).Return(nil)
	env.regs.On("MarkAttended", mock.Anything, event.ID, requester).Return(nil)
	env.sessions.On("CountParticipants", mock.Anything, session.ID).Return(3, nil)

	router := gin.New()
	router.GET("/live/join/:id", asUser(requester, "user"), env.handler.Join)
	w := perform(router, http.MethodGet, "/live/join/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, session.RoomName, data["room_name"])
	assert.Equal(t, float64(3), data["participant_count"])
	env.regs.AssertCalled(t, "MarkAttended", mock.Anything, event.ID, requester)
}

func TestJoinOrganizerWithoutRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	event := testEvent(organizer)
	session := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_aaaa1111", IsActive: true}
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(session, nil)
	env.regs.On("Exists", mock.Anything, event.ID, organizer).Return(false, nil)
	env.sessions.On("AddParticipant", mock.Anything, session.ID, organizer).Return(nil)
	env.sessions.On("CountParticipants", mock.Anything, session.ID).Return(1, nil)

	router := gin.New()
	router.GET("/live/join/:id", asUser(organizer, "admin"), env.handler.Join)
	w := perform(router, http.MethodGet, "/live/join/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	env.regs.AssertNotCalled(t, "MarkAttended", mock.Anything, mock.Anything, mock.Anything)
}

func TestEndNoActiveSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	event := testEvent(organizer)
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetActiveByEvent", mock.Anything, event.ID).Return(nil, nil)

	router := gin.New()
	router.POST("/live/end/:id", asUser(organizer, "admin"), env.handler.End)
	w := perform(router, http.MethodPost, "/live/end/"+event.ID.String())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndNotifiesParticipants(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	organizer := uuid.New()
	event := testEvent(organizer)
	session := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_bbbb2222", IsActive: true}
	endTime := time.Now()
	ended := &models.LiveSession{ID: session.ID, EventID: event.ID, RoomName: session.RoomName, EndTime: &endTime}
	participants := []uuid.UUID{uuid.New()}

	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetActiveByEvent", mock.Anything, event.ID).Return(session, nil)
	env.sessions.On("End", mock.Anything, session.ID).Return(ended, nil)
	env.sessions.On("ListParticipantUserIDs", mock.Anything, session.ID).Return(participants, nil)
	env.notifier.On("LiveSessionEnded", mock.Anything, event, participants).Return(1)

	router := gin.New()
	router.POST("/live/end/:id", asUser(organizer, "admin"), env.handler.End)
	w := perform(router, http.MethodPost, "/live/end/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	env.notifier.AssertExpectations(t)
}

func TestStatusNoSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	event := testEvent(uuid.New())
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(nil, nil)

	router := gin.New()
	router.GET("/live/status/:id", env.handler.Status)
	w := perform(router, http.MethodGet, "/live/status/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, false, data["is_active"])
	assert.Nil(t, data["room_name"])
}

func TestStatusActiveSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	event := testEvent(uuid.New())
	session := &models.LiveSession{ID: uuid.New(), EventID: event.ID, RoomName: "webinar_x_cccc3333", IsActive: true}
	env.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	env.sessions.On("GetByEvent", mock.Anything, event.ID).Return(session, nil)

	router := gin.New()
	router.GET("/live/status/:id", env.handler.Status)
	w := perform(router, http.MethodGet, "/live/status/"+event.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, true, data["is_active"])
	assert.Equal(t, session.RoomName, data["room_name"])
}

func TestAnalytics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newLiveEnv()
	avg := 42.5
	stats := &models.LiveAnalytics{
		TotalWebinars:                 3,
		TotalLiveSessions:             3,
		TotalParticipants:             17,
		AverageSessionDurationMinutes: &avg,
		ActiveSessions:                1,
		CompletedSessions:             2,
		SessionsPerWebinar: []models.SessionParticipantCount{
			{EventID: uuid.New(), Title: "Big Launch", ParticipantCount: 12},
			{EventID: uuid.New(), Title: "Quiet One", ParticipantCount: 5},
		},
	}
	env.sessions.On("Analytics", mock.Anything).Return(stats, nil)

	router := gin.New()
	router.GET("/live/analytics", asUser(uuid.New(), "admin"), env.handler.Analytics)
	w := perform(router, http.MethodGet, "/live/analytics")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(3), data["total_webinars"])
	assert.Equal(t, float64(17), data["total_participants"])
	assert.Equal(t, 42.5, data["average_session_duration_minutes"])
	rows, ok := data["sessions_per_webinar"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "Big Launch", first["title"])
}
