package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"
	localstore "alcyxob/fitness-sync/internal/repository/badger"
	"alcyxob/fitness-sync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRemote is an always-empty, always-succeeding cloud store.
type stubRemote struct{}

func (stubRemote) FetchAllUserData(context.Context) (*repository.RemoteSnapshot, error) {
	return &repository.RemoteSnapshot{}, nil
}
func (stubRemote) SaveModule(context.Context, *domain.Module) error                 { return nil }
func (stubRemote) SaveWorkout(context.Context, *domain.Workout) error               { return nil }
func (stubRemote) SaveSession(context.Context, *domain.Session) error               { return nil }
func (stubRemote) SaveProgram(context.Context, *domain.Program) error               { return nil }
func (stubRemote) SaveCustomExercise(context.Context, *domain.CustomExercise) error { return nil }
func (stubRemote) SaveScheduledWorkout(context.Context, *domain.ScheduledWorkout) error {
	return nil
}
func (stubRemote) SaveUserProfile(context.Context, *domain.UserProfile) error { return nil }
func (stubRemote) Delete(context.Context, domain.EntityType, string) error    { return nil }
func (stubRemote) FetchDeletionRecords(context.Context) ([]domain.DeletionRecord, error) {
	return nil, nil
}
func (stubRemote) SaveDeletionRecords(context.Context, []domain.DeletionRecord) error { return nil }
func (stubRemote) CleanupOldDeletionRecords(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type testApp struct {
	router   *gin.Engine
	workouts repository.WorkoutRepository
	sessions repository.SessionRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := localstore.Open(localstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	modules := localstore.NewModuleRepository(db)
	workouts := localstore.NewWorkoutRepository(db)
	sessions := localstore.NewSessionRepository(db)
	programs := localstore.NewProgramRepository(db)
	exercises := localstore.NewCustomExerciseRepository(db)
	decisions := localstore.NewDecisionRepository(db)

	tracker, err := service.NewDeletionTracker(context.Background(), localstore.NewDeletionRecordRepository(db), logger)
	require.NoError(t, err)

	syncService := service.NewSyncService(service.SyncServiceDeps{
		Modules:   modules,
		Workouts:  workouts,
		Sessions:  sessions,
		Programs:  programs,
		Exercises: exercises,
		Remote:    stubRemote{},
		Tracker:   tracker,
		Logger:    logger,
	})

	engine := service.NewProgressionEngine(logger)
	planner := service.NewProgressionPlanner(workouts, modules, programs, sessions, engine, 90, logger)
	recorder := service.NewOutcomeRecorder(sessions, programs, decisions, engine, logger)

	router := gin.New()
	SetupRoutes(router,
		NewSyncHandler(syncService),
		NewProgressionHandler(planner, recorder),
		NewAnalyticsHandler(service.NewAnalyticsService(), sessions, decisions, 30),
	)
	return &testApp{router: router, workouts: workouts, sessions: sessions}
}

func (a *testApp) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	a.router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSyncEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/v1/sync/status")
	require.Equal(t, http.StatusOK, w.Code)
	var status service.SyncStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, service.SyncStateIdle, status.State)
	assert.Nil(t, status.LastSyncAt)

	w = app.do(http.MethodPost, "/api/v1/sync")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.NotNil(t, status.LastSyncAt)
}

func TestDeleteEntityEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodDelete, "/api/v1/sync/entities/module/m1")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodDelete, "/api/v1/sync/entities/banana/m1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSuggestions(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/v1/suggestions")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/v1/suggestions?workoutId=ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)

	workout := domain.Workout{ID: "w1", Name: "Push Day"}
	require.NoError(t, app.workouts.Save(context.Background(), &workout))

	w = app.do(http.MethodGet, "/api/v1/suggestions?workoutId=w1")
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]SuggestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Empty(t, out)
}

func TestRecordOutcomesEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/sessions/ghost/outcomes")
	assert.Equal(t, http.StatusNotFound, w.Code)

	plain := domain.Session{ID: "s1", WorkoutID: "w1", Date: time.Now().UTC()}
	require.NoError(t, app.sessions.Save(context.Background(), &plain))

	w = app.do(http.MethodPost, "/api/v1/sessions/s1/outcomes")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/v1/analytics/streak")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"streak":0}`, w.Body.String())

	w = app.do(http.MethodGet, "/api/v1/analytics/volume")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/v1/analytics/breakdown?windowDays=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/v1/analytics/prs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(http.MethodGet, "/api/v1/analytics/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health service.EngineHealth
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Zero(t, health.Decisions)
}
