package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory local repositories ---

type memModules struct{ items map[string]domain.Module }

func newMemModules() *memModules { return &memModules{items: map[string]domain.Module{}} }

func (r *memModules) LoadAll(context.Context) ([]domain.Module, error) {
	out := make([]domain.Module, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m)
	}
	return out, nil
}

func (r *memModules) Find(_ context.Context, id string) (*domain.Module, error) {
	m, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *memModules) Save(_ context.Context, m *domain.Module) error {
	r.items[m.ID] = *m
	return nil
}

func (r *memModules) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memWorkouts struct{ items map[string]domain.Workout }

func newMemWorkouts() *memWorkouts { return &memWorkouts{items: map[string]domain.Workout{}} }

func (r *memWorkouts) LoadAll(context.Context) ([]domain.Workout, error) {
	out := make([]domain.Workout, 0, len(r.items))
	for _, w := range r.items {
		out = append(out, w)
	}
	return out, nil
}

func (r *memWorkouts) Find(_ context.Context, id string) (*domain.Workout, error) {
	w, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *memWorkouts) Save(_ context.Context, w *domain.Workout) error {
	r.items[w.ID] = *w
	return nil
}

func (r *memWorkouts) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memSessions struct{ items map[string]domain.Session }

func newMemSessions() *memSessions { return &memSessions{items: map[string]domain.Session{}} }

func (r *memSessions) LoadAll(context.Context) ([]domain.Session, error) {
	out := make([]domain.Session, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, nil
}

func (r *memSessions) Find(_ context.Context, id string) (*domain.Session, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *memSessions) Save(_ context.Context, s *domain.Session) error {
	r.items[s.ID] = *s
	return nil
}

func (r *memSessions) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memSessions) LoadRecent(ctx context.Context, windowDays int) ([]domain.Session, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)
	all, _ := r.LoadAll(ctx)
	out := all[:0]
	for _, s := range all {
		if !s.Date.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessions) LoadMore(ctx context.Context, before time.Time, limit int) ([]domain.Session, error) {
	all, _ := r.LoadAll(ctx)
	var out []domain.Session
	for _, s := range all {
		if s.Date.Before(before) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

type memPrograms struct{ items map[string]domain.Program }

func newMemPrograms() *memPrograms { return &memPrograms{items: map[string]domain.Program{}} }

func (r *memPrograms) LoadAll(context.Context) ([]domain.Program, error) {
	out := make([]domain.Program, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPrograms) Find(_ context.Context, id string) (*domain.Program, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memPrograms) Save(_ context.Context, p *domain.Program) error {
	r.items[p.ID] = *p
	return nil
}

func (r *memPrograms) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memExercises struct{ items map[string]domain.CustomExercise }

func newMemExercises() *memExercises {
	return &memExercises{items: map[string]domain.CustomExercise{}}
}

func (r *memExercises) LoadAll(context.Context) ([]domain.CustomExercise, error) {
	out := make([]domain.CustomExercise, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e)
	}
	return out, nil
}

func (r *memExercises) Find(_ context.Context, id string) (*domain.CustomExercise, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *memExercises) Save(_ context.Context, e *domain.CustomExercise) error {
	r.items[e.ID] = *e
	return nil
}

func (r *memExercises) DeleteByID(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memDeletionRepo struct{ items map[string]domain.DeletionRecord }

func newMemDeletionRepo() *memDeletionRepo {
	return &memDeletionRepo{items: map[string]domain.DeletionRecord{}}
}

func (r *memDeletionRepo) LoadAll(context.Context) ([]domain.DeletionRecord, error) {
	out := make([]domain.DeletionRecord, 0, len(r.items))
	for _, rec := range r.items {
		out = append(out, rec)
	}
	return out, nil
}

func (r *memDeletionRepo) Save(_ context.Context, rec *domain.DeletionRecord) error {
	r.items[rec.Key()] = *rec
	return nil
}

func (r *memDeletionRepo) DeleteByKey(_ context.Context, key string) error {
	delete(r.items, key)
	return nil
}

// --- fake remote store ---

type fakeRemote struct {
	snapshot repository.RemoteSnapshot
	fetchErr error
	onFetch  func()

	remoteDeletions []domain.DeletionRecord

	savedModules    map[string]domain.Module
	savedWorkouts   map[string]domain.Workout
	savedSessions   map[string]domain.Session
	savedPrograms   map[string]domain.Program
	savedExercises  map[string]domain.CustomExercise
	savedScheduled  map[string]domain.ScheduledWorkout
	savedProfile    *domain.UserProfile
	pushedDeletions []domain.DeletionRecord
	deletedKeys     []string
	cleanupCutoff   time.Time
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		savedModules:   map[string]domain.Module{},
		savedWorkouts:  map[string]domain.Workout{},
		savedSessions:  map[string]domain.Session{},
		savedPrograms:  map[string]domain.Program{},
		savedExercises: map[string]domain.CustomExercise{},
		savedScheduled: map[string]domain.ScheduledWorkout{},
	}
}

func (f *fakeRemote) FetchAllUserData(context.Context) (*repository.RemoteSnapshot, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	snap := f.snapshot
	return &snap, nil
}

func (f *fakeRemote) SaveModule(_ context.Context, m *domain.Module) error {
	f.savedModules[m.ID] = *m
	return nil
}

func (f *fakeRemote) SaveWorkout(_ context.Context, w *domain.Workout) error {
	f.savedWorkouts[w.ID] = *w
	return nil
}

func (f *fakeRemote) SaveSession(_ context.Context, s *domain.Session) error {
	f.savedSessions[s.ID] = *s
	return nil
}

func (f *fakeRemote) SaveProgram(_ context.Context, p *domain.Program) error {
	f.savedPrograms[p.ID] = *p
	return nil
}

func (f *fakeRemote) SaveCustomExercise(_ context.Context, e *domain.CustomExercise) error {
	f.savedExercises[e.ID] = *e
	return nil
}

func (f *fakeRemote) SaveScheduledWorkout(_ context.Context, s *domain.ScheduledWorkout) error {
	f.savedScheduled[s.ID] = *s
	return nil
}

func (f *fakeRemote) SaveUserProfile(_ context.Context, p *domain.UserProfile) error {
	profile := *p
	f.savedProfile = &profile
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, entityType domain.EntityType, id string) error {
	f.deletedKeys = append(f.deletedKeys, string(entityType)+"/"+id)
	return nil
}

func (f *fakeRemote) FetchDeletionRecords(context.Context) ([]domain.DeletionRecord, error) {
	return f.remoteDeletions, nil
}

func (f *fakeRemote) SaveDeletionRecords(_ context.Context, records []domain.DeletionRecord) error {
	f.pushedDeletions = append(f.pushedDeletions, records...)
	return nil
}

func (f *fakeRemote) CleanupOldDeletionRecords(_ context.Context, olderThan time.Time) (int64, error) {
	f.cleanupCutoff = olderThan
	return 0, nil
}

// --- harness ---

type syncHarness struct {
	modules   *memModules
	workouts  *memWorkouts
	sessions  *memSessions
	programs  *memPrograms
	exercises *memExercises
	remote    *fakeRemote
	tracker   *DeletionTracker
	svc       *SyncService
}

func newSyncHarness(t *testing.T) *syncHarness {
	t.Helper()
	h := &syncHarness{
		modules:   newMemModules(),
		workouts:  newMemWorkouts(),
		sessions:  newMemSessions(),
		programs:  newMemPrograms(),
		exercises: newMemExercises(),
		remote:    newFakeRemote(),
	}
	tracker, err := NewDeletionTracker(context.Background(), newMemDeletionRepo(), testLogger())
	require.NoError(t, err)
	h.tracker = tracker
	h.svc = NewSyncService(SyncServiceDeps{
		Modules:   h.modules,
		Workouts:  h.workouts,
		Sessions:  h.sessions,
		Programs:  h.programs,
		Exercises: h.exercises,
		Remote:    h.remote,
		Tracker:   tracker,
		Logger:    testLogger(),
	})
	return h
}

func syncTime(sec int) time.Time {
	return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

func syncModule(id string, updatedAt time.Time) domain.Module {
	return domain.Module{
		ID:         id,
		Name:       "Push Day",
		Type:       domain.ModuleTypeStrength,
		UpdatedAt:  updatedAt,
		CreatedAt:  syncTime(0),
		SyncStatus: domain.SyncStatusPending,
	}
}

func TestSyncAddsNewRemoteEntities(t *testing.T) {
	h := newSyncHarness(t)
	h.remote.snapshot.Modules = []domain.Module{syncModule("m1", syncTime(100))}

	require.NoError(t, h.svc.Sync(context.Background()))

	local, err := h.modules.Find(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Push Day", local.Name)
	// Pulled entity flows straight back out in the push phase and is
	// flagged synced locally.
	assert.Contains(t, h.remote.savedModules, "m1")
	assert.Equal(t, domain.SyncStatusSynced, local.SyncStatus)

	status := h.svc.Status()
	assert.Equal(t, SyncStateIdle, status.State)
	assert.False(t, status.InProgress)
	require.NotNil(t, status.LastSyncAt)
	assert.Empty(t, status.LastError)
}

func TestSyncMergesConcurrentChildEdits(t *testing.T) {
	h := newSyncHarness(t)

	local := syncModule("m1", syncTime(5))
	local.Exercises = []domain.ExerciseInstance{
		{ID: "ex-a", Name: "Bench Press", Order: 0, UpdatedAt: syncTime(5),
			SetGroups: []domain.SetGroup{{ID: "sg-a", Sets: 5, TargetReps: intP(5)}}},
		{ID: "ex-b", Name: "Overhead Press", Order: 1, UpdatedAt: syncTime(1),
			SetGroups: []domain.SetGroup{{ID: "sg-b", Sets: 3, TargetReps: intP(8)}}},
	}
	require.NoError(t, h.modules.Save(context.Background(), &local))

	remote := syncModule("m1", syncTime(12))
	remote.Exercises = []domain.ExerciseInstance{
		{ID: "ex-a", Name: "Bench Press", Order: 0, UpdatedAt: syncTime(1),
			SetGroups: []domain.SetGroup{{ID: "sg-a", Sets: 3, TargetReps: intP(5)}}},
		{ID: "ex-b", Name: "Overhead Press", Order: 1, UpdatedAt: syncTime(12),
			SetGroups: []domain.SetGroup{{ID: "sg-b", Sets: 3, TargetReps: intP(12)}}},
	}
	h.remote.snapshot.Modules = []domain.Module{remote}

	require.NoError(t, h.svc.Sync(context.Background()))

	merged, err := h.modules.Find(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, merged.Exercises, 2)
	// Local edit to ex-a survives, remote edit to ex-b lands.
	assert.Equal(t, 5, merged.Exercises[0].SetGroups[0].Sets)
	assert.Equal(t, 12, *merged.Exercises[1].SetGroups[0].TargetReps)
}

func TestSyncDeletionSuppression(t *testing.T) {
	h := newSyncHarness(t)
	h.tracker.now = func() time.Time { return syncTime(250) }
	require.NoError(t, h.tracker.RecordDeletion(context.Background(), domain.EntityTypeModule, "m1"))

	// Cloud copy edited before the local deletion: must not resurrect.
	h.remote.snapshot.Modules = []domain.Module{syncModule("m1", syncTime(200))}

	require.NoError(t, h.svc.Sync(context.Background()))

	_, err := h.modules.Find(context.Background(), "m1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The tombstone was pushed: entity deleted remotely, record saved,
	// outbox drained.
	assert.Contains(t, h.remote.deletedKeys, "module/m1")
	require.Len(t, h.remote.pushedDeletions, 1)
	assert.Equal(t, "m1", h.remote.pushedDeletions[0].EntityID)
	assert.Empty(t, h.tracker.UnsyncedDeletions())
}

func TestSyncSuppressesNewerRemoteEditUntilTombstonePruned(t *testing.T) {
	h := newSyncHarness(t)
	ctx := context.Background()

	deletedAt := syncTime(100)
	h.tracker.now = func() time.Time { return deletedAt }
	require.NoError(t, h.tracker.RecordDeletion(ctx, domain.EntityTypeModule, "m1"))

	// Cloud copy edited after the local deletion. Membership in the
	// deleted-id set still suppresses it: the entity stays gone for the
	// whole retention window, not just until the remote edit's timestamp
	// passes the tombstone's.
	h.remote.snapshot.Modules = []domain.Module{syncModule("m1", deletedAt.Add(time.Hour))}

	require.NoError(t, h.svc.Sync(ctx))
	_, err := h.modules.Find(ctx, "m1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Once the synced tombstone ages out and is pruned, the cloud copy
	// comes back.
	h.tracker.now = func() time.Time { return deletedAt.Add(domain.DeletionRetention + time.Hour) }
	pruned, err := h.tracker.CleanupOldRecords(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, pruned)

	require.NoError(t, h.svc.Sync(ctx))
	recreated, err := h.modules.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", recreated.ID)
}

func TestSyncAppliesRemoteDeletions(t *testing.T) {
	h := newSyncHarness(t)

	stale := syncModule("m1", syncTime(100))
	require.NoError(t, h.modules.Save(context.Background(), &stale))
	edited := syncModule("m2", syncTime(300))
	require.NoError(t, h.modules.Save(context.Background(), &edited))

	h.remote.remoteDeletions = []domain.DeletionRecord{
		{EntityType: domain.EntityTypeModule, EntityID: "m1", DeletedAt: syncTime(200), Synced: true},
		{EntityType: domain.EntityTypeModule, EntityID: "m2", DeletedAt: syncTime(200), Synced: true},
	}

	require.NoError(t, h.svc.Sync(context.Background()))

	// m1 was last edited before the deletion: it goes.
	_, err := h.modules.Find(context.Background(), "m1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	// m2 was edited after the deletion: the newer edit wins.
	_, err = h.modules.Find(context.Background(), "m2")
	assert.NoError(t, err)
}

func TestSyncSessionsAddOnly(t *testing.T) {
	h := newSyncHarness(t)

	local := domain.Session{ID: "s1", WorkoutID: "w1", Date: syncTime(0), Notes: "local copy", UpdatedAt: syncTime(10)}
	require.NoError(t, h.sessions.Save(context.Background(), &local))

	remoteDupe := local
	remoteDupe.Notes = "remote copy"
	remoteDupe.UpdatedAt = syncTime(500)
	h.remote.snapshot.Sessions = []domain.Session{
		remoteDupe,
		{ID: "s2", WorkoutID: "w1", Date: syncTime(100), UpdatedAt: syncTime(100)},
	}

	require.NoError(t, h.svc.Sync(context.Background()))

	kept, err := h.sessions.Find(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "local copy", kept.Notes)
	_, err = h.sessions.Find(context.Background(), "s2")
	assert.NoError(t, err)
}

func TestSyncProgramsReplaceWholesale(t *testing.T) {
	h := newSyncHarness(t)

	local := domain.Program{ID: "p1", Name: "5x5 local", UpdatedAt: syncTime(100)}
	require.NoError(t, h.programs.Save(context.Background(), &local))

	newer := domain.Program{ID: "p1", Name: "5x5 cloud", UpdatedAt: syncTime(200)}
	older := domain.Program{ID: "p2", Name: "stale cloud", UpdatedAt: syncTime(50)}
	localP2 := domain.Program{ID: "p2", Name: "fresh local", UpdatedAt: syncTime(100)}
	require.NoError(t, h.programs.Save(context.Background(), &localP2))
	h.remote.snapshot.Programs = []domain.Program{newer, older}

	require.NoError(t, h.svc.Sync(context.Background()))

	p1, err := h.programs.Find(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "5x5 cloud", p1.Name)
	p2, err := h.programs.Find(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "fresh local", p2.Name)
}

func TestSyncFetchFailureAbortsCycle(t *testing.T) {
	h := newSyncHarness(t)
	h.remote.fetchErr = repository.RepositoryError("cloud unreachable")

	pending := syncModule("m1", syncTime(10))
	require.NoError(t, h.modules.Save(context.Background(), &pending))
	require.NoError(t, h.tracker.RecordDeletion(context.Background(), domain.EntityTypeWorkout, "w-gone"))

	err := h.svc.Sync(context.Background())
	require.Error(t, err)

	status := h.svc.Status()
	assert.Equal(t, SyncStateFailed, status.State)
	assert.Contains(t, status.LastError, "cloud unreachable")
	assert.False(t, status.InProgress)

	// Nothing after the fetch ran: no pushes, outbox intact.
	assert.Empty(t, h.remote.savedModules)
	assert.Empty(t, h.remote.pushedDeletions)
	assert.Len(t, h.tracker.UnsyncedDeletions(), 1)
}

func TestSyncRejectsOverlappingCycle(t *testing.T) {
	h := newSyncHarness(t)

	var overlapErr error
	h.remote.onFetch = func() {
		overlapErr = h.svc.Sync(context.Background())
	}

	require.NoError(t, h.svc.Sync(context.Background()))
	assert.ErrorIs(t, overlapErr, ErrSyncInProgress)
}

func TestSyncHandsOffUnownedEntities(t *testing.T) {
	h := newSyncHarness(t)

	h.remote.snapshot.ScheduledWorkouts = []domain.ScheduledWorkout{{ID: "sw1", WorkoutID: "w1"}}
	h.remote.snapshot.Profile = &domain.UserProfile{ID: "u1", DisplayName: "Alice"}

	var gotScheduled []domain.ScheduledWorkout
	var gotProfile *domain.UserProfile
	h.svc.ScheduledWorkoutsSynced.Subscribe(func(s []domain.ScheduledWorkout) { gotScheduled = s })
	h.svc.UserProfileSynced.Subscribe(func(p *domain.UserProfile) { gotProfile = p })

	h.svc.OnPushScheduledWorkouts(func() []domain.ScheduledWorkout {
		return []domain.ScheduledWorkout{{ID: "sw2", WorkoutID: "w2"}}
	})
	h.svc.OnPushUserProfile(func() *domain.UserProfile {
		return &domain.UserProfile{ID: "u1", DisplayName: "Alice B"}
	})

	require.NoError(t, h.svc.Sync(context.Background()))

	require.Len(t, gotScheduled, 1)
	assert.Equal(t, "sw1", gotScheduled[0].ID)
	require.NotNil(t, gotProfile)
	assert.Equal(t, "Alice", gotProfile.DisplayName)

	assert.Contains(t, h.remote.savedScheduled, "sw2")
	require.NotNil(t, h.remote.savedProfile)
	assert.Equal(t, "Alice B", h.remote.savedProfile.DisplayName)
}

func TestSyncRefreshesSnapshotAndPrunesTombstones(t *testing.T) {
	h := newSyncHarness(t)
	h.remote.snapshot.Modules = []domain.Module{syncModule("m1", syncTime(100))}

	require.NoError(t, h.svc.Sync(context.Background()))

	snap := h.svc.CurrentSnapshot()
	require.Len(t, snap.Modules, 1)
	assert.Equal(t, "m1", snap.Modules[0].ID)

	// Remote tombstone cleanup ran with the retention cutoff.
	assert.False(t, h.remote.cleanupCutoff.IsZero())
}

func TestDeleteEntityTombstonesAndRemoves(t *testing.T) {
	h := newSyncHarness(t)

	m := syncModule("m1", syncTime(10))
	require.NoError(t, h.modules.Save(context.Background(), &m))

	require.NoError(t, h.svc.DeleteEntity(context.Background(), domain.EntityTypeModule, "m1"))

	_, err := h.modules.Find(context.Background(), "m1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.True(t, h.tracker.DeletedIDs(domain.EntityTypeModule)["m1"])
	assert.Len(t, h.tracker.UnsyncedDeletions(), 1)

	// Deleting something that never existed locally still tombstones.
	require.NoError(t, h.svc.DeleteEntity(context.Background(), domain.EntityTypeWorkout, "ghost"))
	assert.True(t, h.tracker.DeletedIDs(domain.EntityTypeWorkout)["ghost"])
}
