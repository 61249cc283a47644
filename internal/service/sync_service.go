package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"
)

// ErrSyncInProgress is returned when a sync cycle is requested while one
// is already running. Cycles never interleave: the whole cycle runs
// under a real mutex, not an advisory flag.
var ErrSyncInProgress = errors.New("sync already in progress")

// SyncState names the phase a sync cycle is in.
type SyncState string

const (
	SyncStateIdle             SyncState = "idle"
	SyncStatePullingDeletions SyncState = "pullingDeletions"
	SyncStateFetching         SyncState = "fetching"
	SyncStatePushingDeletions SyncState = "pushingDeletions"
	SyncStateMerging          SyncState = "merging"
	SyncStateReloading        SyncState = "reloading"
	SyncStateFailed           SyncState = "failed"
)

// SyncStatus is the externally visible state of the engine.
type SyncStatus struct {
	State      SyncState  `json:"state"`
	InProgress bool       `json:"inProgress"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Snapshot is the in-memory view of local collections, refreshed at the
// end of every sync cycle (and on demand) for the read side.
type Snapshot struct {
	Modules   []domain.Module
	Workouts  []domain.Workout
	Sessions  []domain.Session
	Programs  []domain.Program
	Exercises []domain.CustomExercise
}

// SyncService drives the pull→merge→push cycle against the cloud store.
//
// One cycle: pull remote tombstones and apply them locally; fetch the
// full remote snapshot (the only step whose failure aborts the cycle);
// push unsynced local tombstones; merge each collection per its
// semantics (child-grain merge for modules/workouts, add-only for
// sessions and custom exercises, wholesale replace for programs); push
// every local collection; hand off unowned entities via events; prune
// old tombstones; reload the in-memory snapshot.
//
// Every remote call after the fetch is independently error-isolated: a
// failed push of one collection is logged and does not stop the others.
type SyncService struct {
	cycleMu sync.Mutex // serialises whole cycles
	stateMu sync.Mutex // guards status and snapshot

	modules   repository.ModuleRepository
	workouts  repository.WorkoutRepository
	sessions  repository.SessionRepository
	programs  repository.ProgramRepository
	exercises repository.CustomExerciseRepository
	remote    repository.RemoteStore
	tracker   *DeletionTracker
	logger    *slog.Logger
	now       func() time.Time

	status   SyncStatus
	snapshot Snapshot

	// Broadcast side of the notification boundary: entities the engine
	// does not own are handed off after a pull.
	ScheduledWorkoutsSynced SyncEvents[[]domain.ScheduledWorkout]
	UserProfileSynced       SyncEvents[*domain.UserProfile]

	// Inverse request side: owning subsystems supply their entities for
	// the push phase.
	provideScheduledWorkouts func() []domain.ScheduledWorkout
	provideUserProfile       func() *domain.UserProfile
}

// SyncServiceDeps gathers the injected collaborators. Everything is an
// interface or explicit value; the engine resolves nothing globally.
type SyncServiceDeps struct {
	Modules   repository.ModuleRepository
	Workouts  repository.WorkoutRepository
	Sessions  repository.SessionRepository
	Programs  repository.ProgramRepository
	Exercises repository.CustomExerciseRepository
	Remote    repository.RemoteStore
	Tracker   *DeletionTracker
	Logger    *slog.Logger
}

// NewSyncService wires the orchestrator.
func NewSyncService(deps SyncServiceDeps) *SyncService {
	return &SyncService{
		modules:   deps.Modules,
		workouts:  deps.Workouts,
		sessions:  deps.Sessions,
		programs:  deps.Programs,
		exercises: deps.Exercises,
		remote:    deps.Remote,
		tracker:   deps.Tracker,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
		status:    SyncStatus{State: SyncStateIdle},
	}
}

// OnPushScheduledWorkouts registers the provider queried during push.
func (s *SyncService) OnPushScheduledWorkouts(fn func() []domain.ScheduledWorkout) {
	s.provideScheduledWorkouts = fn
}

// OnPushUserProfile registers the provider queried during push.
func (s *SyncService) OnPushUserProfile(fn func() *domain.UserProfile) {
	s.provideUserProfile = fn
}

// Status returns a copy of the current sync status.
func (s *SyncService) Status() SyncStatus {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.status
}

// CurrentSnapshot returns the last loaded in-memory collections.
func (s *SyncService) CurrentSnapshot() Snapshot {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.snapshot
}

// DeleteEntity removes an entity locally and tombstones it so the
// deletion survives (and propagates through) future sync cycles.
func (s *SyncService) DeleteEntity(ctx context.Context, entityType domain.EntityType, id string) error {
	if err := s.deleteLocal(ctx, entityType, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.tracker.RecordDeletion(ctx, entityType, id)
}

// Sync runs one full cycle. Returns ErrSyncInProgress when called while
// a cycle is already running.
func (s *SyncService) Sync(ctx context.Context) error {
	if !s.cycleMu.TryLock() {
		return ErrSyncInProgress
	}
	defer s.cycleMu.Unlock()

	s.setInProgress(true)
	// The in-progress marker always clears, whatever path the cycle
	// takes out.
	defer s.setInProgress(false)

	s.setState(SyncStatePullingDeletions)
	s.pullDeletions(ctx)

	s.setState(SyncStateFetching)
	snapshot, err := s.remote.FetchAllUserData(ctx)
	if err != nil {
		s.logger.Error("remote fetch failed, aborting cycle", "error", err)
		s.failCycle(err)
		return err
	}

	s.setState(SyncStatePushingDeletions)
	s.pushDeletions(ctx)

	s.setState(SyncStateMerging)
	s.mergeModules(ctx, snapshot.Modules)
	s.mergeWorkouts(ctx, snapshot.Workouts)
	s.mergeSessions(ctx, snapshot.Sessions)
	s.mergePrograms(ctx, snapshot.Programs)
	s.mergeCustomExercises(ctx, snapshot.Exercises)

	// Hand off entities the engine does not own.
	s.ScheduledWorkoutsSynced.Publish(snapshot.ScheduledWorkouts)
	if snapshot.Profile != nil {
		s.UserProfileSynced.Publish(snapshot.Profile)
	}

	s.pushAll(ctx)
	s.cleanupDeletions(ctx)

	s.setState(SyncStateReloading)
	if err := s.reload(ctx); err != nil {
		s.logger.Error("snapshot reload failed", "error", err)
	}

	s.finishCycle()
	return nil
}

// Reload refreshes the in-memory snapshot outside a sync cycle, for use
// after interactive edits.
func (s *SyncService) Reload(ctx context.Context) error {
	return s.reload(ctx)
}

// --- pull phase ---

// pullDeletions imports remote tombstones and applies them locally.
// Failure here degrades to an empty pull; resurrection protection still
// holds through previously imported tombstones.
func (s *SyncService) pullDeletions(ctx context.Context) {
	records, err := s.remote.FetchDeletionRecords(ctx)
	if err != nil {
		s.logger.Warn("failed to pull deletion records", "error", err)
		return
	}
	for _, rec := range records {
		if err := s.tracker.ImportFromCloud(ctx, rec); err != nil {
			s.logger.Warn("failed to import deletion record", "key", rec.Key(), "error", err)
			continue
		}
		s.applyDeletionLocally(ctx, rec)
	}
}

// applyDeletionLocally deletes the local copy named by a tombstone,
// unless the local copy was edited after the deletion happened (the
// newer edit wins and will be pushed back out).
func (s *SyncService) applyDeletionLocally(ctx context.Context, rec domain.DeletionRecord) {
	updatedAt, exists := s.localUpdatedAt(ctx, rec.EntityType, rec.EntityID)
	if !exists || updatedAt.After(rec.DeletedAt) {
		return
	}
	if err := s.deleteLocal(ctx, rec.EntityType, rec.EntityID); err != nil {
		s.logger.Warn("failed to apply remote deletion", "key", rec.Key(), "error", err)
	}
}

// localUpdatedAt looks up an entity's updatedAt by type. Exhaustive over
// the closed EntityType set.
func (s *SyncService) localUpdatedAt(ctx context.Context, entityType domain.EntityType, id string) (time.Time, bool) {
	switch entityType {
	case domain.EntityTypeModule:
		if m, err := s.modules.Find(ctx, id); err == nil {
			return m.UpdatedAt, true
		}
	case domain.EntityTypeWorkout:
		if w, err := s.workouts.Find(ctx, id); err == nil {
			return w.UpdatedAt, true
		}
	case domain.EntityTypeProgram:
		if p, err := s.programs.Find(ctx, id); err == nil {
			return p.UpdatedAt, true
		}
	case domain.EntityTypeSession:
		if sess, err := s.sessions.Find(ctx, id); err == nil {
			return sess.UpdatedAt, true
		}
	case domain.EntityTypeCustomExercise:
		if e, err := s.exercises.Find(ctx, id); err == nil {
			return e.UpdatedAt, true
		}
	case domain.EntityTypeScheduledWorkout:
		// Not locally stored by the engine; owning subsystem reacts to
		// the tombstone through the event boundary.
	}
	return time.Time{}, false
}

// deleteLocal dispatches a deletion to the owning local repository.
func (s *SyncService) deleteLocal(ctx context.Context, entityType domain.EntityType, id string) error {
	switch entityType {
	case domain.EntityTypeModule:
		return s.modules.DeleteByID(ctx, id)
	case domain.EntityTypeWorkout:
		return s.workouts.DeleteByID(ctx, id)
	case domain.EntityTypeProgram:
		return s.programs.DeleteByID(ctx, id)
	case domain.EntityTypeSession:
		return s.sessions.DeleteByID(ctx, id)
	case domain.EntityTypeCustomExercise:
		return s.exercises.DeleteByID(ctx, id)
	case domain.EntityTypeScheduledWorkout:
		return nil // not stored by the engine
	default:
		return repository.ErrDeleteFailed
	}
}

// --- deletion push phase ---

// pushDeletions drains the tombstone outbox: delete the entity remotely,
// persist the tombstone remotely, then mark it synced. Entries marked
// before a mid-batch failure stay marked; deletion is idempotent.
func (s *SyncService) pushDeletions(ctx context.Context) {
	for _, rec := range s.tracker.UnsyncedDeletions() {
		if err := s.remote.Delete(ctx, rec.EntityType, rec.EntityID); err != nil {
			s.logger.Warn("failed to delete entity remotely", "key", rec.Key(), "error", err)
			continue
		}
		if err := s.remote.SaveDeletionRecords(ctx, []domain.DeletionRecord{rec}); err != nil {
			s.logger.Warn("failed to push deletion record", "key", rec.Key(), "error", err)
			continue
		}
		if err := s.tracker.MarkAsSynced(ctx, rec); err != nil {
			s.logger.Warn("failed to mark deletion synced", "key", rec.Key(), "error", err)
		}
	}
}

// --- merge phase ---

// skipRemote applies the two-layer deletion defence: a tombstone newer
// than the remote edit suppresses it, and an id still present in the
// deleted-id set suppresses it regardless. The second check makes the
// first redundant in practice: any tombstoned id stays suppressed until
// its tombstone is pruned after the retention window, and only then can
// a newer cloud edit recreate the entity. Both checks are kept so the
// time-based rule takes over if the membership rule is ever narrowed.
func (s *SyncService) skipRemote(entityType domain.EntityType, id string, remoteUpdatedAt time.Time) bool {
	if s.tracker.WasDeletedAfter(entityType, id, remoteUpdatedAt) {
		return true
	}
	return s.tracker.DeletedIDs(entityType)[id]
}

func (s *SyncService) mergeModules(ctx context.Context, remote []domain.Module) {
	for i := range remote {
		cloud := remote[i]
		if s.skipRemote(domain.EntityTypeModule, cloud.ID, cloud.UpdatedAt) {
			continue
		}
		local, err := s.modules.Find(ctx, cloud.ID)
		switch {
		case err == nil:
			merged := domain.MergeModule(local, &cloud)
			if local.NeedsSync(merged) {
				if err := s.modules.Save(ctx, merged); err != nil {
					s.logger.Warn("failed to persist merged module", "id", cloud.ID, "error", err)
				}
			}
		case errors.Is(err, repository.ErrNotFound):
			if err := s.modules.Save(ctx, &cloud); err != nil {
				s.logger.Warn("failed to persist new module", "id", cloud.ID, "error", err)
			}
		default:
			s.logger.Warn("failed to load module for merge", "id", cloud.ID, "error", err)
		}
	}
}

func (s *SyncService) mergeWorkouts(ctx context.Context, remote []domain.Workout) {
	for i := range remote {
		cloud := remote[i]
		if s.skipRemote(domain.EntityTypeWorkout, cloud.ID, cloud.UpdatedAt) {
			continue
		}
		local, err := s.workouts.Find(ctx, cloud.ID)
		switch {
		case err == nil:
			merged := domain.MergeWorkout(local, &cloud)
			if local.NeedsSync(merged) {
				if err := s.workouts.Save(ctx, merged); err != nil {
					s.logger.Warn("failed to persist merged workout", "id", cloud.ID, "error", err)
				}
			}
		case errors.Is(err, repository.ErrNotFound):
			if err := s.workouts.Save(ctx, &cloud); err != nil {
				s.logger.Warn("failed to persist new workout", "id", cloud.ID, "error", err)
			}
		default:
			s.logger.Warn("failed to load workout for merge", "id", cloud.ID, "error", err)
		}
	}
}

// mergeSessions: sessions are append-only history; a remote session is
// added only when no local session with that id exists.
func (s *SyncService) mergeSessions(ctx context.Context, remote []domain.Session) {
	for i := range remote {
		cloud := remote[i]
		if s.skipRemote(domain.EntityTypeSession, cloud.ID, cloud.UpdatedAt) {
			continue
		}
		_, err := s.sessions.Find(ctx, cloud.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to check session", "id", cloud.ID, "error", err)
			continue
		}
		if err := s.sessions.Save(ctx, &cloud); err != nil {
			s.logger.Warn("failed to persist session from cloud", "id", cloud.ID, "error", err)
		}
	}
}

// mergePrograms: a program is a single-writer configuration object;
// the cloud copy replaces the local one wholesale when it is at least
// as new.
func (s *SyncService) mergePrograms(ctx context.Context, remote []domain.Program) {
	for i := range remote {
		cloud := remote[i]
		if s.skipRemote(domain.EntityTypeProgram, cloud.ID, cloud.UpdatedAt) {
			continue
		}
		local, err := s.programs.Find(ctx, cloud.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to load program for merge", "id", cloud.ID, "error", err)
			continue
		}
		if local != nil && cloud.UpdatedAt.Before(local.UpdatedAt) {
			continue
		}
		if err := s.programs.Save(ctx, &cloud); err != nil {
			s.logger.Warn("failed to persist program from cloud", "id", cloud.ID, "error", err)
		}
	}
}

// mergeCustomExercises: template entries use the same add-only rule as
// sessions.
func (s *SyncService) mergeCustomExercises(ctx context.Context, remote []domain.CustomExercise) {
	for i := range remote {
		cloud := remote[i]
		if s.skipRemote(domain.EntityTypeCustomExercise, cloud.ID, cloud.UpdatedAt) {
			continue
		}
		_, err := s.exercises.Find(ctx, cloud.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to check custom exercise", "id", cloud.ID, "error", err)
			continue
		}
		if err := s.exercises.Save(ctx, &cloud); err != nil {
			s.logger.Warn("failed to persist custom exercise from cloud", "id", cloud.ID, "error", err)
		}
	}
}

// --- push phase ---

// pushAll pushes every local collection unconditionally. There is no
// dirty tracking beyond syncStatus; entities are flagged synced locally
// once their push succeeds. A failed collection does not stop siblings.
func (s *SyncService) pushAll(ctx context.Context) {
	if all, err := s.modules.LoadAll(ctx); err != nil {
		s.logger.Warn("failed to load modules for push", "error", err)
	} else {
		for i := range all {
			m := all[i]
			if err := s.remote.SaveModule(ctx, &m); err != nil {
				s.logger.Warn("failed to push module", "id", m.ID, "error", err)
				continue
			}
			s.markModuleSynced(ctx, m)
		}
	}

	if all, err := s.workouts.LoadAll(ctx); err != nil {
		s.logger.Warn("failed to load workouts for push", "error", err)
	} else {
		for i := range all {
			w := all[i]
			if err := s.remote.SaveWorkout(ctx, &w); err != nil {
				s.logger.Warn("failed to push workout", "id", w.ID, "error", err)
				continue
			}
			s.markWorkoutSynced(ctx, w)
		}
	}

	if all, err := s.sessions.LoadAll(ctx); err != nil {
		s.logger.Warn("failed to load sessions for push", "error", err)
	} else {
		for i := range all {
			sess := all[i]
			if err := s.remote.SaveSession(ctx, &sess); err != nil {
				s.logger.Warn("failed to push session", "id", sess.ID, "error", err)
				continue
			}
			s.markSessionSynced(ctx, sess)
		}
	}

	if all, err := s.programs.LoadAll(ctx); err != nil {
		s.logger.Warn("failed to load programs for push", "error", err)
	} else {
		for i := range all {
			p := all[i]
			if err := s.remote.SaveProgram(ctx, &p); err != nil {
				s.logger.Warn("failed to push program", "id", p.ID, "error", err)
				continue
			}
			s.markProgramSynced(ctx, p)
		}
	}

	if all, err := s.exercises.LoadAll(ctx); err != nil {
		s.logger.Warn("failed to load custom exercises for push", "error", err)
	} else {
		for i := range all {
			e := all[i]
			if err := s.remote.SaveCustomExercise(ctx, &e); err != nil {
				s.logger.Warn("failed to push custom exercise", "id", e.ID, "error", err)
				continue
			}
			if e.SyncStatus != domain.SyncStatusSynced {
				e.SyncStatus = domain.SyncStatusSynced
				if err := s.exercises.Save(ctx, &e); err != nil {
					s.logger.Warn("failed to mark custom exercise synced", "id", e.ID, "error", err)
				}
			}
		}
	}

	// Entities owned elsewhere, gathered through the request callbacks.
	if s.provideScheduledWorkouts != nil {
		for _, sw := range s.provideScheduledWorkouts() {
			scheduled := sw
			if err := s.remote.SaveScheduledWorkout(ctx, &scheduled); err != nil {
				s.logger.Warn("failed to push scheduled workout", "id", scheduled.ID, "error", err)
			}
		}
	}
	if s.provideUserProfile != nil {
		if profile := s.provideUserProfile(); profile != nil {
			if err := s.remote.SaveUserProfile(ctx, profile); err != nil {
				s.logger.Warn("failed to push user profile", "id", profile.ID, "error", err)
			}
		}
	}
}

func (s *SyncService) markModuleSynced(ctx context.Context, m domain.Module) {
	if m.SyncStatus == domain.SyncStatusSynced {
		return
	}
	m.SyncStatus = domain.SyncStatusSynced
	if err := s.modules.Save(ctx, &m); err != nil {
		s.logger.Warn("failed to mark module synced", "id", m.ID, "error", err)
	}
}

func (s *SyncService) markWorkoutSynced(ctx context.Context, w domain.Workout) {
	if w.SyncStatus == domain.SyncStatusSynced {
		return
	}
	w.SyncStatus = domain.SyncStatusSynced
	if err := s.workouts.Save(ctx, &w); err != nil {
		s.logger.Warn("failed to mark workout synced", "id", w.ID, "error", err)
	}
}

func (s *SyncService) markSessionSynced(ctx context.Context, sess domain.Session) {
	if sess.SyncStatus == domain.SyncStatusSynced {
		return
	}
	sess.SyncStatus = domain.SyncStatusSynced
	if err := s.sessions.Save(ctx, &sess); err != nil {
		s.logger.Warn("failed to mark session synced", "id", sess.ID, "error", err)
	}
}

func (s *SyncService) markProgramSynced(ctx context.Context, p domain.Program) {
	if p.SyncStatus == domain.SyncStatusSynced {
		return
	}
	p.SyncStatus = domain.SyncStatusSynced
	if err := s.programs.Save(ctx, &p); err != nil {
		s.logger.Warn("failed to mark program synced", "id", p.ID, "error", err)
	}
}

// --- cleanup and reload ---

func (s *SyncService) cleanupDeletions(ctx context.Context) {
	if pruned, err := s.tracker.CleanupOldRecords(ctx); err != nil {
		s.logger.Warn("failed to prune local deletion records", "error", err)
	} else if pruned > 0 {
		s.logger.Info("pruned local deletion records", "count", pruned)
	}
	cutoff := s.now().Add(-domain.DeletionRetention)
	if removed, err := s.remote.CleanupOldDeletionRecords(ctx, cutoff); err != nil {
		s.logger.Warn("failed to prune remote deletion records", "error", err)
	} else if removed > 0 {
		s.logger.Info("pruned remote deletion records", "count", removed)
	}
}

func (s *SyncService) reload(ctx context.Context) error {
	var snap Snapshot
	var err error
	if snap.Modules, err = s.modules.LoadAll(ctx); err != nil {
		return err
	}
	if snap.Workouts, err = s.workouts.LoadAll(ctx); err != nil {
		return err
	}
	if snap.Sessions, err = s.sessions.LoadAll(ctx); err != nil {
		return err
	}
	if snap.Programs, err = s.programs.LoadAll(ctx); err != nil {
		return err
	}
	if snap.Exercises, err = s.exercises.LoadAll(ctx); err != nil {
		return err
	}
	s.stateMu.Lock()
	s.snapshot = snap
	s.stateMu.Unlock()
	return nil
}

// --- status bookkeeping ---

func (s *SyncService) setState(state SyncState) {
	s.stateMu.Lock()
	s.status.State = state
	s.stateMu.Unlock()
}

func (s *SyncService) setInProgress(v bool) {
	s.stateMu.Lock()
	s.status.InProgress = v
	if !v && s.status.State != SyncStateFailed {
		s.status.State = SyncStateIdle
	}
	s.stateMu.Unlock()
}

func (s *SyncService) failCycle(err error) {
	s.stateMu.Lock()
	s.status.State = SyncStateFailed
	s.status.LastError = err.Error()
	s.stateMu.Unlock()
}

func (s *SyncService) finishCycle() {
	now := s.now()
	s.stateMu.Lock()
	s.status.State = SyncStateIdle
	s.status.LastSyncAt = &now
	s.status.LastError = ""
	s.stateMu.Unlock()
}
