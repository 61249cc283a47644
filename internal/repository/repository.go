package repository

import (
	"alcyxob/fitness-sync/internal/domain"
	"context"
	"time"
)

// Error constants for the storage layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish storage errors from domain errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ModuleRepository is the local-store boundary for modules.
type ModuleRepository interface {
	LoadAll(ctx context.Context) ([]domain.Module, error)
	Find(ctx context.Context, id string) (*domain.Module, error)
	Save(ctx context.Context, module *domain.Module) error
	DeleteByID(ctx context.Context, id string) error
}

// WorkoutRepository is the local-store boundary for workouts.
type WorkoutRepository interface {
	LoadAll(ctx context.Context) ([]domain.Workout, error)
	Find(ctx context.Context, id string) (*domain.Workout, error)
	Save(ctx context.Context, workout *domain.Workout) error
	DeleteByID(ctx context.Context, id string) error
}

// ProgramRepository is the local-store boundary for programs.
type ProgramRepository interface {
	LoadAll(ctx context.Context) ([]domain.Program, error)
	Find(ctx context.Context, id string) (*domain.Program, error)
	Save(ctx context.Context, program *domain.Program) error
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository is the local-store boundary for sessions. Session
// history is unbounded, so besides LoadAll it offers cursor-based
// pagination by session date.
type SessionRepository interface {
	LoadAll(ctx context.Context) ([]domain.Session, error)
	Find(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	DeleteByID(ctx context.Context, id string) error
	// LoadRecent returns sessions dated within the trailing window.
	LoadRecent(ctx context.Context, windowDays int) ([]domain.Session, error)
	// LoadMore pages backwards: sessions strictly older than before,
	// newest first, at most limit.
	LoadMore(ctx context.Context, before time.Time, limit int) ([]domain.Session, error)
}

// CustomExerciseRepository is the local-store boundary for the exercise
// template library.
type CustomExerciseRepository interface {
	LoadAll(ctx context.Context) ([]domain.CustomExercise, error)
	Find(ctx context.Context, id string) (*domain.CustomExercise, error)
	Save(ctx context.Context, exercise *domain.CustomExercise) error
	DeleteByID(ctx context.Context, id string) error
}

// DecisionRepository persists progression-decision audit records. These
// are local engine telemetry and are not synced.
type DecisionRepository interface {
	LoadAll(ctx context.Context) ([]domain.ProgressionDecision, error)
	Save(ctx context.Context, decision *domain.ProgressionDecision) error
}

// DeletionRecordRepository persists the tombstone journal.
type DeletionRecordRepository interface {
	LoadAll(ctx context.Context) ([]domain.DeletionRecord, error)
	Save(ctx context.Context, record *domain.DeletionRecord) error
	// DeleteByKey removes a pruned tombstone ((type, id) journal key).
	DeleteByKey(ctx context.Context, key string) error
}

// RemoteSnapshot is everything the cloud store holds for one user,
// fetched in a single round trip at the start of a sync cycle.
type RemoteSnapshot struct {
	Modules           []domain.Module
	Workouts          []domain.Workout
	Sessions          []domain.Session
	Programs          []domain.Program
	Exercises         []domain.CustomExercise
	ScheduledWorkouts []domain.ScheduledWorkout
	Profile           *domain.UserProfile
}

// RemoteStore is the cloud document store boundary. Implementations are
// assumed pre-authenticated and scoped to a single user.
type RemoteStore interface {
	FetchAllUserData(ctx context.Context) (*RemoteSnapshot, error)

	SaveModule(ctx context.Context, module *domain.Module) error
	SaveWorkout(ctx context.Context, workout *domain.Workout) error
	SaveSession(ctx context.Context, session *domain.Session) error
	SaveProgram(ctx context.Context, program *domain.Program) error
	SaveCustomExercise(ctx context.Context, exercise *domain.CustomExercise) error
	SaveScheduledWorkout(ctx context.Context, scheduled *domain.ScheduledWorkout) error
	SaveUserProfile(ctx context.Context, profile *domain.UserProfile) error

	Delete(ctx context.Context, entityType domain.EntityType, id string) error

	FetchDeletionRecords(ctx context.Context) ([]domain.DeletionRecord, error)
	SaveDeletionRecords(ctx context.Context, records []domain.DeletionRecord) error
	// CleanupOldDeletionRecords drops remote tombstones older than the
	// cutoff and reports how many were removed.
	CleanupOldDeletionRecords(ctx context.Context, olderThan time.Time) (int64, error)
}
