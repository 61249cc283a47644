package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes namespace collections inside the single database.
const (
	prefixModule   = "module/"
	prefixWorkout  = "workout/"
	prefixSession  = "session/"
	prefixProgram  = "program/"
	prefixExercise = "exercise/"
	prefixDeletion = "deletion/"
	prefixDecision = "decision/"
)

func putJSON(db *badger.DB, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func getJSON[T any](db *badger.DB, key string) (*T, error) {
	var out T
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func listJSON[T any](db *badger.DB, prefix string) ([]T, error) {
	var out []T
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func deleteKey(db *badger.DB, key string) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// --- modules ---

type moduleRepository struct {
	db *badger.DB
}

// NewModuleRepository returns a badger-backed module store.
func NewModuleRepository(db *badger.DB) repository.ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) LoadAll(_ context.Context) ([]domain.Module, error) {
	recs, err := listJSON[moduleRecord](r.db, prefixModule)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Module, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeModule(rec))
	}
	return out, nil
}

func (r *moduleRepository) Find(_ context.Context, id string) (*domain.Module, error) {
	rec, err := getJSON[moduleRecord](r.db, prefixModule+id)
	if err != nil {
		return nil, err
	}
	m := decodeModule(*rec)
	return &m, nil
}

func (r *moduleRepository) Save(_ context.Context, module *domain.Module) error {
	if err := module.Validate(); err != nil {
		return err
	}
	return putJSON(r.db, prefixModule+module.ID, encodeModule(module))
}

func (r *moduleRepository) DeleteByID(_ context.Context, id string) error {
	return deleteKey(r.db, prefixModule+id)
}

// --- workouts ---

type workoutRepository struct {
	db *badger.DB
}

// NewWorkoutRepository returns a badger-backed workout store.
func NewWorkoutRepository(db *badger.DB) repository.WorkoutRepository {
	return &workoutRepository{db: db}
}

func (r *workoutRepository) LoadAll(_ context.Context) ([]domain.Workout, error) {
	recs, err := listJSON[workoutRecord](r.db, prefixWorkout)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Workout, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeWorkout(rec))
	}
	return out, nil
}

func (r *workoutRepository) Find(_ context.Context, id string) (*domain.Workout, error) {
	rec, err := getJSON[workoutRecord](r.db, prefixWorkout+id)
	if err != nil {
		return nil, err
	}
	w := decodeWorkout(*rec)
	return &w, nil
}

func (r *workoutRepository) Save(_ context.Context, workout *domain.Workout) error {
	if err := workout.Validate(); err != nil {
		return err
	}
	return putJSON(r.db, prefixWorkout+workout.ID, encodeWorkout(workout))
}

func (r *workoutRepository) DeleteByID(_ context.Context, id string) error {
	return deleteKey(r.db, prefixWorkout+id)
}

// --- programs ---

type programRepository struct {
	db *badger.DB
}

// NewProgramRepository returns a badger-backed program store. Programs
// carry no set-grain metrics, so they persist as-is without the sentinel
// codec.
func NewProgramRepository(db *badger.DB) repository.ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) LoadAll(_ context.Context) ([]domain.Program, error) {
	recs, err := listJSON[domain.Program](r.db, prefixProgram)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *programRepository) Find(_ context.Context, id string) (*domain.Program, error) {
	return getJSON[domain.Program](r.db, prefixProgram+id)
}

func (r *programRepository) Save(_ context.Context, program *domain.Program) error {
	return putJSON(r.db, prefixProgram+program.ID, program)
}

func (r *programRepository) DeleteByID(_ context.Context, id string) error {
	return deleteKey(r.db, prefixProgram+id)
}

// --- sessions ---

type sessionRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewSessionRepository returns a badger-backed session store.
func NewSessionRepository(db *badger.DB) repository.SessionRepository {
	return &sessionRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *sessionRepository) LoadAll(_ context.Context) ([]domain.Session, error) {
	return r.loadSorted()
}

func (r *sessionRepository) loadSorted() ([]domain.Session, error) {
	recs, err := listJSON[sessionRecord](r.db, prefixSession)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeSession(rec))
	}
	// Newest first; history consumers rely on this ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *sessionRepository) Find(_ context.Context, id string) (*domain.Session, error) {
	rec, err := getJSON[sessionRecord](r.db, prefixSession+id)
	if err != nil {
		return nil, err
	}
	s := decodeSession(*rec)
	return &s, nil
}

func (r *sessionRepository) Save(_ context.Context, session *domain.Session) error {
	return putJSON(r.db, prefixSession+session.ID, encodeSession(session))
}

func (r *sessionRepository) DeleteByID(_ context.Context, id string) error {
	return deleteKey(r.db, prefixSession+id)
}

func (r *sessionRepository) LoadRecent(_ context.Context, windowDays int) ([]domain.Session, error) {
	all, err := r.loadSorted()
	if err != nil {
		return nil, err
	}
	cutoff := r.now().AddDate(0, 0, -windowDays)
	out := make([]domain.Session, 0, len(all))
	for _, s := range all {
		if s.Date.Before(cutoff) {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *sessionRepository) LoadMore(_ context.Context, before time.Time, limit int) ([]domain.Session, error) {
	all, err := r.loadSorted()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, limit)
	for _, s := range all {
		if !s.Date.Before(before) {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- custom exercises ---

type customExerciseRepository struct {
	db *badger.DB
}

// NewCustomExerciseRepository returns a badger-backed template library
// store.
func NewCustomExerciseRepository(db *badger.DB) repository.CustomExerciseRepository {
	return &customExerciseRepository{db: db}
}

func (r *customExerciseRepository) LoadAll(_ context.Context) ([]domain.CustomExercise, error) {
	return listJSON[domain.CustomExercise](r.db, prefixExercise)
}

func (r *customExerciseRepository) Find(_ context.Context, id string) (*domain.CustomExercise, error) {
	return getJSON[domain.CustomExercise](r.db, prefixExercise+id)
}

func (r *customExerciseRepository) Save(_ context.Context, exercise *domain.CustomExercise) error {
	return putJSON(r.db, prefixExercise+exercise.ID, exercise)
}

func (r *customExerciseRepository) DeleteByID(_ context.Context, id string) error {
	return deleteKey(r.db, prefixExercise+id)
}

// --- progression decisions ---

type decisionRepository struct {
	db *badger.DB
}

// NewDecisionRepository returns a badger-backed decision audit log.
func NewDecisionRepository(db *badger.DB) repository.DecisionRepository {
	return &decisionRepository{db: db}
}

func (r *decisionRepository) LoadAll(_ context.Context) ([]domain.ProgressionDecision, error) {
	return listJSON[domain.ProgressionDecision](r.db, prefixDecision)
}

func (r *decisionRepository) Save(_ context.Context, decision *domain.ProgressionDecision) error {
	return putJSON(r.db, prefixDecision+decision.ID, decision)
}

// --- deletion records ---

type deletionRecordRepository struct {
	db *badger.DB
}

// NewDeletionRecordRepository returns a badger-backed tombstone journal.
func NewDeletionRecordRepository(db *badger.DB) repository.DeletionRecordRepository {
	return &deletionRecordRepository{db: db}
}

func (r *deletionRecordRepository) LoadAll(_ context.Context) ([]domain.DeletionRecord, error) {
	return listJSON[domain.DeletionRecord](r.db, prefixDeletion)
}

func (r *deletionRecordRepository) Save(_ context.Context, record *domain.DeletionRecord) error {
	return putJSON(r.db, prefixDeletion+record.Key(), record)
}

func (r *deletionRecordRepository) DeleteByKey(_ context.Context, key string) error {
	return deleteKey(r.db, prefixDeletion+key)
}
