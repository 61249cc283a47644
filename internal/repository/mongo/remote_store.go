package mongo

import (
	"context"
	"fmt"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the cloud document store.
const (
	modulesCollection           = "modules"
	workoutsCollection          = "workouts"
	sessionsCollection          = "sessions"
	programsCollection          = "programs"
	exercisesCollection         = "custom_exercises"
	scheduledWorkoutsCollection = "scheduled_workouts"
	profilesCollection          = "profiles"
	deletionRecordsCollection   = "deletion_records"
)

// remoteStore implements repository.RemoteStore on MongoDB. Every
// document carries a userId field; the store is constructed scoped to
// one user and all filters include that scope. Authentication happens
// upstream — this adapter only shapes queries.
type remoteStore struct {
	db     *mongo.Database
	userID string
}

// NewRemoteStore creates a cloud store adapter scoped to one user.
func NewRemoteStore(db *mongo.Database, userID string) repository.RemoteStore {
	return &remoteStore{db: db, userID: userID}
}

// userDoc wraps an entity with the owning user for multi-tenant storage.
type userDoc[T any] struct {
	UserID string `bson:"userId"`
	Doc    T      `bson:"doc"`
}

func saveDoc[T any](ctx context.Context, coll *mongo.Collection, userID, id string, entity T) error {
	filter := bson.M{"_id": id, "userId": userID}
	update := bson.M{"$set": bson.M{"userId": userID, "doc": entity}}
	opts := options.Update().SetUpsert(true)
	_, err := coll.UpdateOne(ctx, filter, update, opts)
	return err
}

func fetchDocs[T any](ctx context.Context, coll *mongo.Collection, userID string) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var wrapped []userDoc[T]
	if err = cursor.All(ctx, &wrapped); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(wrapped))
	for _, w := range wrapped {
		out = append(out, w.Doc)
	}
	return out, nil
}

func (s *remoteStore) FetchAllUserData(ctx context.Context) (*repository.RemoteSnapshot, error) {
	snapshot := &repository.RemoteSnapshot{}
	var err error

	if snapshot.Modules, err = fetchDocs[domain.Module](ctx, s.db.Collection(modulesCollection), s.userID); err != nil {
		return nil, fmt.Errorf("fetching modules: %w", err)
	}
	if snapshot.Workouts, err = fetchDocs[domain.Workout](ctx, s.db.Collection(workoutsCollection), s.userID); err != nil {
		return nil, fmt.Errorf("fetching workouts: %w", err)
	}
	if snapshot.Sessions, err = fetchDocs[domain.Session](ctx, s.db.Collection(sessionsCollection), s.userID); err != nil {
		return nil, fmt.Errorf("fetching sessions: %w", err)
	}
	if snapshot.Programs, err = fetchDocs[domain.Program](ctx, s.db.Collection(programsCollection), s.userID); err != nil {
		return nil, fmt.Errorf("fetching programs: %w", err)
	}
	if snapshot.Exercises, err = fetchDocs[domain.CustomExercise](ctx, s.db.Collection(exercisesCollection), s.userID); err != nil {
		return nil, fmt.Errorf("fetching custom exercises: %w", err)
	}
	if snapshot.ScheduledWorkouts, err = fetchDocs[domain.ScheduledWorkout](ctx, s.db.Collection(scheduledWorkoutsCollection), s.userID); err != nil {
		return nil, fmt.Errorf("fetching scheduled workouts: %w", err)
	}

	profiles, err := fetchDocs[domain.UserProfile](ctx, s.db.Collection(profilesCollection), s.userID)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	if len(profiles) > 0 {
		snapshot.Profile = &profiles[0]
	}
	return snapshot, nil
}

func (s *remoteStore) SaveModule(ctx context.Context, module *domain.Module) error {
	return saveDoc(ctx, s.db.Collection(modulesCollection), s.userID, module.ID, module)
}

func (s *remoteStore) SaveWorkout(ctx context.Context, workout *domain.Workout) error {
	return saveDoc(ctx, s.db.Collection(workoutsCollection), s.userID, workout.ID, workout)
}

func (s *remoteStore) SaveSession(ctx context.Context, session *domain.Session) error {
	return saveDoc(ctx, s.db.Collection(sessionsCollection), s.userID, session.ID, session)
}

func (s *remoteStore) SaveProgram(ctx context.Context, program *domain.Program) error {
	return saveDoc(ctx, s.db.Collection(programsCollection), s.userID, program.ID, program)
}

func (s *remoteStore) SaveCustomExercise(ctx context.Context, exercise *domain.CustomExercise) error {
	return saveDoc(ctx, s.db.Collection(exercisesCollection), s.userID, exercise.ID, exercise)
}

func (s *remoteStore) SaveScheduledWorkout(ctx context.Context, scheduled *domain.ScheduledWorkout) error {
	return saveDoc(ctx, s.db.Collection(scheduledWorkoutsCollection), s.userID, scheduled.ID, scheduled)
}

func (s *remoteStore) SaveUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	return saveDoc(ctx, s.db.Collection(profilesCollection), s.userID, profile.ID, profile)
}

// Delete removes one entity document. The entity type maps onto its
// collection with an exhaustive switch over the closed EntityType set.
func (s *remoteStore) Delete(ctx context.Context, entityType domain.EntityType, id string) error {
	coll, err := s.collectionFor(entityType)
	if err != nil {
		return err
	}
	_, err = coll.DeleteOne(ctx, bson.M{"_id": id, "userId": s.userID})
	return err
}

func (s *remoteStore) collectionFor(entityType domain.EntityType) (*mongo.Collection, error) {
	switch entityType {
	case domain.EntityTypeModule:
		return s.db.Collection(modulesCollection), nil
	case domain.EntityTypeWorkout:
		return s.db.Collection(workoutsCollection), nil
	case domain.EntityTypeProgram:
		return s.db.Collection(programsCollection), nil
	case domain.EntityTypeSession:
		return s.db.Collection(sessionsCollection), nil
	case domain.EntityTypeScheduledWorkout:
		return s.db.Collection(scheduledWorkoutsCollection), nil
	case domain.EntityTypeCustomExercise:
		return s.db.Collection(exercisesCollection), nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}

func (s *remoteStore) FetchDeletionRecords(ctx context.Context) ([]domain.DeletionRecord, error) {
	return fetchDocs[domain.DeletionRecord](ctx, s.db.Collection(deletionRecordsCollection), s.userID)
}

func (s *remoteStore) SaveDeletionRecords(ctx context.Context, records []domain.DeletionRecord) error {
	coll := s.db.Collection(deletionRecordsCollection)
	for _, rec := range records {
		if err := saveDoc(ctx, coll, s.userID, rec.Key(), rec); err != nil {
			return fmt.Errorf("saving deletion record %s: %w", rec.Key(), err)
		}
	}
	return nil
}

func (s *remoteStore) CleanupOldDeletionRecords(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.Collection(deletionRecordsCollection).DeleteMany(ctx, bson.M{
		"userId":        s.userID,
		"doc.deletedAt": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the per-user indexes. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	collections := []string{
		modulesCollection, workoutsCollection, sessionsCollection,
		programsCollection, exercisesCollection, scheduledWorkoutsCollection,
		profilesCollection, deletionRecordsCollection,
	}
	for _, name := range collections {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		})
		if err != nil {
			return fmt.Errorf("creating index on %s: %w", name, err)
		}
	}
	_, err := db.Collection(deletionRecordsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "doc.deletedAt", Value: 1}},
		Options: options.Index(),
	})
	if err != nil {
		return fmt.Errorf("creating deletion record index: %w", err)
	}
	return nil
}
