package badger

import (
	"context"
	"testing"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *testStores {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &testStores{
		modules:  NewModuleRepository(db),
		sessions: NewSessionRepository(db),
	}
}

type testStores struct {
	modules  repository.ModuleRepository
	sessions repository.SessionRepository
}

func intP(v int) *int          { return &v }
func floatP(v float64) *float64 { return &v }

func TestModuleRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	mod, err := domain.NewModule("Push Day", domain.ModuleTypeStrength)
	require.NoError(t, err)
	mod.Exercises = []domain.ExerciseInstance{{
		ID:           domain.NewID(),
		Name:         "Bench Press",
		ExerciseType: domain.ExerciseTypeStrength,
		SetGroups: []domain.SetGroup{{
			ID:           domain.NewID(),
			Sets:         3,
			TargetReps:   intP(8),
			TargetWeight: floatP(100),
		}},
	}}

	require.NoError(t, s.modules.Save(ctx, mod))

	got, err := s.modules.Find(ctx, mod.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises, 1)
	require.Len(t, got.Exercises[0].SetGroups, 1)
	assert.Equal(t, 8, *got.Exercises[0].SetGroups[0].TargetReps)
	assert.Equal(t, 100.0, *got.Exercises[0].SetGroups[0].TargetWeight)
	assert.False(t, mod.NeedsSync(got))

	require.NoError(t, s.modules.DeleteByID(ctx, mod.ID))
	_, err = s.modules.Find(ctx, mod.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSentinelEncodingAtBoundary(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	mod, err := domain.NewModule("Legs", domain.ModuleTypeStrength)
	require.NoError(t, err)
	mod.Exercises = []domain.ExerciseInstance{{
		ID:   domain.NewID(),
		Name: "Squat",
		SetGroups: []domain.SetGroup{{
			ID:   domain.NewID(),
			Sets: 5,
			// No targets set at all.
		}},
	}}
	require.NoError(t, s.modules.Save(ctx, mod))

	got, err := s.modules.Find(ctx, mod.ID)
	require.NoError(t, err)
	sg := got.Exercises[0].SetGroups[0]
	assert.Nil(t, sg.TargetReps)
	assert.Nil(t, sg.TargetWeight)
	assert.Nil(t, sg.TargetDuration)
	assert.Nil(t, sg.RestSeconds)
}

func TestSentinelZeroWeightDecodesAsUnset(t *testing.T) {
	// Documented caveat: a target weight of exactly 0 (bodyweight) is
	// indistinguishable from "unset" at the storage edge and comes back
	// as nil.
	s := openTestDB(t)
	ctx := context.Background()

	mod, err := domain.NewModule("Calisthenics", domain.ModuleTypeStrength)
	require.NoError(t, err)
	mod.Exercises = []domain.ExerciseInstance{{
		ID:   domain.NewID(),
		Name: "Pull Up",
		SetGroups: []domain.SetGroup{{
			ID:           domain.NewID(),
			Sets:         3,
			TargetWeight: floatP(0),
		}},
	}}
	require.NoError(t, s.modules.Save(ctx, mod))

	got, err := s.modules.Find(ctx, mod.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Exercises[0].SetGroups[0].TargetWeight)
}

func TestSessionSetDataSentinels(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	rec := domain.OutcomeProgress
	session := &domain.Session{
		ID:        domain.NewID(),
		WorkoutID: "w-1",
		Date:      time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		Modules: []domain.CompletedModule{{
			ID:   domain.NewID(),
			Name: "Push",
			Exercises: []domain.SessionExercise{{
				ID:                        domain.NewID(),
				Name:                      "Bench Press",
				ExerciseType:              domain.ExerciseTypeStrength,
				ProgressionRecommendation: &rec,
				SetGroups: []domain.CompletedSetGroup{{
					ID: domain.NewID(),
					Sets: []domain.SetData{
						{SetNumber: 1, Weight: floatP(100), Reps: intP(8), Completed: true, RPE: floatP(7.5)},
						{SetNumber: 2, Completed: false},
					},
				}},
			}},
		}},
	}
	require.NoError(t, s.sessions.Save(ctx, session))

	got, err := s.sessions.Find(ctx, session.ID)
	require.NoError(t, err)
	sets := got.Modules[0].Exercises[0].SetGroups[0].Sets
	require.Len(t, sets, 2)
	assert.Equal(t, 100.0, *sets[0].Weight)
	assert.Equal(t, 7.5, *sets[0].RPE)
	assert.Nil(t, sets[1].Weight)
	assert.Nil(t, sets[1].Reps)
	require.NotNil(t, got.Modules[0].Exercises[0].ProgressionRecommendation)
	assert.Equal(t, domain.OutcomeProgress, *got.Modules[0].Exercises[0].ProgressionRecommendation)
}

func TestSessionPagination(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		session := &domain.Session{
			ID:        domain.NewID(),
			WorkoutID: "w-1",
			Date:      now.AddDate(0, 0, -i*10),
		}
		require.NoError(t, s.sessions.Save(ctx, session))
	}

	recent, err := s.sessions.LoadRecent(ctx, 15)
	require.NoError(t, err)
	assert.Len(t, recent, 2) // day 0 and day -10

	more, err := s.sessions.LoadMore(ctx, now.AddDate(0, 0, -15), 2)
	require.NoError(t, err)
	require.Len(t, more, 2)
	assert.True(t, more[0].Date.After(more[1].Date))
}

func TestLoadRecentUsesInjectedClock(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ref := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &sessionRepository{db: db, now: func() time.Time { return ref }}
	ctx := context.Background()

	for _, offset := range []int{0, -10, -20} {
		session := &domain.Session{
			ID:        domain.NewID(),
			WorkoutID: "w-1",
			Date:      ref.AddDate(0, 0, offset),
		}
		require.NoError(t, repo.Save(ctx, session))
	}

	recent, err := repo.LoadRecent(ctx, 15)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ref, recent[0].Date)
}
