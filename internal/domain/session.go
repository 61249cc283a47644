package domain

import "time"

// SetData is one performed (or planned) set. Weight/Reps are what the
// user intends before completion and what they actually did once
// Completed is set. All optional metrics are pointers; the non-positive
// sentinel encoding exists only in the storage adapter.
type SetData struct {
	SetNumber   int      `bson:"setNumber" json:"setNumber"`
	Weight      *float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	Reps        *int     `bson:"reps,omitempty" json:"reps,omitempty"`
	Completed   bool     `bson:"completed" json:"completed"`
	Duration    *int     `bson:"duration,omitempty" json:"duration,omitempty"`
	Distance    *float64 `bson:"distance,omitempty" json:"distance,omitempty"`
	RPE         *float64 `bson:"rpe,omitempty" json:"rpe,omitempty"`
	RestSeconds *int     `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	HeartRate   *int     `bson:"heartRate,omitempty" json:"heartRate,omitempty"`
	Incline     *float64 `bson:"incline,omitempty" json:"incline,omitempty"`
	Speed       *float64 `bson:"speed,omitempty" json:"speed,omitempty"`
	Calories    *int     `bson:"calories,omitempty" json:"calories,omitempty"`
	IsWarmup    bool     `bson:"isWarmup" json:"isWarmup"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CompletedSetGroup mirrors a SetGroup inside a recorded session.
type CompletedSetGroup struct {
	ID    string    `bson:"_id" json:"id"`
	Order int       `bson:"order" json:"order"`
	Sets  []SetData `bson:"sets" json:"sets"`
}

// SessionExercise is one exercise as performed within a session.
// SourceExerciseInstanceID links back to the ExerciseInstance it was
// generated from; the adaptive progression policy needs it to look up
// per-instance rules and state.
type SessionExercise struct {
	ID                       string                 `bson:"_id" json:"id"`
	Name                     string                 `bson:"name" json:"name"`
	ExerciseType             ExerciseType           `bson:"exerciseType" json:"exerciseType"`
	Order                    int                    `bson:"order" json:"order"`
	SourceExerciseInstanceID string                 `bson:"sourceExerciseInstanceId,omitempty" json:"sourceExerciseInstanceId,omitempty"`
	SetGroups                []CompletedSetGroup    `bson:"setGroups" json:"setGroups"`
	ProgressionRecommendation *ProgressionOutcome   `bson:"progressionRecommendation,omitempty" json:"progressionRecommendation,omitempty"`
	ProgressionSuggestion     *ProgressionSuggestion `bson:"progressionSuggestion,omitempty" json:"progressionSuggestion,omitempty"`
}

// CompletedModule mirrors a Module inside a recorded session.
type CompletedModule struct {
	ID        string            `bson:"_id" json:"id"`
	ModuleID  string            `bson:"moduleId,omitempty" json:"moduleId,omitempty"`
	Name      string            `bson:"name" json:"name"`
	Order     int               `bson:"order" json:"order"`
	Exercises []SessionExercise `bson:"exercises" json:"exercises"`
}

// Session is an immutable historical record of a performed workout.
// Sessions are never merged field-by-field during sync; a remote session
// is only added when no local session with the same id exists.
type Session struct {
	ID         string            `bson:"_id" json:"id"`
	WorkoutID  string            `bson:"workoutId" json:"workoutId"`
	Date       time.Time         `bson:"date" json:"date"`
	Modules    []CompletedModule `bson:"modules" json:"modules"`
	Notes      string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time         `bson:"updatedAt" json:"updatedAt"`
	SyncStatus SyncStatus        `bson:"syncStatus" json:"syncStatus"`
}

// Exercises flattens the session's module tree into a single ordered list.
func (s *Session) Exercises() []SessionExercise {
	var out []SessionExercise
	for _, m := range s.Modules {
		out = append(out, m.Exercises...)
	}
	return out
}
