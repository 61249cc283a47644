package domain

import "time"

// ExerciseType classifies how an exercise is measured.
type ExerciseType string

const (
	ExerciseTypeStrength    ExerciseType = "strength"
	ExerciseTypeCardio      ExerciseType = "cardio"
	ExerciseTypeMobility    ExerciseType = "mobility"
	ExerciseTypeBodyweight  ExerciseType = "bodyweight"
	ExerciseTypeIsometric   ExerciseType = "isometric"
)

// MetricType names a per-set metric an exercise tracks.
type MetricType string

const (
	MetricWeight   MetricType = "weight"
	MetricReps     MetricType = "reps"
	MetricDuration MetricType = "duration"
	MetricDistance MetricType = "distance"
	MetricRPE      MetricType = "rpe"
)

// CustomExercise is a user-created entry in the exercise template library.
// ExerciseInstances reference it by id (lookup only, no ownership).
type CustomExercise struct {
	ID           string       `bson:"_id" json:"id"`
	Name         string       `bson:"name" json:"name"`
	ExerciseType ExerciseType `bson:"exerciseType" json:"exerciseType"`
	Metrics      []MetricType `bson:"metrics" json:"metrics"`
	Notes        string       `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt" json:"updatedAt"`
	SyncStatus   SyncStatus   `bson:"syncStatus" json:"syncStatus"`
}

// SetGroup is a block of planned sets within an ExerciseInstance.
// Optional numeric targets use pointers; "no target" is nil, never a
// sentinel value, at this layer. Note targetWeight may legitimately be a
// pointer to 0 for bodyweight movements — the storage codec cannot
// distinguish that from "unset" (see repository/badger).
type SetGroup struct {
	ID             string   `bson:"_id" json:"id"`
	Order          int      `bson:"order" json:"order"`
	Sets           int      `bson:"sets" json:"sets"`
	TargetReps     *int     `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	TargetWeight   *float64 `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"`
	TargetDuration *int     `bson:"targetDuration,omitempty" json:"targetDuration,omitempty"`
	TargetDistance *float64 `bson:"targetDistance,omitempty" json:"targetDistance,omitempty"`
	RestSeconds    *int     `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
}

// ExerciseInstance is one exercise slot inside a Module (or a workout's
// standalone list). It either inherits name/type/metrics from a template
// via TemplateID or carries them directly. Instances are the unit of
// child-grain last-write-wins during merge, so each carries its own
// UpdatedAt.
type ExerciseInstance struct {
	ID              string       `bson:"_id" json:"id"`
	TemplateID      string       `bson:"templateId,omitempty" json:"templateId,omitempty"`
	Name            string       `bson:"name" json:"name"`
	ExerciseType    ExerciseType `bson:"exerciseType" json:"exerciseType"`
	Metrics         []MetricType `bson:"metrics,omitempty" json:"metrics,omitempty"`
	SetGroups       []SetGroup   `bson:"setGroups" json:"setGroups"`
	SupersetGroupID string       `bson:"supersetGroupId,omitempty" json:"supersetGroupId,omitempty"`
	Order           int          `bson:"order" json:"order"`
	Notes           string       `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// Validate rejects instances that would corrupt merge bookkeeping.
func (e *ExerciseInstance) Validate() error {
	if e.Name == "" {
		return validationErr("exercise.name", "must not be empty")
	}
	if e.Order < 0 {
		return validationErr("exercise.order", "must not be negative")
	}
	return nil
}
