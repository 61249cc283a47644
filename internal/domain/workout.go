package domain

import "time"

// ModuleReference links a workout to a module it includes. The reference
// carries its own id so reordering and removal survive merges; the module
// itself is not owned.
type ModuleReference struct {
	ID         string `bson:"_id" json:"id"`
	ModuleID   string `bson:"moduleId" json:"moduleId"`
	Order      int    `bson:"order" json:"order"`
	IsRequired bool   `bson:"isRequired" json:"isRequired"`
}

// Workout is a plannable unit: an ordered list of module references plus
// any standalone exercises not routed through a module.
type Workout struct {
	ID                  string             `bson:"_id" json:"id"`
	Name                string             `bson:"name" json:"name"`
	Modules             []ModuleReference  `bson:"modules" json:"modules"`
	StandaloneExercises []ExerciseInstance `bson:"standaloneExercises,omitempty" json:"standaloneExercises,omitempty"`
	Notes               string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Archived            bool               `bson:"archived" json:"archived"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
	SyncStatus          SyncStatus         `bson:"syncStatus" json:"syncStatus"`
}

// NewWorkout constructs a valid empty workout.
func NewWorkout(name string) (*Workout, error) {
	if name == "" {
		return nil, validationErr("workout.name", "must not be empty")
	}
	now := time.Now().UTC()
	return &Workout{
		ID:         NewID(),
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: SyncStatusPending,
	}, nil
}

// Validate checks the workout and its standalone exercises.
func (w *Workout) Validate() error {
	if w.Name == "" {
		return validationErr("workout.name", "must not be empty")
	}
	for _, ref := range w.Modules {
		if ref.ModuleID == "" {
			return validationErr("workout.modules.moduleId", "must not be empty")
		}
		if ref.Order < 0 {
			return validationErr("workout.modules.order", "must not be negative")
		}
	}
	for i := range w.StandaloneExercises {
		if err := w.StandaloneExercises[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
