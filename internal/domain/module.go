package domain

import "time"

// ModuleType loosely categorises a module for UI grouping.
type ModuleType string

const (
	ModuleTypeStrength     ModuleType = "strength"
	ModuleTypeConditioning ModuleType = "conditioning"
	ModuleTypeWarmup       ModuleType = "warmup"
	ModuleTypeCooldown     ModuleType = "cooldown"
)

// Module is a reusable block of exercises. Workouts reference modules by
// id; the exercises themselves are owned by the module and are the
// children merged at child grain during sync.
type Module struct {
	ID         string             `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Type       ModuleType         `bson:"type" json:"type"`
	Exercises  []ExerciseInstance `bson:"exercises" json:"exercises"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
	SyncStatus SyncStatus         `bson:"syncStatus" json:"syncStatus"`
}

// NewModule constructs a valid module ready for local persistence.
func NewModule(name string, moduleType ModuleType) (*Module, error) {
	if name == "" {
		return nil, validationErr("module.name", "must not be empty")
	}
	now := time.Now().UTC()
	return &Module{
		ID:         NewID(),
		Name:       name,
		Type:       moduleType,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: SyncStatusPending,
	}, nil
}

// Validate checks the module and all its children.
func (m *Module) Validate() error {
	if m.Name == "" {
		return validationErr("module.name", "must not be empty")
	}
	for i := range m.Exercises {
		if err := m.Exercises[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
