package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks whether a local copy of an entity still has changes
// that the cloud has not seen.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pendingSync"
	SyncStatusSynced  SyncStatus = "synced"
)

// EntityType identifies the kind of a syncable aggregate. It is a closed
// set: the sync orchestrator dispatches deletions with an exhaustive
// switch over these values.
type EntityType string

const (
	EntityTypeModule           EntityType = "module"
	EntityTypeWorkout          EntityType = "workout"
	EntityTypeProgram          EntityType = "program"
	EntityTypeSession          EntityType = "session"
	EntityTypeScheduledWorkout EntityType = "scheduledWorkout"
	EntityTypeCustomExercise   EntityType = "customExercise"
)

// AllEntityTypes lists every deletable aggregate kind, in the order the
// orchestrator processes them.
var AllEntityTypes = []EntityType{
	EntityTypeModule,
	EntityTypeWorkout,
	EntityTypeProgram,
	EntityTypeSession,
	EntityTypeScheduledWorkout,
	EntityTypeCustomExercise,
}

// NewID returns a fresh opaque entity identifier. Devices generate ids
// offline, so they must be globally unique without coordination.
func NewID() string {
	return uuid.NewString()
}

// Touch advances an updatedAt timestamp, guaranteeing monotonicity even
// when the wall clock has not moved since the previous mutation.
func Touch(current time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(current) {
		return current.Add(time.Millisecond)
	}
	return now
}
