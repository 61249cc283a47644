package domain

import (
	"sort"
	"time"
)

// Three-way-ish merge of two divergent copies of the same aggregate.
// Child collections (module exercises, workout standalone exercises) are
// reconciled by child id with last-write-wins on each child's own
// UpdatedAt, so concurrent edits to different children on different
// devices both survive. Top-level scalar fields travel together: the
// newer parent's scalars win wholesale.
//
// Known asymmetry: a child deleted locally but still present (and edited)
// in the cloud copy is re-added, because tombstones exist only at the
// aggregate grain. Last-edit-wins-over-delete is the intended policy for
// nested children.
//
// Merge never fails. A child with an empty id cannot participate in
// matching and is treated as always-new: it is appended to the result.

// MergeModule merges a local and a remote copy of the same module.
// Neither input is mutated. Child-set and child contents are symmetric in
// (local, remote); only the scalar tie-break depends on which parent is
// newer.
func MergeModule(local, remote *Module) *Module {
	merged := &Module{
		ID:         local.ID,
		CreatedAt:  local.CreatedAt,
		UpdatedAt:  laterOf(local.UpdatedAt, remote.UpdatedAt),
		SyncStatus: SyncStatusPending,
	}
	// Scalars travel together from the newer parent; ties keep local.
	src := local
	if remote.UpdatedAt.After(local.UpdatedAt) {
		src = remote
	}
	merged.Name = src.Name
	merged.Type = src.Type
	merged.Notes = src.Notes
	merged.Exercises = mergeExercises(local.Exercises, remote.Exercises)
	return merged
}

// MergeWorkout merges a local and a remote copy of the same workout.
// Standalone exercises merge at child grain; the module-reference list is
// a scalar-like ordering decision and follows the newer parent.
func MergeWorkout(local, remote *Workout) *Workout {
	merged := &Workout{
		ID:         local.ID,
		CreatedAt:  local.CreatedAt,
		UpdatedAt:  laterOf(local.UpdatedAt, remote.UpdatedAt),
		SyncStatus: SyncStatusPending,
	}
	src := local
	if remote.UpdatedAt.After(local.UpdatedAt) {
		src = remote
	}
	merged.Name = src.Name
	merged.Notes = src.Notes
	merged.Archived = src.Archived
	merged.Modules = append([]ModuleReference(nil), src.Modules...)
	merged.StandaloneExercises = mergeExercises(local.StandaloneExercises, remote.StandaloneExercises)
	return merged
}

// mergeExercises reconciles two child lists by id.
//
//  1. Same id on both sides: the copy with the greater UpdatedAt wins.
//  2. Local-only children are kept unchanged.
//  3. Remote-only children are added (resurrection asymmetry, see above).
//
// The explicit Order field, not list position, encodes ordering; the
// merged list is re-sorted by it so both devices converge on the same
// sequence.
func mergeExercises(local, remote []ExerciseInstance) []ExerciseInstance {
	remoteByID := make(map[string]ExerciseInstance, len(remote))
	var remoteAnonymous []ExerciseInstance
	for _, r := range remote {
		if r.ID == "" {
			remoteAnonymous = append(remoteAnonymous, r)
			continue
		}
		remoteByID[r.ID] = r
	}

	merged := make([]ExerciseInstance, 0, len(local)+len(remote))
	seen := make(map[string]bool, len(local))
	for _, l := range local {
		if l.ID == "" {
			merged = append(merged, l)
			continue
		}
		seen[l.ID] = true
		if r, ok := remoteByID[l.ID]; ok && r.UpdatedAt.After(l.UpdatedAt) {
			merged = append(merged, r)
		} else {
			merged = append(merged, l)
		}
	}
	for _, r := range remote {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		merged = append(merged, r)
	}
	merged = append(merged, remoteAnonymous...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Order < merged[j].Order
	})
	return merged
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
