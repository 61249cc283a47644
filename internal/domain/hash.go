package domain

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
	"time"
)

// Content hashing gives a cheap structural fingerprint of an entity so
// the sync orchestrator can skip redundant local writes and cloud pushes
// after a merge that turned out to be a no-op.
//
// The hash covers semantic content only. UpdatedAt, CreatedAt and
// SyncStatus are sync bookkeeping, not content, and are excluded — two
// structurally identical entities always hash equal no matter when or
// where they were last touched.

type contentHasher struct {
	h interface {
		Write(p []byte) (int, error)
		Sum64() uint64
	}
}

func newContentHasher() *contentHasher {
	return &contentHasher{h: fnv.New64a()}
}

func (c *contentHasher) sum() uint64 { return c.h.Sum64() }

func (c *contentHasher) str(s string) {
	// Length prefix keeps adjacent fields from bleeding into each other.
	c.i64(int64(len(s)))
	c.h.Write([]byte(s))
}

func (c *contentHasher) i64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	c.h.Write(buf[:])
}

func (c *contentHasher) f64(v float64) {
	c.i64(int64(math.Float64bits(v)))
}

func (c *contentHasher) boolean(v bool) {
	if v {
		c.h.Write([]byte{1})
	} else {
		c.h.Write([]byte{0})
	}
}

// Optional fields hash a presence marker first so that nil and zero stay
// distinguishable.
func (c *contentHasher) optInt(v *int) {
	if v == nil {
		c.boolean(false)
		return
	}
	c.boolean(true)
	c.i64(int64(*v))
}

func (c *contentHasher) optFloat(v *float64) {
	if v == nil {
		c.boolean(false)
		return
	}
	c.boolean(true)
	c.f64(*v)
}

func (c *contentHasher) date(t time.Time) {
	c.i64(t.UTC().UnixMilli())
}

func (c *contentHasher) setGroup(g SetGroup) {
	c.str(g.ID)
	c.i64(int64(g.Order))
	c.i64(int64(g.Sets))
	c.optInt(g.TargetReps)
	c.optFloat(g.TargetWeight)
	c.optInt(g.TargetDuration)
	c.optFloat(g.TargetDistance)
	c.optInt(g.RestSeconds)
}

func (c *contentHasher) exercise(e ExerciseInstance) {
	c.str(e.ID)
	c.str(e.TemplateID)
	c.str(e.Name)
	c.str(string(e.ExerciseType))
	c.i64(int64(len(e.Metrics)))
	for _, m := range e.Metrics {
		c.str(string(m))
	}
	c.i64(int64(len(e.SetGroups)))
	for _, g := range e.SetGroups {
		c.setGroup(g)
	}
	c.str(e.SupersetGroupID)
	c.i64(int64(e.Order))
	c.str(e.Notes)
}

// ContentHash returns the structural hash of the module and its ordered
// children.
func (m *Module) ContentHash() uint64 {
	c := newContentHasher()
	c.str(m.ID)
	c.str(m.Name)
	c.str(string(m.Type))
	c.str(m.Notes)
	c.i64(int64(len(m.Exercises)))
	for _, e := range m.Exercises {
		c.exercise(e)
	}
	return c.sum()
}

// NeedsSync reports whether the module's content differs from other's.
func (m *Module) NeedsSync(other *Module) bool {
	return m.ContentHash() != other.ContentHash()
}

// ContentHash returns the structural hash of the workout, its module
// references and its standalone exercises.
func (w *Workout) ContentHash() uint64 {
	c := newContentHasher()
	c.str(w.ID)
	c.str(w.Name)
	c.str(w.Notes)
	c.boolean(w.Archived)
	c.i64(int64(len(w.Modules)))
	for _, ref := range w.Modules {
		c.str(ref.ID)
		c.str(ref.ModuleID)
		c.i64(int64(ref.Order))
		c.boolean(ref.IsRequired)
	}
	c.i64(int64(len(w.StandaloneExercises)))
	for _, e := range w.StandaloneExercises {
		c.exercise(e)
	}
	return c.sum()
}

// NeedsSync reports whether the workout's content differs from other's.
func (w *Workout) NeedsSync(other *Workout) bool {
	return w.ContentHash() != other.ContentHash()
}

// ContentHash returns the structural hash of the program, including its
// progression configuration and per-exercise state. Map-typed fields are
// hashed in sorted key order to keep the hash deterministic.
func (p *Program) ContentHash() uint64 {
	c := newContentHasher()
	c.str(p.ID)
	c.str(p.Name)
	c.i64(int64(p.DurationWeeks))
	if p.StartDate != nil {
		c.boolean(true)
		c.date(*p.StartDate)
	} else {
		c.boolean(false)
	}
	if p.EndDate != nil {
		c.boolean(true)
		c.date(*p.EndDate)
	} else {
		c.boolean(false)
	}
	c.boolean(p.IsActive)
	c.i64(int64(len(p.Slots)))
	for _, s := range p.Slots {
		c.str(s.ID)
		c.str(s.WorkoutID)
		c.i64(int64(s.Order))
		c.optInt(s.DayOfWeek)
		c.optInt(s.WeekNumber)
		c.optInt(s.DayOffset)
	}
	c.boolean(p.ProgressionEnabled)
	c.str(string(p.ProgressionPolicy))
	c.rule(p.DefaultRule)
	for _, k := range sortedKeys(p.ExerciseRules) {
		c.str(k)
		c.rule(p.ExerciseRules[k])
	}
	for _, k := range sortedKeys(p.ProgressionEnabledExercises) {
		c.str(k)
		c.boolean(p.ProgressionEnabledExercises[k])
	}
	for _, k := range sortedKeys(p.ExerciseStates) {
		c.str(k)
		st := p.ExerciseStates[k]
		c.i64(int64(st.SuccessStreak))
		c.i64(int64(st.FailStreak))
		c.f64(st.Confidence)
		c.i64(int64(len(st.RecentOutcomes)))
		for _, o := range st.RecentOutcomes {
			c.str(string(o))
		}
		c.optFloat(st.LastPrescribedWeight)
		c.optInt(st.LastPrescribedReps)
	}
	return c.sum()
}

func (c *contentHasher) rule(r ProgressionRule) {
	c.f64(r.PercentageIncrease)
	c.f64(r.RoundingIncrement)
	c.f64(r.MinimumIncrease)
	c.str(string(r.Strategy))
}

// NeedsSync reports whether the program's content differs from other's.
func (p *Program) NeedsSync(other *Program) bool {
	return p.ContentHash() != other.ContentHash()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
