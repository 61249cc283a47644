package domain

import "time"

// ProgressionPolicy selects how next-session suggestions are computed.
type ProgressionPolicy string

const (
	ProgressionPolicyFixed    ProgressionPolicy = "fixed"
	ProgressionPolicyAdaptive ProgressionPolicy = "adaptive"
)

// ProgressionStrategy refines a rule's behaviour.
type ProgressionStrategy string

const (
	// StrategyLinear bumps weight every session the rule fires.
	StrategyLinear ProgressionStrategy = "linear"
	// StrategyDoubleProgression holds weight until the rep target has been
	// met at the current weight, then bumps.
	StrategyDoubleProgression ProgressionStrategy = "doubleProgression"
)

// ProgressionOutcome labels what the engine decided (or inferred) for an
// exercise between two sessions.
type ProgressionOutcome string

const (
	OutcomeProgress ProgressionOutcome = "progress"
	OutcomeStay     ProgressionOutcome = "stay"
	OutcomeRegress  ProgressionOutcome = "regress"
)

// ProgressionRule parameterises the fixed-rule formula.
type ProgressionRule struct {
	PercentageIncrease float64             `bson:"percentageIncrease" json:"percentageIncrease"`
	RoundingIncrement  float64             `bson:"roundingIncrement" json:"roundingIncrement"`
	MinimumIncrease    float64             `bson:"minimumIncrease" json:"minimumIncrease"`
	Strategy           ProgressionStrategy `bson:"strategy" json:"strategy"`
}

// DefaultProgressionRule is the rule applied when a program enables
// progression without configuring one.
func DefaultProgressionRule() ProgressionRule {
	return ProgressionRule{
		PercentageIncrease: 2.5,
		RoundingIncrement:  2.5,
		MinimumIncrease:    2.5,
		Strategy:           StrategyLinear,
	}
}

// ProgressionSuggestion is the engine's computed prescription for the
// next session of one exercise. It is persisted onto the SessionExercise
// so the outcome can be inferred after the session is completed.
type ProgressionSuggestion struct {
	ExerciseID        string             `bson:"exerciseId" json:"exerciseId"`
	ExerciseName      string             `bson:"exerciseName" json:"exerciseName"`
	BaseValue         float64            `bson:"baseValue" json:"baseValue"`
	SuggestedValue    float64            `bson:"suggestedValue" json:"suggestedValue"`
	TargetReps        *int               `bson:"targetReps,omitempty" json:"targetReps,omitempty"`
	Outcome           ProgressionOutcome `bson:"outcome" json:"outcome"`
	IsOutcomeAdjusted bool               `bson:"isOutcomeAdjusted" json:"isOutcomeAdjusted"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// RecentOutcomeCapacity bounds ExerciseProgressionState history.
const RecentOutcomeCapacity = 10

// ExerciseProgressionState is the adaptive policy's per-instance memory.
// Owned by the Program, keyed by ExerciseInstance id.
type ExerciseProgressionState struct {
	SuccessStreak        int                  `bson:"successStreak" json:"successStreak"`
	FailStreak           int                  `bson:"failStreak" json:"failStreak"`
	Confidence           float64              `bson:"confidence" json:"confidence"`
	RecentOutcomes       []ProgressionOutcome `bson:"recentOutcomes,omitempty" json:"recentOutcomes,omitempty"`
	LastPrescribedWeight *float64             `bson:"lastPrescribedWeight,omitempty" json:"lastPrescribedWeight,omitempty"`
	LastPrescribedReps   *int                 `bson:"lastPrescribedReps,omitempty" json:"lastPrescribedReps,omitempty"`
	LastUpdatedAt        time.Time            `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
}

// ProgramWorkoutSlot schedules one workout within a program. Exactly one
// of the rule fields is normally set: a repeating weekday, a specific
// week number, or an offset in days from the program start.
type ProgramWorkoutSlot struct {
	ID         string `bson:"_id" json:"id"`
	WorkoutID  string `bson:"workoutId" json:"workoutId"`
	Order      int    `bson:"order" json:"order"`
	DayOfWeek  *int   `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"`
	WeekNumber *int   `bson:"weekNumber,omitempty" json:"weekNumber,omitempty"`
	DayOffset  *int   `bson:"dayOffset,omitempty" json:"dayOffset,omitempty"`
}

// Program is a multi-week training plan plus its progression
// configuration. Programs are single-writer configuration objects in
// practice and are replaced wholesale (no child merge) during sync.
type Program struct {
	ID            string               `bson:"_id" json:"id"`
	Name          string               `bson:"name" json:"name"`
	DurationWeeks int                  `bson:"durationWeeks" json:"durationWeeks"`
	StartDate     *time.Time           `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time           `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive      bool                 `bson:"isActive" json:"isActive"`
	Slots         []ProgramWorkoutSlot `bson:"slots" json:"slots"`

	ProgressionEnabled          bool                                `bson:"progressionEnabled" json:"progressionEnabled"`
	ProgressionPolicy           ProgressionPolicy                   `bson:"progressionPolicy" json:"progressionPolicy"`
	DefaultRule                 ProgressionRule                     `bson:"defaultRule" json:"defaultRule"`
	ExerciseRules               map[string]ProgressionRule          `bson:"exerciseRules,omitempty" json:"exerciseRules,omitempty"`
	ProgressionEnabledExercises map[string]bool                     `bson:"progressionEnabledExercises,omitempty" json:"progressionEnabledExercises,omitempty"`
	ExerciseStates              map[string]ExerciseProgressionState `bson:"exerciseStates,omitempty" json:"exerciseStates,omitempty"`

	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
	SyncStatus SyncStatus `bson:"syncStatus" json:"syncStatus"`
}

// RuleFor resolves the progression rule for an exercise instance,
// falling back to the program default.
func (p *Program) RuleFor(instanceID string) ProgressionRule {
	if rule, ok := p.ExerciseRules[instanceID]; ok {
		return rule
	}
	return p.DefaultRule
}

// StateFor returns the adaptive state for an instance, zero-valued when
// the instance has no history yet.
func (p *Program) StateFor(instanceID string) ExerciseProgressionState {
	return p.ExerciseStates[instanceID]
}

// SetState stores updated adaptive state back onto the program.
func (p *Program) SetState(instanceID string, state ExerciseProgressionState) {
	if p.ExerciseStates == nil {
		p.ExerciseStates = make(map[string]ExerciseProgressionState)
	}
	p.ExerciseStates[instanceID] = state
}
