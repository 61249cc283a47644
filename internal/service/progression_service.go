package service

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"alcyxob/fitness-sync/internal/domain"
)

// ProgressionEngine computes weight suggestions for the next session of
// each exercise from session history and a program's progression
// configuration. All computation is pure over its inputs; the engine
// itself only carries a logger.
type ProgressionEngine struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewProgressionEngine creates the suggestion engine.
func NewProgressionEngine(logger *slog.Logger) *ProgressionEngine {
	return &ProgressionEngine{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CalculateSuggestions computes a suggestion per exercise of the session
// being built. Returns an empty map when the program is nil or has
// progression disabled. Per exercise, no entry is produced when the
// exercise is not strength-typed, no prior session for the workout
// contains a same-named exercise, or (adaptive policy) the source
// instance is not in the progression-enabled set.
func (e *ProgressionEngine) CalculateSuggestions(
	currentExercises []domain.SessionExercise,
	workoutID string,
	program *domain.Program,
	sessionHistory []domain.Session,
) map[string]domain.ProgressionSuggestion {
	suggestions := make(map[string]domain.ProgressionSuggestion)
	if program == nil || !program.ProgressionEnabled {
		return suggestions
	}

	history := sortedByDateDesc(sessionHistory)

	for _, exercise := range currentExercises {
		if exercise.ExerciseType != domain.ExerciseTypeStrength {
			continue
		}
		adaptive := program.ProgressionPolicy == domain.ProgressionPolicyAdaptive
		if adaptive && !program.ProgressionEnabledExercises[exercise.SourceExerciseInstanceID] {
			continue
		}

		prior := findLatestMatch(history, workoutID, exercise.Name)
		if prior == nil {
			continue
		}
		baseValue, ok := baselineWeight(*prior)
		if !ok {
			continue
		}

		rule := program.RuleFor(exercise.SourceExerciseInstanceID)
		var suggestion domain.ProgressionSuggestion
		if adaptive {
			state := program.StateFor(exercise.SourceExerciseInstanceID)
			suggestion = e.adaptiveSuggestion(exercise, *prior, baseValue, rule, state)
		} else {
			suggestion = e.fixedSuggestion(exercise, *prior, baseValue, rule)
		}
		suggestion.ExerciseID = exercise.ID
		suggestion.ExerciseName = exercise.Name
		suggestion.BaseValue = baseValue
		suggestion.TargetReps = plannedTargetReps(exercise)
		suggestion.CreatedAt = e.now()
		suggestions[exercise.ID] = suggestion
	}
	return suggestions
}

// fixedSuggestion applies the configured rule unconditionally, except
// that doubleProgression holds the weight until the rep ceiling has been
// met at the current weight.
func (e *ProgressionEngine) fixedSuggestion(
	current domain.SessionExercise,
	prior domain.SessionExercise,
	baseValue float64,
	rule domain.ProgressionRule,
) domain.ProgressionSuggestion {
	if rule.Strategy == domain.StrategyDoubleProgression {
		target := plannedTargetReps(current)
		lastReps := maxCompletedReps(prior)
		if target != nil && *target > lastReps {
			return domain.ProgressionSuggestion{
				SuggestedValue: baseValue,
				Outcome:        domain.OutcomeStay,
			}
		}
	}
	return domain.ProgressionSuggestion{
		SuggestedValue: applyRule(baseValue, rule),
		Outcome:        domain.OutcomeProgress,
	}
}

// adaptiveSuggestion consults the per-instance state machine. Streaks
// force an outcome; otherwise the exercise's last recommendation drives
// it, defaulting to a no-op stay.
func (e *ProgressionEngine) adaptiveSuggestion(
	current domain.SessionExercise,
	prior domain.SessionExercise,
	baseValue float64,
	rule domain.ProgressionRule,
	state domain.ExerciseProgressionState,
) domain.ProgressionSuggestion {
	switch {
	case state.FailStreak >= 2:
		return domain.ProgressionSuggestion{
			SuggestedValue:    regressValue(baseValue, rule),
			Outcome:           domain.OutcomeRegress,
			IsOutcomeAdjusted: true,
		}
	case state.SuccessStreak >= 2:
		return domain.ProgressionSuggestion{
			SuggestedValue:    applyRule(baseValue, rule),
			Outcome:           domain.OutcomeProgress,
			IsOutcomeAdjusted: true,
		}
	}

	if prior.ProgressionRecommendation != nil {
		switch *prior.ProgressionRecommendation {
		case domain.OutcomeProgress:
			return domain.ProgressionSuggestion{
				SuggestedValue:    applyRule(baseValue, rule),
				Outcome:           domain.OutcomeProgress,
				IsOutcomeAdjusted: true,
			}
		case domain.OutcomeRegress:
			return domain.ProgressionSuggestion{
				SuggestedValue:    regressValue(baseValue, rule),
				Outcome:           domain.OutcomeRegress,
				IsOutcomeAdjusted: true,
			}
		case domain.OutcomeStay:
			return domain.ProgressionSuggestion{
				SuggestedValue:    baseValue,
				Outcome:           domain.OutcomeStay,
				IsOutcomeAdjusted: true,
			}
		}
	}

	// No signal at all: plain no-op default, not an adaptive decision.
	return domain.ProgressionSuggestion{
		SuggestedValue: baseValue,
		Outcome:        domain.OutcomeStay,
	}
}

// InferProgressionOutcome compares actually-completed performance
// against the suggestion the session was built with.
func (e *ProgressionEngine) InferProgressionOutcome(
	exercise domain.SessionExercise,
	suggestion domain.ProgressionSuggestion,
) domain.ProgressionOutcome {
	metWeight := false
	metWeightAndReps := false
	for _, g := range exercise.SetGroups {
		for _, set := range g.Sets {
			if !set.Completed || set.Weight == nil {
				continue
			}
			if *set.Weight < suggestion.SuggestedValue {
				continue
			}
			metWeight = true
			if suggestion.TargetReps == nil || (set.Reps != nil && *set.Reps >= *suggestion.TargetReps) {
				metWeightAndReps = true
			}
		}
	}
	switch {
	case metWeightAndReps:
		return domain.OutcomeProgress
	case metWeight:
		return domain.OutcomeStay
	default:
		return domain.OutcomeRegress
	}
}

// UpdateProgressionState folds an inferred outcome into the adaptive
// state. Confidence takes a bounded monotone walk: toward 1 as the
// success streak grows (c += 0.15·(1−c)), toward 0 as the fail streak
// grows (c ·= 0.75); a stay leaves it untouched. Recent outcomes keep
// the newest first, capped.
func (e *ProgressionEngine) UpdateProgressionState(
	state domain.ExerciseProgressionState,
	outcome domain.ProgressionOutcome,
	suggestion domain.ProgressionSuggestion,
) domain.ExerciseProgressionState {
	switch outcome {
	case domain.OutcomeProgress:
		state.SuccessStreak++
		state.FailStreak = 0
		state.Confidence = clamp01(state.Confidence + 0.15*(1-state.Confidence))
	case domain.OutcomeRegress:
		state.FailStreak++
		state.SuccessStreak = 0
		state.Confidence = clamp01(state.Confidence * 0.75)
	case domain.OutcomeStay:
		// Neither counter matches a stay; streaks stay strictly consecutive.
		state.SuccessStreak = 0
		state.FailStreak = 0
	}

	state.RecentOutcomes = append([]domain.ProgressionOutcome{outcome}, state.RecentOutcomes...)
	if len(state.RecentOutcomes) > domain.RecentOutcomeCapacity {
		state.RecentOutcomes = state.RecentOutcomes[:domain.RecentOutcomeCapacity]
	}

	suggested := suggestion.SuggestedValue
	state.LastPrescribedWeight = &suggested
	state.LastPrescribedReps = suggestion.TargetReps
	state.LastUpdatedAt = e.now()
	return state
}

// RecordSessionOutcomes runs post-hoc inference over a completed session
// and folds the results into the program's per-instance state. Both the
// session (recommendation labels) and the program (states) are mutated.
func (e *ProgressionEngine) RecordSessionOutcomes(session *domain.Session, program *domain.Program) {
	if program == nil || !program.ProgressionEnabled {
		return
	}
	for mi := range session.Modules {
		for ei := range session.Modules[mi].Exercises {
			exercise := &session.Modules[mi].Exercises[ei]
			if exercise.ProgressionSuggestion == nil {
				continue
			}
			outcome := e.InferProgressionOutcome(*exercise, *exercise.ProgressionSuggestion)
			exercise.ProgressionRecommendation = &outcome
			if exercise.SourceExerciseInstanceID == "" {
				continue
			}
			state := program.StateFor(exercise.SourceExerciseInstanceID)
			program.SetState(exercise.SourceExerciseInstanceID,
				e.UpdateProgressionState(state, outcome, *exercise.ProgressionSuggestion))
		}
	}
	program.UpdatedAt = domain.Touch(program.UpdatedAt)
	program.SyncStatus = domain.SyncStatusPending
}

// applyRule implements the fixed progression formula: percentage bump
// with a minimum floor, rounded to the nearest increment (ties up).
func applyRule(baseValue float64, rule domain.ProgressionRule) float64 {
	raw := baseValue * (1 + rule.PercentageIncrease/100)
	bumped := math.Max(raw, baseValue+rule.MinimumIncrease)
	return roundToIncrement(bumped, rule.RoundingIncrement)
}

// regressValue mirrors applyRule subtractively, rounding down.
func regressValue(baseValue float64, rule domain.ProgressionRule) float64 {
	raw := baseValue * (1 - rule.PercentageIncrease/100)
	return roundDownToIncrement(raw, rule.RoundingIncrement)
}

func roundToIncrement(v, increment float64) float64 {
	if increment <= 0 {
		return v
	}
	return math.Floor(v/increment+0.5) * increment
}

func roundDownToIncrement(v, increment float64) float64 {
	if increment <= 0 {
		return v
	}
	return math.Floor(v/increment) * increment
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// baselineWeight extracts the heaviest completed working weight from a
// prior exercise. Incomplete sets are ignored entirely.
func baselineWeight(exercise domain.SessionExercise) (float64, bool) {
	best := 0.0
	found := false
	for _, g := range exercise.SetGroups {
		for _, set := range g.Sets {
			if !set.Completed || set.Weight == nil {
				continue
			}
			if !found || *set.Weight > best {
				best = *set.Weight
				found = true
			}
		}
	}
	return best, found
}

// maxCompletedReps returns the highest rep count among completed sets.
func maxCompletedReps(exercise domain.SessionExercise) int {
	best := 0
	for _, g := range exercise.SetGroups {
		for _, set := range g.Sets {
			if set.Completed && set.Reps != nil && *set.Reps > best {
				best = *set.Reps
			}
		}
	}
	return best
}

// plannedTargetReps is the rep ceiling for the session being built: the
// highest planned rep count across the exercise's sets.
func plannedTargetReps(exercise domain.SessionExercise) *int {
	var best *int
	for _, g := range exercise.SetGroups {
		for _, set := range g.Sets {
			if set.Reps != nil && (best == nil || *set.Reps > *best) {
				v := *set.Reps
				best = &v
			}
		}
	}
	return best
}

// findLatestMatch scans newest-first history for the most recent session
// of the same workout containing a same-named exercise.
func findLatestMatch(history []domain.Session, workoutID, exerciseName string) *domain.SessionExercise {
	for _, s := range history {
		if s.WorkoutID != workoutID {
			continue
		}
		for _, ex := range s.Exercises() {
			if ex.Name == exerciseName {
				found := ex
				return &found
			}
		}
	}
	return nil
}

func sortedByDateDesc(sessions []domain.Session) []domain.Session {
	out := append([]domain.Session(nil), sessions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
