package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"
)

// ProgressionPlanner turns a planned workout into the exercise list the
// engine scores, resolving module references through the local store. It
// is the read path behind the suggestions endpoint.
type ProgressionPlanner struct {
	workouts   repository.WorkoutRepository
	modules    repository.ModuleRepository
	programs   repository.ProgramRepository
	sessions   repository.SessionRepository
	engine     *ProgressionEngine
	windowDays int
	logger     *slog.Logger
}

// NewProgressionPlanner wires the planner. windowDays bounds how far back
// session history is loaded when scoring.
func NewProgressionPlanner(
	workouts repository.WorkoutRepository,
	modules repository.ModuleRepository,
	programs repository.ProgramRepository,
	sessions repository.SessionRepository,
	engine *ProgressionEngine,
	windowDays int,
	logger *slog.Logger,
) *ProgressionPlanner {
	return &ProgressionPlanner{
		workouts:   workouts,
		modules:    modules,
		programs:   programs,
		sessions:   sessions,
		engine:     engine,
		windowDays: windowDays,
		logger:     logger,
	}
}

// SuggestionsForWorkout computes next-session prescriptions for every
// strength exercise of the workout, keyed by exercise instance id. An
// empty map (never an error) is returned when no program is active or
// progression is disabled.
func (p *ProgressionPlanner) SuggestionsForWorkout(ctx context.Context, workoutID string) (map[string]domain.ProgressionSuggestion, error) {
	workout, err := p.workouts.Find(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("load workout %s: %w", workoutID, err)
	}

	program, err := activeProgram(ctx, p.programs)
	if err != nil {
		return nil, err
	}

	exercises, err := p.planExercises(ctx, workout)
	if err != nil {
		return nil, err
	}

	history, err := p.sessions.LoadRecent(ctx, p.windowDays)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	return p.engine.CalculateSuggestions(exercises, workout.ID, program, history), nil
}

// activeProgram returns the single active program, or nil when none is.
func activeProgram(ctx context.Context, programs repository.ProgramRepository) (*domain.Program, error) {
	all, err := programs.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	for i := range all {
		if all[i].IsActive {
			return &all[i], nil
		}
	}
	return nil, nil
}

// planExercises flattens the workout into the ordered exercise list a
// session would start from: each module reference resolved and expanded,
// then the standalone exercises. A dangling module reference is logged
// and skipped rather than failing the whole plan.
func (p *ProgressionPlanner) planExercises(ctx context.Context, workout *domain.Workout) ([]domain.SessionExercise, error) {
	refs := append([]domain.ModuleReference(nil), workout.Modules...)
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Order < refs[j].Order })

	var out []domain.SessionExercise
	for _, ref := range refs {
		module, err := p.modules.Find(ctx, ref.ModuleID)
		if errors.Is(err, repository.ErrNotFound) {
			p.logger.Warn("workout references missing module", "workoutId", workout.ID, "moduleId", ref.ModuleID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load module %s: %w", ref.ModuleID, err)
		}
		for i := range module.Exercises {
			out = append(out, planExercise(module.Exercises[i], len(out)))
		}
	}
	for i := range workout.StandaloneExercises {
		out = append(out, planExercise(workout.StandaloneExercises[i], len(out)))
	}
	return out, nil
}

// planExercise projects a planned instance into session shape. The
// session exercise reuses the instance id so suggestions computed before
// the session starts key consistently with the instance they came from.
func planExercise(instance domain.ExerciseInstance, order int) domain.SessionExercise {
	groups := make([]domain.CompletedSetGroup, 0, len(instance.SetGroups))
	for _, g := range instance.SetGroups {
		sets := make([]domain.SetData, 0, g.Sets)
		for n := 0; n < g.Sets; n++ {
			sets = append(sets, domain.SetData{
				SetNumber:   n + 1,
				Weight:      g.TargetWeight,
				Reps:        g.TargetReps,
				Duration:    g.TargetDuration,
				Distance:    g.TargetDistance,
				RestSeconds: g.RestSeconds,
			})
		}
		groups = append(groups, domain.CompletedSetGroup{ID: g.ID, Order: g.Order, Sets: sets})
	}
	return domain.SessionExercise{
		ID:                       instance.ID,
		Name:                     instance.Name,
		ExerciseType:             instance.ExerciseType,
		Order:                    order,
		SourceExerciseInstanceID: instance.ID,
		SetGroups:                groups,
	}
}
