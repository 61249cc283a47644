package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"
)

// ErrNoSuggestions is returned when outcome recording is requested for a
// session that carries no progression suggestions.
var ErrNoSuggestions = errors.New("session has no progression suggestions")

// OutcomeRecorder closes the progression loop after a session finishes:
// infer per-exercise outcomes, fold them into the active program's
// adaptive state, persist both, and append an audit decision per
// suggestion so the engine-health read model has something to aggregate.
type OutcomeRecorder struct {
	sessions  repository.SessionRepository
	programs  repository.ProgramRepository
	decisions repository.DecisionRepository
	engine    *ProgressionEngine
	logger    *slog.Logger
	now       func() time.Time
}

// NewOutcomeRecorder wires the recorder.
func NewOutcomeRecorder(
	sessions repository.SessionRepository,
	programs repository.ProgramRepository,
	decisions repository.DecisionRepository,
	engine *ProgressionEngine,
	logger *slog.Logger,
) *OutcomeRecorder {
	return &OutcomeRecorder{
		sessions:  sessions,
		programs:  programs,
		decisions: decisions,
		engine:    engine,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordOutcomes processes one completed session. Returns the updated
// session. ErrNoSuggestions when the session was built without any.
func (r *OutcomeRecorder) RecordOutcomes(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := r.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !hasSuggestions(session) {
		return nil, ErrNoSuggestions
	}

	program, err := activeProgram(ctx, r.programs)
	if err != nil {
		return nil, err
	}

	r.engine.RecordSessionOutcomes(session, program)

	if err := r.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", sessionID, err)
	}
	if program != nil {
		if err := r.programs.Save(ctx, program); err != nil {
			return nil, fmt.Errorf("persist program %s: %w", program.ID, err)
		}
	}

	r.logDecisions(ctx, session, program)
	return session, nil
}

// logDecisions appends one audit record per scored exercise. "Followed"
// means the user actually lifted at (or above) the prescribed weight,
// i.e. the inferred outcome was not a regress. Failures here are logged
// and swallowed; telemetry never fails the recording.
func (r *OutcomeRecorder) logDecisions(ctx context.Context, session *domain.Session, program *domain.Program) {
	for _, exercise := range session.Exercises() {
		if exercise.ProgressionSuggestion == nil || exercise.ProgressionRecommendation == nil {
			continue
		}
		confidence := 0.0
		if program != nil {
			confidence = program.StateFor(exercise.SourceExerciseInstanceID).Confidence
		}
		decision := domain.ProgressionDecision{
			ID:           domain.NewID(),
			ExerciseID:   exercise.SourceExerciseInstanceID,
			DecisionCode: exercise.ProgressionSuggestion.Outcome,
			Confidence:   confidence,
			Followed:     *exercise.ProgressionRecommendation != domain.OutcomeRegress,
			CreatedAt:    r.now(),
		}
		if err := r.decisions.Save(ctx, &decision); err != nil {
			r.logger.Warn("failed to save progression decision", "exerciseId", decision.ExerciseID, "error", err)
		}
	}
}

func hasSuggestions(session *domain.Session) bool {
	for _, exercise := range session.Exercises() {
		if exercise.ProgressionSuggestion != nil {
			return true
		}
	}
	return false
}
