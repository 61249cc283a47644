package api

import (
	"errors"
	"net/http"
	"time"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/repository"
	"alcyxob/fitness-sync/internal/service"

	"github.com/gin-gonic/gin"
)

// ProgressionHandler serves next-session suggestions and records
// post-session outcomes.
type ProgressionHandler struct {
	planner  *service.ProgressionPlanner
	recorder *service.OutcomeRecorder
}

// NewProgressionHandler creates a new ProgressionHandler.
func NewProgressionHandler(planner *service.ProgressionPlanner, recorder *service.OutcomeRecorder) *ProgressionHandler {
	return &ProgressionHandler{planner: planner, recorder: recorder}
}

// SuggestionResponse is the DTO for one exercise prescription.
type SuggestionResponse struct {
	ExerciseID        string    `json:"exerciseId"`
	ExerciseName      string    `json:"exerciseName"`
	BaseValue         float64   `json:"baseValue"`
	SuggestedValue    float64   `json:"suggestedValue"`
	TargetReps        *int      `json:"targetReps,omitempty"`
	Outcome           string    `json:"outcome"`
	IsOutcomeAdjusted bool      `json:"isOutcomeAdjusted"`
	CreatedAt         time.Time `json:"createdAt"`
}

func mapSuggestionToResponse(s domain.ProgressionSuggestion) SuggestionResponse {
	return SuggestionResponse{
		ExerciseID:        s.ExerciseID,
		ExerciseName:      s.ExerciseName,
		BaseValue:         s.BaseValue,
		SuggestedValue:    s.SuggestedValue,
		TargetReps:        s.TargetReps,
		Outcome:           string(s.Outcome),
		IsOutcomeAdjusted: s.IsOutcomeAdjusted,
		CreatedAt:         s.CreatedAt,
	}
}

// GetSuggestions computes prescriptions for a planned workout.
func (h *ProgressionHandler) GetSuggestions(c *gin.Context) {
	workoutID := c.Query("workoutId")
	if workoutID == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter workoutId is required.")
		return
	}

	suggestions, err := h.planner.SuggestionsForWorkout(c.Request.Context(), workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout not found.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to compute suggestions.")
		return
	}

	out := make(map[string]SuggestionResponse, len(suggestions))
	for id, s := range suggestions {
		out[id] = mapSuggestionToResponse(s)
	}
	c.JSON(http.StatusOK, out)
}

// RecordOutcomes runs post-hoc inference over a completed session.
func (h *ProgressionHandler) RecordOutcomes(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.recorder.RecordOutcomes(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "Session not found.")
		case errors.Is(err, service.ErrNoSuggestions):
			abortWithError(c, http.StatusUnprocessableEntity, "Session carries no progression suggestions.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record outcomes.")
		}
		return
	}
	c.JSON(http.StatusOK, session)
}
