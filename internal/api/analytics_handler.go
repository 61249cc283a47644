package api

import (
	"net/http"
	"strconv"
	"time"

	"alcyxob/fitness-sync/internal/repository"
	"alcyxob/fitness-sync/internal/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves the read-models computed over session history.
type AnalyticsHandler struct {
	analytics  *service.AnalyticsService
	sessions   repository.SessionRepository
	decisions  repository.DecisionRepository
	windowDays int
}

// NewAnalyticsHandler creates a new AnalyticsHandler. windowDays is the
// default trailing window for windowed read-models.
func NewAnalyticsHandler(
	analytics *service.AnalyticsService,
	sessions repository.SessionRepository,
	decisions repository.DecisionRepository,
	windowDays int,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:  analytics,
		sessions:   sessions,
		decisions:  decisions,
		windowDays: windowDays,
	}
}

// GetStreak reports consecutive training days ending today or yesterday.
func (h *AnalyticsHandler) GetStreak(c *gin.Context) {
	sessions, err := h.sessions.LoadAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load sessions.")
		return
	}
	streak := h.analytics.CurrentStreak(sessions, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

// GetWeeklyVolume reports weight×reps totals per ISO week.
func (h *AnalyticsHandler) GetWeeklyVolume(c *gin.Context) {
	sessions, err := h.sessions.LoadAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load sessions.")
		return
	}
	c.JSON(http.StatusOK, h.analytics.WeeklyVolume(sessions))
}

// GetBreakdown reports progress/stay/regress counts within the window.
// Accepts ?windowDays= to override the default.
func (h *AnalyticsHandler) GetBreakdown(c *gin.Context) {
	windowDays := h.windowDays
	if raw := c.Query("windowDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			abortWithError(c, http.StatusBadRequest, "windowDays must be a positive integer.")
			return
		}
		windowDays = parsed
	}

	sessions, err := h.sessions.LoadRecent(c.Request.Context(), windowDays)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load sessions.")
		return
	}
	c.JSON(http.StatusOK, h.analytics.ProgressionBreakdown(sessions, windowDays, time.Now().UTC()))
}

// GetPersonalRecords reports estimated-1RM high-water marks per exercise.
func (h *AnalyticsHandler) GetPersonalRecords(c *gin.Context) {
	sessions, err := h.sessions.LoadAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load sessions.")
		return
	}
	records := h.analytics.PersonalRecords(sessions)
	if records == nil {
		records = []service.PersonalRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// GetEngineHealth aggregates progression-decision audit records.
func (h *AnalyticsHandler) GetEngineHealth(c *gin.Context) {
	decisions, err := h.decisions.LoadAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load decisions.")
		return
	}
	c.JSON(http.StatusOK, h.analytics.EngineHealthSummary(decisions))
}
