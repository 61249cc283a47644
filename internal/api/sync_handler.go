package api

import (
	"errors"
	"net/http"

	"alcyxob/fitness-sync/internal/domain"
	"alcyxob/fitness-sync/internal/service"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the sync engine over HTTP.
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// TriggerSync runs one full sync cycle. The call is synchronous; a cycle
// already in flight is rejected with 409.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	err := h.syncService.Sync(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		abortWithError(c, http.StatusConflict, "A sync cycle is already in progress.")
	case err != nil:
		abortWithError(c, http.StatusBadGateway, "Sync failed: "+err.Error())
	default:
		c.JSON(http.StatusOK, h.syncService.Status())
	}
}

// GetStatus reports the engine's current state.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Status())
}

// DeleteEntity removes a local entity and tombstones it so the deletion
// propagates on the next sync cycle.
func (h *SyncHandler) DeleteEntity(c *gin.Context) {
	entityType, ok := parseEntityType(c.Param("type"))
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Unknown entity type: "+c.Param("type"))
		return
	}
	id := c.Param("id")
	if id == "" {
		abortWithError(c, http.StatusBadRequest, "Entity id must not be empty.")
		return
	}
	if err := h.syncService.DeleteEntity(c.Request.Context(), entityType, id); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete entity.")
		return
	}
	c.Status(http.StatusNoContent)
}

func parseEntityType(raw string) (domain.EntityType, bool) {
	for _, t := range domain.AllEntityTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}
