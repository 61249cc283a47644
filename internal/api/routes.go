package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(
	router *gin.Engine,
	syncHandler *SyncHandler,
	progressionHandler *ProgressionHandler,
	analyticsHandler *AnalyticsHandler,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		syncGroup := apiV1.Group("/sync")
		{
			syncGroup.POST("", syncHandler.TriggerSync)
			syncGroup.GET("/status", syncHandler.GetStatus)
			syncGroup.DELETE("/entities/:type/:id", syncHandler.DeleteEntity)
		}

		apiV1.GET("/suggestions", progressionHandler.GetSuggestions)
		apiV1.POST("/sessions/:id/outcomes", progressionHandler.RecordOutcomes)

		analyticsGroup := apiV1.Group("/analytics")
		{
			analyticsGroup.GET("/streak", analyticsHandler.GetStreak)
			analyticsGroup.GET("/volume", analyticsHandler.GetWeeklyVolume)
			analyticsGroup.GET("/breakdown", analyticsHandler.GetBreakdown)
			analyticsGroup.GET("/prs", analyticsHandler.GetPersonalRecords)
			analyticsGroup.GET("/health", analyticsHandler.GetEngineHealth)
		}
	}
}

// abortWithError sends a uniform error payload and stops the chain.
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
