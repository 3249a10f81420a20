package api

import (
	"github.com/gin-gonic/gin"

	"github.com/emilyhoughkovacs/blok-persona-clustering/api/handlers"
)

// SetupRoutes initializes all API endpoints.
func SetupRoutes(router *gin.Engine, h *handlers.Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/personas", h.GetPersonas)
		api.GET("/scenarios", h.GetScenarios)
		api.GET("/runs", h.ListRuns)
		api.POST("/runs", h.LaunchRun)
		api.GET("/runs/:runID", h.GetRun)
		api.GET("/runs/:runID/records", h.GetRunRecords)
		api.GET("/runs/:runID/summary", h.GetRunSummary)
		api.DELETE("/runs/:runID", h.DeleteRun)
	}
	router.GET("/ws", h.HandleWebSocket)
}
