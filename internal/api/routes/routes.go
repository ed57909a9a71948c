package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/getcoachly/coachly/internal/api/handlers"
	"github.com/getcoachly/coachly/internal/api/middleware"
)

type Deps struct {
	Trends     *handlers.TrendsHandler
	Analysis   *handlers.AnalysisHandler
	Reps       *handlers.RepHandler
	Tasks      *handlers.TaskHandler
	Chat       *handlers.ChatHandler
	Enrichment *handlers.EnrichmentHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/api")
	auth.Use(middleware.JWTAuth())

	auth.POST("/trends/generate", d.Trends.Generate)

	auth.POST("/calls", d.Analysis.Upload)
	auth.GET("/calls/:id", d.Analysis.Get)
	auth.GET("/calls/:id/download", d.Analysis.Download)
	auth.GET("/reps/:rep_id/calls", d.Analysis.ListByRep)
	auth.DELETE("/calls/:id", middleware.RequireRole("manager", "admin"), d.Analysis.Delete)

	auth.GET("/reps", d.Reps.List)
	auth.GET("/reps/:rep_id", d.Reps.Get)
	auth.GET("/teams", d.Reps.ListTeams)

	auth.POST("/tasks", d.Tasks.Create)
	auth.GET("/reps/:rep_id/tasks", d.Tasks.ListByRep)
	auth.POST("/tasks/:id/complete", d.Tasks.Complete)
	auth.DELETE("/tasks/:id", d.Tasks.Delete)

	auth.POST("/coach/session", d.Chat.StartSession)
	auth.GET("/coach/session/:session_id/history", d.Chat.History)

	auth.POST("/enrich", middleware.RequireRole("manager", "admin"), d.Enrichment.Enrich)

	// WebSocket
	auth.GET("/ws/coach/:session_id", d.Chat.CoachWS)
}
