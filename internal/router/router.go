package router

import (
	"github.com/gin-gonic/gin"

	"calai/internal/config"
	"calai/internal/handler"
	"calai/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.CORSConfig,
	analyzeH *handler.AnalyzeHandler,
	inputH *handler.InputHandler,
	mealH *handler.MealHandler,
	photoH *handler.PhotoHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Analysis
	v1.POST("/analyze", analyzeH.Analyze)

	// Clarification question side channel
	input := v1.Group("/input")
	input.GET("/question", inputH.PendingQuestion)
	input.POST("/answer", inputH.SubmitAnswer)

	// Meal history
	meals := v1.Group("/meals")
	meals.GET("", mealH.List)
	meals.GET("/export", mealH.Export)
	meals.GET("/:id", mealH.GetByID)

	// Photos
	photos := v1.Group("/photos")
	photos.POST("", photoH.Upload)
	photos.GET("/:id", photoH.GetByID)
	photos.GET("/:id/content", photoH.Download)

	return r
}
