package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/handlers"
	"github.com/JairAlexey/moviematch-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	ConnectionHandler     *handlers.ConnectionHandler
	RecommendationHandler *handlers.RecommendationHandler
	MovieHandler          *handlers.MovieHandler
	KNNHandler            *handlers.KNNHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Connections
	protected.POST("/connections/update", cfg.ConnectionHandler.UpdateConnections)
	protected.GET("/connections", cfg.ConnectionHandler.GetConnections)
	// Recommendations
	protected.POST("/recommendations/generate", cfg.RecommendationHandler.Generate)
	protected.GET("/recommendations", cfg.RecommendationHandler.GetRecommendations)
	protected.GET("/recommendations/knn", cfg.RecommendationHandler.GetKNNRecommendations)
	// Ratings
	protected.POST("/movies/:id/watch", cfg.MovieHandler.MarkWatched)
	protected.DELETE("/movies/:id/watch", cfg.MovieHandler.UnmarkWatched)
	protected.PUT("/movies/:id/rate", cfg.MovieHandler.CommentAndRate)
	// KNN
	protected.GET("/knn/status", cfg.KNNHandler.Status)
	protected.GET("/movies/:id/similar-knn", cfg.KNNHandler.SimilarMovies)

	return router
}
