package main

import (
	"fmt"
	"os"
	"time"

	redisclient "github.com/JairAlexey/moviematch-backend/internal/clients/redis"
	"github.com/JairAlexey/moviematch-backend/internal/db"
	"github.com/JairAlexey/moviematch-backend/internal/handlers"
	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/middleware"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
	"github.com/JairAlexey/moviematch-backend/internal/server"
	"github.com/JairAlexey/moviematch-backend/internal/services"
	"github.com/JairAlexey/moviematch-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	movieRepo := repos.NewMovieRepo(thePG, log)
	userMovieRepo := repos.NewUserMovieRepo(thePG, log)
	connRepo := repos.NewUserConnectionRepo(thePG, log)
	recRepo := repos.NewMovieRecommendationRepo(thePG, log)

	// Redis cache is optional; adapter status probes just go uncached
	// without it.
	cache, err := redisclient.NewCache(log)
	if err != nil {
		log.Warn("Redis cache unavailable, continuing without it", "error", err)
		cache = nil
	}

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	compatibilityService := services.NewCompatibilityService(thePG, log, userRepo, userMovieRepo)
	connectionService := services.NewConnectionService(thePG, log, userRepo, connRepo, compatibilityService)
	mlClient := services.NewMLClient(log)
	knnClient := services.NewKNNClient(log, cache)
	recommendationService := services.NewRecommendationService(thePG, log, userRepo, movieRepo, userMovieRepo, connRepo, recRepo, mlClient, knnClient)

	eventBus := services.NewRatingEventBus(log)
	eventBus.Register(services.NewRecommendationFanout(thePG, log, connRepo, userMovieRepo, recRepo))
	ratingService := services.NewRatingService(thePG, log, movieRepo, userMovieRepo, recRepo, eventBus)

	// Handlers
	log.Info("Setting up handlers...")
	authHandler := handlers.NewAuthHandler(authService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	movieHandler := handlers.NewMovieHandler(ratingService)
	knnHandler := handlers.NewKNNHandler(knnClient)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:           authHandler,
		AuthMiddleware:        authMiddleware,
		ConnectionHandler:     connectionHandler,
		RecommendationHandler: recommendationHandler,
		MovieHandler:          movieHandler,
		KNNHandler:            knnHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
