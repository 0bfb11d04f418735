package main

import (
	"context"
	"fmt"
	"os"
	"time"

	redisclient "github.com/coursecraft/coursecraft-backend/internal/clients/redis"

	"github.com/coursecraft/coursecraft-backend/internal/clients/openai"
	"github.com/coursecraft/coursecraft-backend/internal/db"
	"github.com/coursecraft/coursecraft-backend/internal/handlers"
	"github.com/coursecraft/coursecraft-backend/internal/middleware"
	"github.com/coursecraft/coursecraft-backend/internal/observability"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/repos"
	"github.com/coursecraft/coursecraft-backend/internal/server"
	"github.com/coursecraft/coursecraft-backend/internal/services"
	"github.com/coursecraft/coursecraft-backend/internal/sse"
	"github.com/coursecraft/coursecraft-backend/internal/utils"
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
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8080", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Tracing
	ctx := context.Background()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "coursecraft-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTel(shutdownCtx); err != nil {
				log.Warn("OTel shutdown error", "error", err)
			}
		}()
	}

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
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	subjectRepo := repos.NewSubjectRepo(thePG, log)
	chapterRepo := repos.NewChapterRepo(thePG, log)
	topicRepo := repos.NewTopicRepo(thePG, log)
	contentRepo := repos.NewContentRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)
	var sseBus redisclient.SSEBus
	if utils.GetEnv("REDIS_ENABLED", "false", log) == "true" {
		sseBus, err = redisclient.NewSSEBus(log)
		if err != nil {
			log.Warn("Redis SSE bus init failed, running with local hub only", "error", err)
			sseBus = nil
		} else {
			sseBus.StartForwarder(ctx, sseHub)
			defer sseBus.Close()
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(log, userRepo)
	ownershipService := services.NewOwnershipService(log, courseRepo, subjectRepo, chapterRepo, topicRepo)
	genStateTracker := services.NewGenStateTracker(thePG, log)
	aiAdapter := services.NewAIAdapter(log, openaiClient, aiCallLogRepo)
	generationService := services.NewGenerationService(thePG, log, ownershipService, genStateTracker,
		aiAdapter, subjectRepo, chapterRepo, topicRepo, contentRepo)
	courseService := services.NewCourseService(thePG, log, ownershipService, courseRepo)
	subjectService := services.NewSubjectService(thePG, log, ownershipService, genStateTracker, subjectRepo)
	chapterService := services.NewChapterService(thePG, log, ownershipService, genStateTracker, chapterRepo)
	topicService := services.NewTopicService(thePG, log, ownershipService, genStateTracker, topicRepo)
	contentService := services.NewContentService(thePG, log, ownershipService, genStateTracker, contentRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(courseService)
	subjectHandler := handlers.NewSubjectHandler(generationService, subjectService)
	chapterHandler := handlers.NewChapterHandler(generationService, chapterService)
	topicHandler := handlers.NewTopicHandler(generationService, topicService)
	contentHandler := handlers.NewContentHandler(generationService, contentService)
	realtimeHandler := handlers.NewRealtimeHandler(log, sseHub)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	sseMiddleware := middleware.NewSSEMiddleware(log, sseHub, sseBus)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     "coursecraft-backend",
		AllowedOrigins:  allowedOrigins,
		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		CourseHandler:   courseHandler,
		SubjectHandler:  subjectHandler,
		ChapterHandler:  chapterHandler,
		TopicHandler:    topicHandler,
		ContentHandler:  contentHandler,
		RealtimeHandler: realtimeHandler,
		AuthMiddleware:  authMiddleware,
		SSEMiddleware:   sseMiddleware,
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
