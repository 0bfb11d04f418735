package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/coursecraft/coursecraft-backend/internal/handlers"
	"github.com/coursecraft/coursecraft-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins string

	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	CourseHandler   *handlers.CourseHandler
	SubjectHandler  *handlers.SubjectHandler
	ChapterHandler  *handlers.ChapterHandler
	TopicHandler    *handlers.TopicHandler
	ContentHandler  *handlers.ContentHandler
	RealtimeHandler *handlers.RealtimeHandler

	AuthMiddleware *middleware.AuthMiddleware
	SSEMiddleware  *middleware.SSEMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.AttachTraceContext())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(cfg.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Refresh-Token"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.Use(cfg.SSEMiddleware.FlushMessages())

	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	// SSE
	protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
	protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
	protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)

	// User
	protected.GET("/user", cfg.UserHandler.GetMe)

	// Courses
	protected.POST("/courses", cfg.CourseHandler.Create)
	protected.GET("/courses", cfg.CourseHandler.List)
	protected.GET("/courses/:courseID", cfg.CourseHandler.Get)
	protected.PATCH("/courses/:courseID", cfg.CourseHandler.Update)
	protected.DELETE("/courses/:courseID", cfg.CourseHandler.Delete)

	// Subjects
	protected.POST("/courses/:courseID/subjects", cfg.SubjectHandler.Generate)
	protected.GET("/courses/:courseID/subjects", cfg.SubjectHandler.Get)
	protected.POST("/courses/:courseID/subjects/manual", cfg.SubjectHandler.CreateManual)
	protected.PATCH("/courses/:courseID/subjects/:subjectID", cfg.SubjectHandler.Update)
	protected.DELETE("/courses/:courseID/subjects/:subjectID", cfg.SubjectHandler.Delete)

	// Chapters
	protected.POST("/courses/:courseID/subjects/:subjectID/chapters", cfg.ChapterHandler.Generate)
	protected.GET("/courses/:courseID/subjects/:subjectID/chapters", cfg.ChapterHandler.Get)
	protected.POST("/courses/:courseID/subjects/:subjectID/chapters/manual", cfg.ChapterHandler.CreateManual)
	protected.PATCH("/courses/:courseID/subjects/:subjectID/chapters/:chapterID", cfg.ChapterHandler.Update)
	protected.DELETE("/courses/:courseID/subjects/:subjectID/chapters/:chapterID", cfg.ChapterHandler.Delete)

	// Topics
	protected.POST("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics", cfg.TopicHandler.Generate)
	protected.GET("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics", cfg.TopicHandler.Get)
	protected.POST("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/manual", cfg.TopicHandler.CreateManual)
	protected.PATCH("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID", cfg.TopicHandler.Update)
	protected.DELETE("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID", cfg.TopicHandler.Delete)

	// Content
	protected.POST("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID/content", cfg.ContentHandler.Generate)
	protected.GET("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID/content", cfg.ContentHandler.Get)
	protected.POST("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID/content/manual", cfg.ContentHandler.CreateManual)
	protected.PATCH("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID/content", cfg.ContentHandler.Update)
	protected.DELETE("/courses/:courseID/subjects/:subjectID/chapters/:chapterID/topics/:topicID/content", cfg.ContentHandler.Delete)

	return router
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
