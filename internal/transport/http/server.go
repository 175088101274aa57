package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "studybuddy/internal/app"
	"studybuddy/internal/bootstrap"
	"studybuddy/internal/cache"
	"studybuddy/internal/platform/rabbitmq"
	"studybuddy/internal/repository"
	"studybuddy/internal/transport/http/handler"
	"studybuddy/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(app.Config.HTTP.AllowedOrigin))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionRepo := repository.NewSessionRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	messageRepo := repository.NewChatMessageRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	chatLogPublisher := rabbitmq.NewChatLogPublisher(app.MQConn, app.Config.RabbitMQ.ChatLogQueue)

	ingestService := appsvc.NewIngestService(chunkRepo, app.Embedder)
	retrievalService := appsvc.NewRetrievalService(chunkRepo, app.Embedder)
	studyService := appsvc.NewStudyService(
		retrievalService,
		app.LLMClient,
		chatLogPublisher,
		historyCache,
		messageRepo,
		app.Config.LLM.ChatModel,
		app.Config.LLM.SummaryModel,
	)
	sessionService := appsvc.NewSessionService(sessionRepo, chunkRepo, messageRepo, historyCache)

	studyHandler := handler.NewStudyHandler(ingestService, studyService)
	sessionHandler := handler.NewSessionHandler(sessionService)

	api := router.Group("/api")

	studyGroup := api.Group("/study")
	studyGroup.POST("/upload", studyHandler.Upload)
	studyGroup.POST("/chat", studyHandler.Chat)
	studyGroup.POST("/summary", studyHandler.Summary)
	studyGroup.POST("/flashcards", studyHandler.Flashcards)
	studyGroup.GET("/history", studyHandler.History)

	api.GET("/sessions", sessionHandler.List)
	api.POST("/sessions", sessionHandler.Create)
	api.GET("/sessions/:id", sessionHandler.Get)
	api.PUT("/sessions/:id", sessionHandler.Update)
	api.DELETE("/sessions/:id", sessionHandler.Delete)

	return router
}
