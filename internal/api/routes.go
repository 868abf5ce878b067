package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"pagecraft/internal/ai"
	"pagecraft/internal/api/middleware"
	"pagecraft/internal/auth"
	"pagecraft/internal/builder"
	"pagecraft/internal/config"
	"pagecraft/internal/storage"
)

// RegisterRoutes registers the builder API under /v1.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	store *builder.Store,
	gateway *ai.Gateway,
	sessions *auth.SessionService,
	gate *auth.Gate,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	storageClient *storage.Client,
	logger *slog.Logger,
) {
	sessionHandler := NewSessionHandler(sessions, gate, redisClient, logger)
	projectHandler := NewProjectHandler(store)
	componentHandler := NewComponentHandler(store)
	sectionHandler := NewSectionHandler(store)
	templateHandler := NewTemplateHandler(store)
	generateHandler := NewGenerateHandler(gateway, store, redisClient, cfg.AI.RateLimitPerHour, logger)
	exportHandler := NewExportHandler(store, asynqClient, redisClient, storageClient, cfg.API.ClamdAddr, logger)
	wsHandler := NewWsHandler(redisClient, sessions, store, logger, cfg.API.Origins())
	sessionRequired := middleware.SessionMiddleware(sessions)

	v1 := router.Group("/v1")
	{
		v1.POST("/session", sessionHandler.ClaimSession)
		v1.GET("/ws", wsHandler.HandleConnection)

		projectGroup := v1.Group("/project")
		projectGroup.Use(sessionRequired)
		{
			projectGroup.GET("", projectHandler.GetProject)
			projectGroup.POST("", projectHandler.CreateProject)
			projectGroup.PUT("", projectHandler.LoadProject)
			projectGroup.POST("/save", projectHandler.SaveProject)
			projectGroup.POST("/reset", projectHandler.ResetBuilder)
			projectGroup.GET("/storage", projectHandler.GetStorageInfo)
		}

		componentGroup := v1.Group("/components")
		componentGroup.Use(sessionRequired)
		{
			componentGroup.POST("", componentHandler.AddComponent)
			componentGroup.PATCH("/:id", componentHandler.UpdateComponent)
			componentGroup.DELETE("/:id", componentHandler.DeleteComponent)
			componentGroup.POST("/:id/move", componentHandler.MoveComponent)
			componentGroup.POST("/:id/duplicate", componentHandler.DuplicateComponent)
		}

		v1.PUT("/selection", sessionRequired, componentHandler.SetSelection)
		v1.PUT("/view", sessionRequired, componentHandler.SetDeviceView)

		templateGroup := v1.Group("/templates")
		templateGroup.Use(sessionRequired)
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.POST("/:id/apply", templateHandler.ApplyTemplate)
		}

		layoutGroup := v1.Group("/layouts")
		layoutGroup.Use(sessionRequired)
		{
			layoutGroup.GET("", templateHandler.ListLayouts)
			layoutGroup.POST("/:id/apply", templateHandler.ApplyLayout)
		}

		sectionGroup := v1.Group("/sections")
		sectionGroup.Use(sessionRequired)
		{
			sectionGroup.PATCH("/:id", sectionHandler.UpdateSection)
			sectionGroup.DELETE("/:id", sectionHandler.DeleteSection)
			sectionGroup.POST("/:id/components", sectionHandler.AddComponentToSection)
		}

		generateGroup := v1.Group("/generate")
		generateGroup.Use(sessionRequired)
		{
			generateGroup.POST("", generateHandler.Generate)
			generateGroup.POST("/accept", generateHandler.AcceptGeneration)
		}

		dynamicGroup := v1.Group("/dynamic")
		dynamicGroup.Use(sessionRequired)
		{
			dynamicGroup.DELETE("/templates/:id", templateHandler.RemoveDynamicTemplate)
			dynamicGroup.DELETE("/components/:id", templateHandler.RemoveDynamicComponent)
		}

		exportGroup := v1.Group("/export")
		exportGroup.Use(sessionRequired)
		{
			exportGroup.GET("", exportHandler.Export)
			exportGroup.POST("/archive", exportHandler.EnqueueArchive)
			exportGroup.GET("/archive/link", exportHandler.GetArchiveLink)
			exportGroup.GET("/archives", exportHandler.ListArchives)
		}

		v1.POST("/import", sessionRequired, exportHandler.Import)
	}
}
