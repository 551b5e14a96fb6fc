package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytgrab/api/handlers"
	"github.com/yourusername/ytgrab/api/middleware"
	"github.com/yourusername/ytgrab/internal/app"
	"github.com/yourusername/ytgrab/internal/domain"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	queueMgr *app.QueueManager,
	downloadMgr *app.DownloadManager,
	hub *app.ProgressHub,
	preflight app.PreflightFunc,
	serverCfg *domain.ServerConfig,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(queueMgr, preflight)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes. The limiter's eviction loop lives as long as the router.
	v1 := router.Group("/api/v1")
	limiter := middleware.NewRateLimiter(serverCfg.RateLimit, serverCfg.RateBurst)
	v1.Use(limiter.Middleware())
	{
		downloadHandler := handlers.NewDownloadHandler(queueMgr, downloadMgr, logger)
		progressHandler := handlers.NewProgressWebSocketHandler(hub, queueMgr, logger)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.GET("/:id/progress", progressHandler.HandleWebSocket)
			downloads.POST("/:id/cancel", downloadHandler.CancelDownload)
			downloads.POST("/:id/retry", downloadHandler.RetryDownload)
			downloads.DELETE("/:id", downloadHandler.DeleteDownload)
		}
	}

	return router
}
