package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/ouroboros-study/ouroboros-api/api/swagger"
	"github.com/ouroboros-study/ouroboros-api/internal/handler"
	"github.com/ouroboros-study/ouroboros-api/internal/middleware"
	"github.com/ouroboros-study/ouroboros-api/internal/service"
	"github.com/ouroboros-study/ouroboros-api/pkg/config"
	"github.com/ouroboros-study/ouroboros-api/pkg/logger"
	corsmiddleware "github.com/ouroboros-study/ouroboros-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ouroboros-study/ouroboros-api/pkg/middleware/requestid"
)

type handlers struct {
	plans   *handler.PlanHandler
	records *handler.StudyRecordHandler
	stats   *handler.StatisticsHandler
	backup  *handler.BackupHandler
	reports *handler.ReportHandler
	timer   *handler.TimerHandler
	health  *handler.HealthHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, sessions *service.SessionService, h handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.health.Health)
	r.GET("/ready", h.health.Ready)
	r.GET("/metrics", h.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// Download links are authorized by their signed token.
	api.GET("/reports/download", h.reports.Download)

	secured := api.Group("")
	if sessions != nil {
		secured.Use(middleware.Session(sessions))
	}

	plans := secured.Group("/plans")
	plans.GET("", h.plans.List)
	plans.POST("", h.plans.Create)
	plans.GET("/selected", h.plans.Selected)
	plans.GET("/:id", h.plans.Get)
	plans.PUT("/:id", h.plans.Update)
	plans.DELETE("/:id", middleware.Audit(logr, "plan.delete"), h.plans.Delete)
	plans.POST("/:id/select", h.plans.Select)

	syllabus := secured.Group("/syllabus")
	syllabus.GET("/sources", h.plans.Sources)
	syllabus.POST("/sources/:name/import", h.plans.ImportSource)

	records := secured.Group("/study-records")
	records.GET("", h.records.List)
	records.POST("", h.records.Create)
	records.GET("/history", h.records.History)
	records.POST("/toggle-completion", h.records.ToggleCompletion)
	records.GET("/:id", h.records.Get)
	records.PUT("/:id", h.records.Update)
	records.DELETE("/:id", h.records.Delete)

	secured.GET("/statistics", h.stats.Statistics)
	secured.GET("/reviews", h.stats.Reviews)

	backup := secured.Group("/backup")
	backup.GET("", h.backup.Export)
	backup.POST("/import", middleware.Audit(logr, "backup.import"), h.backup.Import)
	backup.POST("/clear", middleware.Audit(logr, "backup.clear"), h.backup.Clear)

	secured.POST("/reports", h.reports.Generate)

	timerGroup := secured.Group("/timer")
	timerGroup.GET("", h.timer.State)
	timerGroup.GET("/ws", h.timer.Stream)
	timerGroup.POST("/:action", h.timer.Command)

	return r
}
