package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/handler"
	"github.com/ouroboros-study/ouroboros-api/internal/repository"
	"github.com/ouroboros-study/ouroboros-api/internal/service"
	"github.com/ouroboros-study/ouroboros-api/internal/timer"
	"github.com/ouroboros-study/ouroboros-api/pkg/cache"
	"github.com/ouroboros-study/ouroboros-api/pkg/config"
	"github.com/ouroboros-study/ouroboros-api/pkg/database"
	"github.com/ouroboros-study/ouroboros-api/pkg/export"
	"github.com/ouroboros-study/ouroboros-api/pkg/logger"
	"github.com/ouroboros-study/ouroboros-api/pkg/storage"
)

// @title Ouroboros Study API
// @version 1.0.0
// @description Study plans, study history, statistics and the study timer.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("statistics cache unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}

	syllabusDir, err := storage.NewLocalStorage(cfg.Syllabus.Dir)
	if err != nil {
		return fmt.Errorf("open syllabus dir: %w", err)
	}
	exportsDir, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("open exports dir: %w", err)
	}

	validate := newValidator()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Redis.CacheTTL, logr, redisClient != nil)

	planRepo := repository.NewPlanRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	recordRepo := repository.NewStudyRecordRepository(db)
	backupRepo := repository.NewBackupRepository(db)

	planSvc := service.NewPlanService(planRepo, settingsRepo, syllabusDir, cacheSvc, validate, logr)
	recordSvc := service.NewStudyRecordService(recordRepo, planSvc, cacheSvc, metrics, validate, logr, service.StudyRecordServiceConfig{})
	statsSvc := service.NewStatisticsService(planSvc, recordRepo, cacheSvc, logr)
	reviewSvc := service.NewReviewService(recordRepo, nil)
	backupSvc := service.NewBackupService(backupRepo, cacheSvc, metrics, validate, logr)
	reportSvc := service.NewReportService(
		recordSvc,
		exportsDir,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		export.NewCSVExporter(';'),
		export.NewPDFExporter(),
		metrics, validate, logr,
		service.ReportServiceConfig{APIPrefix: cfg.APIPrefix, ResultTTL: 24 * time.Hour, CleanupInterval: time.Hour},
	)
	reportSvc.StartCleanup(ctx)

	studyTimer := timer.New(time.Now)
	hub := timer.NewHub(studyTimer, logr, metrics)
	go hub.Run(ctx, cfg.Timer.TickInterval)

	var sessions *service.SessionService
	if cfg.Auth.Enabled {
		sessions = service.NewSessionService(cfg.Auth.Secret)
	}

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["cache"] = handler.PingFunc(cacheRepo.Ping)
	}

	r := newRouter(cfg, logr, metrics, sessions, handlers{
		plans:   handler.NewPlanHandler(planSvc),
		records: handler.NewStudyRecordHandler(recordSvc),
		stats:   handler.NewStatisticsHandler(statsSvc, reviewSvc),
		backup:  handler.NewBackupHandler(backupSvc, cfg.Backup.ClearConfirmationPhrase),
		reports: handler.NewReportHandler(reportSvc),
		timer:   handler.NewTimerHandler(studyTimer, hub, cfg.CORS.AllowedOrigins, logr),
		health:  handler.NewHealthHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
