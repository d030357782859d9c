package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Schedule validator and registry for professors, classrooms, courses and lessons.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	var db *sqlx.DB
	if cfg.Database.Enabled {
		conn, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer conn.Close()
		db = conn

		if cfg.Database.AutoMigrate {
			migrator, err := database.NewMigrator(db, logr)
			if err != nil {
				return err
			}
			if err := migrator.Up(ctx); err != nil {
				return err
			}
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "timetable"),
		metrics,
		cfg.Catalog.CacheTTL,
		logr,
		cfg.Catalog.CacheEnabled && redisClient != nil,
	)

	var carSvc *service.CarCatalogService
	if db != nil {
		carSvc = service.NewCarCatalogService(repository.NewCarRepository(db), cacheSvc, validate, logr)
		// entries cached by an earlier process may predate the current cars table
		carSvc.InvalidateCache(ctx)
	} else {
		carSvc = service.NewCarCatalogService(repository.NewStaticCarRepository(nil), cacheSvc, validate, logr)
	}

	var taskSvc *service.TaskService
	if redisClient != nil {
		taskSvc = service.NewTaskService(repository.NewTaskRepository(redisClient, cfg.Tasks.RedisKey), validate, logr)
		if err := taskSvc.Load(ctx); err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
	} else {
		taskSvc = service.NewTaskService(nil, validate, logr)
	}

	var timetableSvc *service.TimetableService
	if cfg.Timetable.Persist && db != nil {
		timetableSvc = service.NewTimetableService(repository.NewTimetableRepository(db), metrics, validate, logr)
	} else {
		timetableSvc = service.NewTimetableService(nil, metrics, validate, logr)
	}
	if err := timetableSvc.Start(ctx, jobs.QueueConfig{
		Workers:    cfg.Timetable.SyncWorkers,
		MaxRetries: cfg.Timetable.SyncRetries,
		RetryDelay: cfg.Timetable.SyncRetryGap,
		Logger:     logr,
	}); err != nil {
		return fmt.Errorf("start timetable: %w", err)
	}

	docs, err := storage.NewDiskStore(cfg.Exports.Dir)
	if err != nil {
		return err
	}
	exportSvc := service.NewExportService(
		timetableSvc,
		docs,
		storage.NewLinkSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Exports.Retention},
		logr,
	)

	var authSvc *service.AuthService
	if cfg.Auth.Enabled {
		authSvc = service.NewAuthService(logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		})
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Auth:           authSvc,
		Timetable:      handler.NewTimetableHandler(timetableSvc),
		Exports:        handler.NewExportHandler(exportSvc),
		Cars:           handler.NewCarHandler(carSvc),
		Tasks:          handler.NewTaskHandler(taskSvc),
		Ops:            handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	if err := timetableSvc.Close(shutdownCtx); err != nil {
		logr.Error("final timetable sync failed", zap.Error(err))
	}
	return nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
