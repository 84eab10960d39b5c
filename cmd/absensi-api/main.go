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
	"go.uber.org/zap"

	_ "github.com/noah-isme/absensi-api/api/swagger"
	"github.com/noah-isme/absensi-api/internal/handler"
	"github.com/noah-isme/absensi-api/internal/middleware"
	"github.com/noah-isme/absensi-api/internal/repository"
	"github.com/noah-isme/absensi-api/internal/service"
	"github.com/noah-isme/absensi-api/migrations"
	"github.com/noah-isme/absensi-api/pkg/cache"
	"github.com/noah-isme/absensi-api/pkg/config"
	"github.com/noah-isme/absensi-api/pkg/database"
	"github.com/noah-isme/absensi-api/pkg/logger"
)

// @title Absensi API
// @version 1.0.0
// @description Library visit check-in and statistics service
// @BasePath /
// @schemes http
// @securityDefinitions.apikey DeviceToken
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	location, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		return fmt.Errorf("load attendance timezone %q: %w", cfg.Attendance.Timezone, err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := migrations.Apply(ctx, db)
		cancel()
		if err != nil {
			return err
		}
		logr.Info("schema migrations applied")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Statistics.CacheTTL, logr, cfg.Statistics.CacheEnabled && redisClient != nil)

	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	studentSvc := service.NewStudentService(studentRepo, logr)
	checkinSvc := service.NewCheckinService(attendanceRepo, studentSvc, cacheSvc, metrics, logr, service.CheckinServiceConfig{
		Location:    location,
		RecentLimit: cfg.Attendance.RecentVisitsLimit,
	})
	statisticsSvc := service.NewStatisticsService(statisticsRepo, attendanceRepo, cacheSvc, metrics, logr, service.StatisticsServiceConfig{
		Location:     location,
		DefaultLimit: cfg.Statistics.TopVisitorsDefault,
		MaxLimit:     cfg.Statistics.TopVisitorsMax,
		RecentLimit:  cfg.Attendance.RecentVisitsLimit,
		CacheTTL:     cfg.Statistics.CacheTTL,
	})

	var deviceAuth gin.HandlerFunc
	if cfg.DeviceAuth.Enabled {
		tokens := service.NewDeviceTokenService(service.DeviceTokenConfig{
			Secret: cfg.DeviceAuth.Secret,
			Issuer: cfg.DeviceAuth.Issuer,
			TTL:    cfg.DeviceAuth.TokenTTL,
		})
		deviceAuth = middleware.DeviceAuth(tokens)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:     cfg,
		Logger:     logr,
		Metrics:    metrics,
		Students:   handler.NewStudentHandler(studentSvc),
		Attendance: handler.NewAttendanceHandler(checkinSvc, validator.New()),
		Statistics: handler.NewStatisticsHandler(statisticsSvc),
		Health: handler.NewHealthHandler(metrics, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"cache":    cacheRepo.Ping,
		}),
		DeviceAuth: deviceAuth,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.Bool("device_auth", cfg.DeviceAuth.Enabled),
			zap.Bool("statistics_cache", cacheSvc.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
