package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/absensi-api/internal/middleware"
	"github.com/noah-isme/absensi-api/internal/service"
	"github.com/noah-isme/absensi-api/pkg/config"
	"github.com/noah-isme/absensi-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/absensi-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/absensi-api/pkg/middleware/requestid"
)

// RouterDeps carries everything the HTTP surface needs.
// DeviceAuth is nil when scanner tokens are not enforced.
type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *service.MetricsService
	Students   *StudentHandler
	Attendance *AttendanceHandler
	Statistics *StatisticsHandler
	Health     *HealthHandler
	DeviceAuth gin.HandlerFunc
}

// NewRouter builds the gin engine with the shared middleware chain and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.Health.Health)
	r.GET("/ready", deps.Health.Ready)
	r.GET("/metrics", deps.Health.Prometheus)
	r.GET("/metrics/summary", deps.Health.Summary)

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)

	students := api.Group("/students")
	students.GET("", deps.Students.List)
	students.GET("/card/:cardId", deps.Students.ByCard)

	attendance := api.Group("/attendance")
	attendance.GET("/recent", deps.Attendance.Recent)
	checkins := attendance.Group("")
	if deps.DeviceAuth != nil {
		checkins.Use(deps.DeviceAuth)
	}
	checkins.POST("", deps.Attendance.Submit)
	checkins.POST("/scan", deps.Attendance.Scan)

	statistics := api.Group("/statistics")
	statistics.GET("", deps.Statistics.Get)
	statistics.GET("/top-visitors", deps.Statistics.TopVisitors)
	statistics.GET("/overview", deps.Statistics.Overview)

	return r
}
