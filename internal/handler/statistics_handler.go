package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/absensi-api/internal/dto"
	"github.com/noah-isme/absensi-api/internal/middleware"
	"github.com/noah-isme/absensi-api/internal/models"
	"github.com/noah-isme/absensi-api/internal/service"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
	"github.com/noah-isme/absensi-api/pkg/response"
)

type statisticsService interface {
	Compute(ctx context.Context, scope models.Scope, window models.Window, group service.VisitorGroup) (*models.StatisticsResult, bool, error)
	TopVisitors(ctx context.Context, scope models.Scope, window models.Window, limit int, group service.VisitorGroup) ([]models.RankedVisitor, bool, error)
	Overview(ctx context.Context, scope models.Scope, window models.Window, limit int) (*models.StatisticsOverview, error)
}

// StatisticsHandler serves visit averages and rankings.
type StatisticsHandler struct {
	service statisticsService
}

// NewStatisticsHandler constructs the handler.
func NewStatisticsHandler(service statisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

type statisticsRequest struct {
	scope  models.Scope
	window models.Window
	limit  int
	group  service.VisitorGroup
}

func parseStatisticsRequest(c *gin.Context) (*statisticsRequest, error) {
	var query dto.StatisticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid statistics query")
	}
	scope, ok := models.ParseScope(query.Scope)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope must be one of global, class, level")
	}
	window, err := service.ParseWindow(query.WindowParams)
	if err != nil {
		return nil, err
	}
	limit, err := positiveLimit(query.Limit)
	if err != nil {
		return nil, err
	}
	level, err := optionalInt(firstQuery(c, "level", "tingkatan"), "level")
	if err != nil {
		return nil, err
	}

	req := &statisticsRequest{scope: scope, window: window, limit: limit}
	if class := firstQuery(c, "class", "kelas"); class != "" {
		req.group.Class = &class
	}
	req.group.Level = level
	return req, nil
}

// Get godoc
// @Summary Average visits per scope
// @Description Returns a single object for the global scope and an array of groups for class or level.
// @Tags Statistics
// @Produce json
// @Param scope query string false "global | class (kelas) | level (tingkatan)"
// @Param class query string false "Restrict to one class (alias kelas)"
// @Param level query int false "Restrict to one grade level (alias tingkatan)"
// @Param bulan query string false "Month YYYY-MM"
// @Param tahun query string false "Year YYYY"
// @Param startDate query string false "Range start YYYY-MM-DD"
// @Param endDate query string false "Range end YYYY-MM-DD"
// @Param period query string false "month | year | all"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /statistics [get]
func (h *StatisticsHandler) Get(c *gin.Context) {
	req, err := parseStatisticsRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, cacheHit, err := h.service.Compute(c.Request.Context(), req.scope, req.window, req.group)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := windowMeta(middleware.ExtractMeta(c), result.Scope, result.Window)

	if result.Scope == models.ScopeGlobal && len(result.Groups) > 0 {
		response.OK(c, result.Groups[0], meta)
		return
	}
	response.OK(c, result.Groups, meta)
}

// TopVisitors godoc
// @Summary Students ranked by visit count
// @Tags Statistics
// @Produce json
// @Param scope query string false "global | class | level"
// @Param limit query int false "Entries per group (default 5, max 50)"
// @Param class query string false "Restrict to one class"
// @Param level query int false "Restrict to one grade level"
// @Param bulan query string false "Month YYYY-MM"
// @Param tahun query string false "Year YYYY"
// @Param startDate query string false "Range start YYYY-MM-DD"
// @Param endDate query string false "Range end YYYY-MM-DD"
// @Param period query string false "month | year | all"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /statistics/top-visitors [get]
func (h *StatisticsHandler) TopVisitors(c *gin.Context) {
	req, err := parseStatisticsRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	visitors, cacheHit, err := h.service.TopVisitors(c.Request.Context(), req.scope, req.window, req.limit, req.group)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["scope"] = req.scope
	response.OK(c, visitors, meta)
}

// Overview godoc
// @Summary Statistics, top visitors and recent visits in one call
// @Tags Statistics
// @Produce json
// @Param scope query string false "global | class | level"
// @Param limit query int false "Top visitors per group"
// @Param period query string false "month | year | all"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /statistics/overview [get]
func (h *StatisticsHandler) Overview(c *gin.Context) {
	req, err := parseStatisticsRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.service.Overview(c.Request.Context(), req.scope, req.window, req.limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := windowMeta(middleware.ExtractMeta(c), overview.Statistics.Scope, overview.Statistics.Window)
	response.OK(c, overview, meta)
}

func windowMeta(meta map[string]interface{}, scope models.Scope, window models.WindowSummary) map[string]interface{} {
	meta["scope"] = scope
	meta["window"] = window.Kind
	meta["periode"] = window.Period
	if window.From != "" {
		meta["from"] = window.From
	}
	if window.To != "" {
		meta["to"] = window.To
	}
	if window.DaysInWindow != nil {
		meta["days_in_window"] = *window.DaysInWindow
	}
	return meta
}
