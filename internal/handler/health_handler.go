package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/absensi-api/internal/service"
	"github.com/noah-isme/absensi-api/pkg/response"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether one dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler exposes liveness, readiness and metrics endpoints.
type HealthHandler struct {
	metrics *service.MetricsService
	checks  map[string]ReadinessCheck
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(metrics *service.MetricsService, checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{metrics: metrics, checks: checks}
}

// Health responds when the process is up.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every dependency check and responds 503 when any fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			_ = c.Error(err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// Prometheus serves the Prometheus scrape endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary In-process metrics snapshot
// @Tags Observability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *HealthHandler) Summary(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
