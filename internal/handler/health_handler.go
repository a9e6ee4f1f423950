// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"namur-service/internal/config"
	"namur-service/internal/model"
	"namur-service/internal/service"
	"namur-service/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	service   *service.InstrumentService
	config    *config.Config
	startedAt time.Time
	logger    *utils.ServiceLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(instrumentService *service.InstrumentService, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service:   instrumentService,
		config:    config,
		startedAt: time.Now(),
		logger:    utils.NewServiceLogger(logger, "health-handler"),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck reports service and instrument health. An offline instrument
// degrades the service but does not make it unhealthy; the transport keeps
// reconnecting on its own.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	stats := h.service.Stats()
	instrument := CheckResult{
		Status:  "healthy",
		Message: "Instrument connected",
		Data: map[string]interface{}{
			"type":                 h.service.Type(),
			"address":              stats.Address,
			"state":                stats.State,
			"consecutive_failures": stats.ConsecutiveFailures,
			"last_activity":        stats.LastActivity,
		},
	}
	if status := h.service.Status(); status != model.InstrumentStatusOnline {
		health.Status = "degraded"
		instrument.Status = "unhealthy"
		instrument.Message = "Instrument " + string(status)
	}
	health.Checks["instrument"] = instrument

	if latest := h.service.Latest(); latest != nil {
		poller := CheckResult{
			Status: "healthy",
			Data: map[string]interface{}{
				"last_poll": latest.Timestamp,
			},
		}
		if latest.Error != "" {
			poller.Status = "unhealthy"
			poller.Message = latest.Error
			health.Status = "degraded"
		}
		health.Checks["poller"] = poller
	}

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Instrument connected"
// @Failure 503 {object} object{status=string,reason=string} "Instrument not connected"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if !h.service.Connected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "instrument not connected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
