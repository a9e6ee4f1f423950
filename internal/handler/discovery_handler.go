// internal/handler/discovery_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"namur-service/internal/discovery"
	"namur-service/internal/driver"
	"namur-service/internal/utils"
)

const maxScanTimeout = 2 * time.Minute

// DiscoveryHandler handles instrument discovery requests
type DiscoveryHandler struct {
	scanners *discovery.ScannerManager
	registry *driver.Registry
	logger   *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(scanners *discovery.ScannerManager, registry *driver.Registry, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		scanners: scanners,
		registry: registry,
		logger:   utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discoveryGroup := router.Group("/discovery")
	{
		discoveryGroup.GET("/scan", h.ScanInstruments)
		discoveryGroup.GET("/scanners", h.GetScanners)
		discoveryGroup.GET("/supported", h.GetSupportedInstruments)
	}
}

// ScanInstruments probes serial ports and configured gateways with IN_NAME
// @Summary Scan for instruments
// @Tags Discovery
// @Produce json
// @Param type query string false "Scan type" Enums(all, serial, tcp) default(all)
// @Param timeout query string false "Scan timeout" default(30s)
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/discovery/scan [get]
func (h *DiscoveryHandler) ScanInstruments(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")

	timeout, err := time.ParseDuration(c.DefaultQuery("timeout", "30s"))
	if err != nil || timeout <= 0 || timeout > maxScanTimeout {
		utils.ValidationErrorResponse(c, map[string]string{"timeout": "must be a duration between 0 and 2m"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var found []*discovery.DiscoveredInstrument
	if scanType == "all" {
		found, err = h.scanners.ScanAll(ctx)
	} else {
		found, err = h.scanners.ScanByType(ctx, scanType)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		status := http.StatusInternalServerError
		if errors.Is(err, discovery.ErrUnknownScanner) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Failed to scan for instruments", zap.Error(err))
		utils.ErrorResponse(c, status, "Failed to scan for instruments", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Instrument scan completed", gin.H{
		"instruments_found": len(found),
		"instruments":       found,
		"complete":          err == nil,
	})
}

// GetScanners lists the available scanner types
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", gin.H{
		"scanners": h.scanners.GetAvailableScanners(),
	})
}

// GetSupportedInstruments lists the instrument families with a driver
func (h *DiscoveryHandler) GetSupportedInstruments(c *gin.Context) {
	types := h.registry.ListDrivers()
	drivers := make([]gin.H, 0, len(types))
	for _, t := range types {
		reg, _ := h.registry.Lookup(t)
		drivers = append(drivers, gin.H{
			"type":        t,
			"description": reg.Description,
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "Supported instruments retrieved", gin.H{
		"instruments": drivers,
	})
}
