// internal/handler/instrument_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"namur-service/internal/service"
	"namur-service/internal/utils"
)

// InstrumentHandler handles instrument-related HTTP requests
type InstrumentHandler struct {
	service *service.InstrumentService
	logger  *utils.ServiceLogger
}

// SetpointRequest changes the setpoint of one equipment
type SetpointRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

// ControlRequest switches one equipment on or off
type ControlRequest struct {
	On *bool `json:"on" binding:"required"`
}

// RawCommandRequest carries a raw NAMUR command such as "IN_PV_1"
type RawCommandRequest struct {
	Command string `json:"command" binding:"required,max=80"`
}

// NewInstrumentHandler creates a new instrument handler
func NewInstrumentHandler(instrumentService *service.InstrumentService, logger *zap.Logger) *InstrumentHandler {
	return &InstrumentHandler{
		service: instrumentService,
		logger:  utils.NewServiceLogger(logger, "instrument-handler"),
	}
}

// RegisterRoutes registers instrument routes
func (h *InstrumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	instrument := router.Group("/instrument")
	{
		instrument.GET("", h.GetReading)
		instrument.GET("/info", h.GetInfo)
		instrument.GET("/stats", h.GetStats)
		instrument.GET("/equipment", h.ListEquipment)
		instrument.GET("/error", h.GetError)
		instrument.PUT("/setpoints/:equipment", h.SetSetpoint)
		instrument.POST("/control/:equipment", h.Control)
		instrument.POST("/reset", h.Reset)
		instrument.POST("/query", h.Query)
		instrument.POST("/command", h.Command)
	}
}

// GetReading reads the instrument. ?cached=true returns the last polled
// snapshot instead of talking to the instrument.
// @Summary Read instrument
// @Tags Instrument
// @Produce json
// @Param cached query bool false "Return the last polled reading"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse "Instrument misconfigured"
// @Router /api/v1/instrument [get]
func (h *InstrumentHandler) GetReading(c *gin.Context) {
	if c.Query("cached") == "true" {
		latest := h.service.Latest()
		if latest == nil {
			utils.ErrorResponse(c, http.StatusNotFound, "No reading polled yet", nil)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Cached reading retrieved", latest)
		return
	}

	reading, err := h.service.Reading(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read instrument", zap.Error(err))
		utils.InstrumentErrorResponse(c, "Failed to read instrument", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Reading retrieved", gin.H{
		"instrument": h.service.Type(),
		"status":     h.service.Status(),
		"reading":    reading,
	})
}

// GetInfo reads the instrument identification
// @Summary Instrument info
// @Tags Instrument
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/instrument/info [get]
func (h *InstrumentHandler) GetInfo(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read instrument info", zap.Error(err))
		utils.InstrumentErrorResponse(c, "Failed to read instrument info", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Instrument info retrieved", info)
}

// GetStats returns the transport counters
func (h *InstrumentHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Instrument stats retrieved", h.service.Stats())
}

// ListEquipment lists what can be set and switched
func (h *InstrumentHandler) ListEquipment(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Equipment retrieved", gin.H{
		"instrument": h.service.Type(),
		"equipment":  h.service.Equipment(),
	})
}

// GetError reads the instrument error state
// @Summary Instrument error state
// @Tags Instrument
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 501 {object} utils.APIResponse "Instrument has no error readout"
// @Router /api/v1/instrument/error [get]
func (h *InstrumentHandler) GetError(c *gin.Context) {
	fault, err := h.service.Fault(c.Request.Context())
	if err != nil {
		utils.InstrumentErrorResponse(c, "Failed to read instrument error", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Instrument error state retrieved", fault)
}

// SetSetpoint changes the setpoint of one equipment
// @Summary Set setpoint
// @Tags Instrument
// @Accept json
// @Produce json
// @Param equipment path string true "Equipment name, e.g. process"
// @Param request body SetpointRequest true "Setpoint"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse "Setpoint out of range"
// @Failure 404 {object} utils.APIResponse "Unknown equipment"
// @Router /api/v1/instrument/setpoints/{equipment} [put]
func (h *InstrumentHandler) SetSetpoint(c *gin.Context) {
	var req SetpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	equipment := c.Param("equipment")
	if err := h.service.Set(c.Request.Context(), equipment, *req.Value, utils.GetRequestID(c)); err != nil {
		utils.InstrumentErrorResponse(c, "Failed to set setpoint", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Setpoint updated", gin.H{
		"equipment": equipment,
		"value":     *req.Value,
	})
}

// Control switches one equipment on or off
// @Summary Switch equipment
// @Tags Instrument
// @Accept json
// @Produce json
// @Param equipment path string true "Equipment name, e.g. heater"
// @Param request body ControlRequest true "On or off"
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/instrument/control/{equipment} [post]
func (h *InstrumentHandler) Control(c *gin.Context) {
	var req ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	equipment := c.Param("equipment")
	if err := h.service.Control(c.Request.Context(), equipment, *req.On, utils.GetRequestID(c)); err != nil {
		utils.InstrumentErrorResponse(c, "Failed to switch equipment", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Equipment switched", gin.H{
		"equipment": equipment,
		"on":        *req.On,
	})
}

// Reset returns the instrument to normal operating mode
func (h *InstrumentHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), utils.GetRequestID(c)); err != nil {
		utils.InstrumentErrorResponse(c, "Failed to reset instrument", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Instrument reset", nil)
}

// Query sends a raw command and returns the decoded answer. A null value
// means the instrument did not answer.
// @Summary Raw query
// @Tags Instrument
// @Accept json
// @Produce json
// @Param request body RawCommandRequest true "Command"
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/instrument/query [post]
func (h *InstrumentHandler) Query(c *gin.Context) {
	var req RawCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	value, err := h.service.Query(c.Request.Context(), req.Command, utils.GetRequestID(c))
	if err != nil {
		utils.InstrumentErrorResponse(c, "Query failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Query completed", gin.H{
		"command": req.Command,
		"value":   value,
	})
}

// Command sends a raw command without reading an answer
func (h *InstrumentHandler) Command(c *gin.Context) {
	var req RawCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.service.Command(c.Request.Context(), req.Command, utils.GetRequestID(c)); err != nil {
		utils.InstrumentErrorResponse(c, "Command failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Command sent", gin.H{"command": req.Command})
}
