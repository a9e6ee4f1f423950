// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"namur-service/internal/config"
	"namur-service/internal/discovery"
	"namur-service/internal/driver"
	"namur-service/internal/handler"
	"namur-service/internal/middleware"
	"namur-service/internal/service"
	"namur-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config            *config.Config
	logger            *zap.Logger
	instrumentService *service.InstrumentService
	eventBus          *handler.EventBus
	scanners          *discovery.ScannerManager
	driverRegistry    *driver.Registry
	wsHandler         *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	instrumentService *service.InstrumentService,
	eventBus *handler.EventBus,
	scanners *discovery.ScannerManager,
	driverRegistry *driver.Registry,
) *Router {
	return &Router{
		config:            config,
		logger:            logger,
		instrumentService: instrumentService,
		eventBus:          eventBus,
		scanners:          scanners,
		driverRegistry:    driverRegistry,
		wsHandler:         handler.NewWebSocketHandler(instrumentService, eventBus, config.Security.AllowedOrigins, logger),
	}
}

// WebSocketHandler returns the handler serving /ws
func (r *Router) WebSocketHandler() *handler.WebSocketHandler {
	return r.wsHandler
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if r.config.App.Environment == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Debug("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.instrumentService, r.config, r.logger)
	instrumentHandler := handler.NewInstrumentHandler(r.instrumentService, r.logger)

	// Health check routes
	healthHandler.RegisterRoutes(&router.RouterGroup)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	instrumentHandler.RegisterRoutes(apiV1)
	if r.config.Discovery.Enabled {
		handler.NewDiscoveryHandler(r.scanners, r.driverRegistry, r.logger).RegisterRoutes(apiV1)
	}
	apiV1.GET("/ws/connections", r.wsHandler.GetConnectionStatsHandler)

	// WebSocket routes
	r.wsHandler.RegisterRoutes(router.Group("/ws"))

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes serves the Swagger UI for the HTTP API
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
