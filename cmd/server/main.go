// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	_ "namur-service/docs"
	"namur-service/internal/config"
	"namur-service/internal/discovery"
	serialscanner "namur-service/internal/discovery/serial"
	tcpscanner "namur-service/internal/discovery/tcp"
	"namur-service/internal/driver"
	"namur-service/internal/handler"
	"namur-service/internal/model"
	"namur-service/internal/protocol"
	"namur-service/internal/routes"
	"namur-service/internal/service"
	"namur-service/internal/simulator"
	"namur-service/internal/transport"
	"namur-service/internal/utils"
	pkgdriver "namur-service/pkg/driver"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	driverRegistry    *driver.Registry
	scannerManager    *discovery.ScannerManager
	simulator         *simulator.Server
	eventBus          *handler.EventBus
	instrumentService *service.InstrumentService
	router            *routes.Router

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// @title NAMUR Instrument Service API
// @version 1.0.0
// @description Reads and controls a laboratory instrument over the NAMUR protocol
// @BasePath /
func main() {
	configDir := pflag.StringP("config", "c", "./configs", "directory containing config.yaml")
	pflag.Parse()

	app, err := NewApplication(*configDir, ".")
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication(configPaths ...string) (*Application, error) {
	cfg, err := config.Load(configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "namur-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDriverRegistry(); err != nil {
		return nil, fmt.Errorf("failed to initialize driver registry: %w", err)
	}

	if err := app.initializeInstrument(); err != nil {
		return nil, fmt.Errorf("failed to initialize instrument: %w", err)
	}

	app.initializeDiscovery()

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDriverRegistry sets up the instrument driver registry
func (app *Application) initializeDriverRegistry() error {
	app.driverRegistry = driver.NewDefaultRegistry(app.logger)

	if !app.driverRegistry.IsSupported(app.config.InstrumentType()) {
		return fmt.Errorf("no driver for instrument type %q", app.config.Instrument.Type)
	}

	app.logger.Info("Driver registry initialized successfully",
		zap.Int("registered_drivers", len(app.driverRegistry.ListDrivers())),
	)
	return nil
}

// initializeInstrument opens the transport and driver for the configured
// instrument, starting a simulator first when asked to
func (app *Application) initializeInstrument() error {
	cfg := app.config.Instrument
	address := cfg.Address

	if cfg.Simulate {
		app.simulator = simulator.NewServer(app.config.InstrumentType(), app.logger)
		if err := app.simulator.Start(context.Background(), "127.0.0.1:0"); err != nil {
			return fmt.Errorf("failed to start simulator: %w", err)
		}
		address = app.simulator.Addr()
	}

	serial := cfg.Serial
	instrument, tr, err := app.driverRegistry.Open(
		app.config.InstrumentType(),
		address,
		pkgdriver.Options{IncludeSurfaceControl: cfg.IncludeSurfaceControl},
		transport.WithConnectTimeout(cfg.ConnectTimeout),
		transport.WithReadTimeout(cfg.ReadTimeout),
		transport.WithDrainTimeout(cfg.DrainTimeout),
		transport.WithMaxTimeouts(cfg.MaxTimeouts),
		transport.WithSerialConfig(&serial),
	)
	if err != nil {
		return err
	}

	app.eventBus = handler.NewEventBus(app.logger)
	app.instrumentService = service.NewInstrumentService(instrument, tr, cfg.PollInterval, app.eventBus, app.logger)

	app.logger.Info("Instrument initialized successfully",
		zap.String("instrument_type", cfg.Type),
		zap.String("address", address),
		zap.Bool("simulated", cfg.Simulate),
	)
	return nil
}

// initializeDiscovery registers the serial and TCP scanners. The address of
// the configured instrument is never probed.
func (app *Application) initializeDiscovery() {
	cfg := app.config.Discovery
	app.scannerManager = discovery.NewScannerManager(app.logger)
	if !cfg.Enabled {
		return
	}

	var inUse string
	if !app.config.Instrument.Simulate {
		inUse = app.config.Instrument.Address
	}

	if cfg.SerialPorts {
		serialConfig := &serialscanner.Config{
			ProbeTimeout: cfg.ProbeTimeout,
			PortPatterns: cfg.PortPatterns,
		}
		if addr, err := protocol.ParseAddress(inUse); err == nil && addr.Type == model.ConnectionTypeSerial {
			serialConfig.Exclude = []string{addr.Path}
		}
		app.scannerManager.RegisterScanner(serialscanner.NewScanner(app.logger, serialConfig))
	}

	addresses := make([]string, 0, len(cfg.TCPAddresses))
	for _, address := range cfg.TCPAddresses {
		if address != inUse {
			addresses = append(addresses, address)
		}
	}
	app.scannerManager.RegisterScanner(tcpscanner.NewScanner(app.logger, &tcpscanner.Config{
		Addresses:    addresses,
		ProbeTimeout: cfg.ProbeTimeout,
	}))

	app.logger.Info("Discovery initialized",
		zap.Strings("scanners", app.scannerManager.GetAvailableScanners()),
	)
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	app.router = routes.NewRouter(
		app.config,
		app.logger,
		app.instrumentService,
		app.eventBus,
		app.scannerManager,
		app.driverRegistry,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.config.GetServerAddr()))
	return nil
}

// startBackgroundServices starts the event bus and the instrument poller
func (app *Application) startBackgroundServices() {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.wg.Add(2)
	go func() {
		defer app.wg.Done()
		app.eventBus.Start(ctx)
	}()
	go func() {
		defer app.wg.Done()
		if err := app.instrumentService.Run(ctx); err != nil {
			app.logger.Error("Instrument poller stopped", zap.Error(err))
		}
	}()

	app.logger.Info("Background services started")
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "namur-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.router.WebSocketHandler().CloseAll()
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Stop polling before the transport goes away
	if app.cancel != nil {
		app.cancel()
	}
	app.wg.Wait()

	if err := app.instrumentService.Close(); err != nil {
		app.logger.Error("Instrument close error", zap.Error(err))
	} else {
		app.logger.Info("Instrument connection closed")
	}

	if app.simulator != nil {
		app.simulator.Close()
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP and blocks until a shutdown signal is handled
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()
	app.waitForShutdown()

	return nil
}
