package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "namur-service/docs"
	"namur-service/internal/config"
	"namur-service/internal/discovery"
	"namur-service/internal/driver"
	"namur-service/internal/handler"
	"namur-service/internal/model"
	"namur-service/internal/service"
	"namur-service/internal/simulator"
	"namur-service/internal/transport"
	pkgdriver "namur-service/pkg/driver"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	sim := simulator.NewServer(model.InstrumentHotplate, nil)
	require.NoError(t, sim.Start(context.Background(), "127.0.0.1:0"))
	t.Cleanup(func() { sim.Close() })

	logger := zap.NewNop()
	registry := driver.NewDefaultRegistry(logger)
	inst, tr, err := registry.Open(model.InstrumentHotplate, sim.Addr(), pkgdriver.Options{},
		transport.WithReadTimeout(time.Second),
	)
	require.NoError(t, err)

	bus := handler.NewEventBus(logger)
	svc := service.NewInstrumentService(inst, tr, time.Second, bus, logger)
	t.Cleanup(func() { svc.Close() })

	cfg := &config.Config{
		Security:  config.SecurityConfig{AllowedOrigins: []string{"*"}},
		Discovery: config.DiscoveryConfig{Enabled: true},
		App:       config.AppConfig{Name: "namur-service", Version: "test", Environment: "test"},
	}

	r := NewRouter(cfg, logger, svc, bus, discovery.NewScannerManager(logger), registry)
	t.Cleanup(func() { r.WebSocketHandler().CloseAll() })
	return r.SetupRouter()
}

func TestSwaggerRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "NAMUR Instrument Service API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/api/v1/instrument")
	assert.Contains(t, doc.Paths, "/health")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/swagger/index.html", w.Header().Get("Location"))
}

func TestRoutesRegistered(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/live", "/api/v1/discovery/scanners", "/api/v1/ws/connections"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
