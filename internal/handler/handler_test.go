package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"namur-service/internal/config"
	"namur-service/internal/discovery"
	"namur-service/internal/discovery/tcp"
	internalDriver "namur-service/internal/driver"
	"namur-service/internal/model"
	"namur-service/internal/service"
	"namur-service/internal/simulator"
	"namur-service/internal/transport"
	"namur-service/internal/utils"
	"namur-service/pkg/driver"
)

type testEnv struct {
	router  *gin.Engine
	sim     *simulator.Server
	service *service.InstrumentService
	bus     *EventBus
	ws      *WebSocketHandler
}

func newTestEnv(t *testing.T, kind model.InstrumentType) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sim := simulator.NewServer(kind, nil)
	require.NoError(t, sim.Start(context.Background(), "127.0.0.1:0"))
	t.Cleanup(func() { sim.Close() })

	logger := zap.NewNop()
	inst, tr, err := internalDriver.NewDefaultRegistry(logger).Open(kind, sim.Addr(), driver.Options{},
		transport.WithReadTimeout(time.Second),
		transport.WithDrainTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	bus := NewEventBus(logger)
	go bus.Start(ctx)

	svc := service.NewInstrumentService(inst, tr, 50*time.Millisecond, bus, logger)
	ws := NewWebSocketHandler(svc, bus, nil, logger)
	t.Cleanup(func() {
		ws.CloseAll()
		cancel()
		svc.Close()
	})

	cfg := &config.Config{App: config.AppConfig{Name: "namur-service", Version: "test"}}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(utils.RequestIDKey, "test-request")
		c.Next()
	})
	NewHealthHandler(svc, cfg, logger).RegisterRoutes(&router.RouterGroup)
	NewInstrumentHandler(svc, logger).RegisterRoutes(router.Group("/api/v1"))
	ws.RegisterRoutes(router.Group("/ws"))

	return &testEnv{router: router, sim: sim, service: svc, bus: bus, ws: ws}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, utils.APIResponse, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp utils.APIResponse
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	return w.Code, resp, raw
}

func data(t *testing.T, raw map[string]any) map[string]any {
	t.Helper()
	d, ok := raw["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", raw)
	return d
}

func TestInstrumentHandler_Reading(t *testing.T) {
	env := newTestEnv(t, model.InstrumentHotplate)

	code, resp, raw := env.do(t, http.MethodGet, "/api/v1/instrument", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "test-request", resp.RequestID)

	d := data(t, raw)
	assert.Equal(t, "hotplate", d["instrument"])
	assert.Equal(t, "ONLINE", d["status"])
	reading := d["reading"].(map[string]any)
	assert.Contains(t, reading, "process_temp")

	code, _, _ = env.do(t, http.MethodGet, "/api/v1/instrument?cached=true", nil)
	assert.Equal(t, http.StatusNotFound, code)

	env.service.Poll(context.Background())
	code, _, raw = env.do(t, http.MethodGet, "/api/v1/instrument?cached=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hotplate", data(t, raw)["instrument"])
}

func TestInstrumentHandler_Misconfigured(t *testing.T) {
	env := newTestEnv(t, model.InstrumentHotplate)
	env.sim.SetMode(simulator.ModeCrosswired)

	code, resp, _ := env.do(t, http.MethodGet, "/api/v1/instrument", nil)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISCONFIGURED_DEVICE", resp.Error.Code)
}

func TestInstrumentHandler_InfoAndEquipment(t *testing.T) {
	env := newTestEnv(t, model.InstrumentShaker)

	code, _, raw := env.do(t, http.MethodGet, "/api/v1/instrument/info", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "MATRIX ORBITAL", data(t, raw)["name"])

	code, _, raw = env.do(t, http.MethodGet, "/api/v1/instrument/equipment", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, data(t, raw)["equipment"])

	code, _, _ = env.do(t, http.MethodGet, "/api/v1/instrument/error", nil)
	assert.Equal(t, http.StatusNotImplemented, code)
}

func TestInstrumentHandler_Setpoints(t *testing.T) {
	env := newTestEnv(t, model.InstrumentHotplate)

	code, resp, _ := env.do(t, http.MethodPut, "/api/v1/instrument/setpoints/process", map[string]any{"value": 72.5})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, 72.5, env.sim.Instrument().Value("IN_SP_1"))

	code, _, _ = env.do(t, http.MethodPut, "/api/v1/instrument/setpoints/shaker", map[string]any{"value": 5000})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = env.do(t, http.MethodPut, "/api/v1/instrument/setpoints/laser", map[string]any{"value": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = env.do(t, http.MethodPut, "/api/v1/instrument/setpoints/process", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestInstrumentHandler_ControlAndReset(t *testing.T) {
	env := newTestEnv(t, model.InstrumentHotplate)

	code, _, _ := env.do(t, http.MethodPost, "/api/v1/instrument/control/heater", map[string]any{"on": true})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.sim.Instrument().Flag("heater"))

	code, _, _ = env.do(t, http.MethodPost, "/api/v1/instrument/control/heater", map[string]any{"on": false})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, env.sim.Instrument().Flag("heater"))

	code, _, _ = env.do(t, http.MethodPost, "/api/v1/instrument/control/heater", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = env.do(t, http.MethodPost, "/api/v1/instrument/reset", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, env.sim.Instrument().Received(), "RESET")
}

func TestInstrumentHandler_RawCommands(t *testing.T) {
	env := newTestEnv(t, model.InstrumentOverheadStirrer)

	code, _, raw := env.do(t, http.MethodPost, "/api/v1/instrument/query", map[string]any{"command": "IN_PV_3"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 21.5, data(t, raw)["value"])

	code, _, _ = env.do(t, http.MethodPost, "/api/v1/instrument/command", map[string]any{"command": "OUT_SP_4 100"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 100.0, env.sim.Instrument().Value("IN_SP_4"))

	code, _, _ = env.do(t, http.MethodPost, "/api/v1/instrument/query", map[string]any{"command": "IN_PV_3\nRESET"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = env.do(t, http.MethodPost, "/api/v1/instrument/query", map[string]any{"command": strings.Repeat("A", 81)})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, raw = env.do(t, http.MethodGet, "/api/v1/instrument/stats", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, data(t, raw)["requests"])
	assert.Equal(t, 1.0, data(t, raw)["commands"])
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t, model.InstrumentVacuum)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "unhealthy", health.Checks["instrument"].Status)

	require.NoError(t, env.service.Connect(context.Background()))

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebSocketReadings(t *testing.T) {
	env := newTestEnv(t, model.InstrumentShaker)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/readings?events=reading"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot WebSocketMessage
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Type)

	require.Eventually(t, func() bool { return env.ws.GetConnectionStats().TotalConnections == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"READING"}, env.ws.GetConnectionStats().Clients[0].Events)

	env.service.Poll(context.Background())

	var event struct {
		Type string                `json:"type"`
		Data model.InstrumentEvent `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "event", event.Type)
	assert.Equal(t, model.EventReading, event.Data.EventType)
	assert.Equal(t, model.InstrumentShaker, event.Data.Instrument)
	assert.Contains(t, event.Data.Data, "reading")

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "ping", RequestID: "abc"}))
	var pong WebSocketMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)
	assert.Equal(t, "abc", pong.RequestID)

	conn.Close()
	require.Eventually(t, func() bool {
		return env.ws.GetConnectionStats().TotalConnections == 0 && env.bus.SubscriberCount() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bus.Start(ctx)
		close(done)
	}()

	all := bus.Subscribe()
	resets := bus.Subscribe(model.EventReset)

	bus.Publish(model.NewInstrumentEvent(model.EventReading, model.InstrumentHotplate, "x:1", nil))
	bus.Publish(model.NewInstrumentEvent(model.EventReset, model.InstrumentHotplate, "x:1", nil))

	receive := func(sub *Subscription) model.InstrumentEvent {
		select {
		case e := <-sub.C:
			return e
		case <-time.After(time.Second):
			t.Fatal("no event")
			return model.InstrumentEvent{}
		}
	}

	assert.Equal(t, model.EventReading, receive(all).EventType)
	assert.Equal(t, model.EventReset, receive(all).EventType)
	assert.Equal(t, model.EventReset, receive(resets).EventType)

	bus.Unsubscribe(resets)
	_, open := <-resets.C
	assert.False(t, open)
	assert.Equal(t, 1, bus.SubscriberCount())

	cancel()
	<-done
	_, open = <-all.C
	assert.False(t, open)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestDiscoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sim := simulator.NewServer(model.InstrumentShaker, nil)
	require.NoError(t, sim.Start(context.Background(), "127.0.0.1:0"))
	t.Cleanup(func() { sim.Close() })

	scanners := discovery.NewScannerManager(nil)
	scanners.RegisterScanner(tcp.NewScanner(nil, &tcp.Config{Addresses: []string{sim.Addr()}}))

	router := gin.New()
	NewDiscoveryHandler(scanners, internalDriver.NewDefaultRegistry(zap.NewNop()), zap.NewNop()).
		RegisterRoutes(router.Group("/api/v1"))

	get := func(path string) (int, map[string]any) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		return w.Code, raw
	}

	code, raw := get("/api/v1/discovery/scan?type=tcp&timeout=5s")
	require.Equal(t, http.StatusOK, code)
	d := data(t, raw)
	assert.Equal(t, 1.0, d["instruments_found"])
	instruments := d["instruments"].([]any)
	assert.Equal(t, "shaker", instruments[0].(map[string]any)["instrument_type"])

	code, _ = get("/api/v1/discovery/scan?type=usb")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get("/api/v1/discovery/scan?timeout=forever")
	assert.Equal(t, http.StatusBadRequest, code)

	code, raw = get("/api/v1/discovery/scanners")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"tcp"}, data(t, raw)["scanners"])

	code, raw = get("/api/v1/discovery/supported")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, data(t, raw)["instruments"], 4)
}
