// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"namur-service/internal/model"
	"namur-service/internal/service"
	"namur-service/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketHandler streams instrument readings and state changes
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	service     *service.InstrumentService
	eventBus    *EventBus
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	instrumentService *service.InstrumentService,
	eventBus *EventBus,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		connections: NewConnectionManager(),
		service:     instrumentService,
		eventBus:    eventBus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/readings", h.HandleReadings)
}

// HandleReadings upgrades the connection and pushes every instrument event.
// ?events=READING,STATE_CHANGE limits the stream to the listed types.
func (h *WebSocketHandler) HandleReadings(c *gin.Context) {
	types := parseEventTypes(c.Query("events"))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:           uuid.NewString(),
		Connection:   conn,
		Send:         make(chan []byte, 256),
		UserAgent:    c.Request.UserAgent(),
		RemoteAddr:   c.Request.RemoteAddr,
		ConnectedAt:  time.Now(),
		subscription: h.eventBus.Subscribe(types...),
		done:         make(chan struct{}),
	}
	for _, t := range types {
		client.Events = append(client.Events, string(t))
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
		zap.Strings("events", client.Events),
	)

	h.sendSnapshot(client)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer h.disconnect(client)

	client.Connection.SetReadLimit(4096)
	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		return client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}

		switch message.Type {
		case "ping":
			h.sendMessage(client, &WebSocketMessage{Type: "pong", Timestamp: time.Now(), RequestID: message.RequestID})
		case "snapshot":
			h.sendSnapshot(client)
		default:
			h.sendError(client, "unknown message type: "+message.Type)
		}
	}
}

// handleClientWrite forwards bus events and queued messages to the client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case <-client.done:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			client.Connection.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case event, ok := <-client.subscription.C:
			if !ok {
				client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
				client.Connection.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if !h.write(client, &WebSocketMessage{Type: "event", Data: event, Timestamp: event.Timestamp}) {
				return
			}

		case message := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warn("WebSocket write error", zap.Error(err), zap.String("client_id", client.ID))
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) write(client *Client, message *WebSocketMessage) bool {
	client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.Connection.WriteJSON(message); err != nil {
		h.logger.Warn("WebSocket write error", zap.Error(err), zap.String("client_id", client.ID))
		return false
	}
	return true
}

func (h *WebSocketHandler) disconnect(client *Client) {
	if h.connections.Unregister(client) {
		h.eventBus.Unsubscribe(client.subscription)
		h.logger.Info("WebSocket client disconnected", zap.String("client_id", client.ID))
	}
	client.close()
}

// sendSnapshot queues the current connection status and last reading
func (h *WebSocketHandler) sendSnapshot(client *Client) {
	h.sendMessage(client, &WebSocketMessage{
		Type: "snapshot",
		Data: gin.H{
			"instrument": h.service.Type(),
			"status":     h.service.Status(),
			"latest":     h.service.Latest(),
		},
		Timestamp: time.Now(),
	})
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      gin.H{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// CloseAll disconnects every client
func (h *WebSocketHandler) CloseAll() {
	h.connections.Range(func(client *Client) bool {
		client.close()
		return true
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}

// GetConnectionStatsHandler serves the connection statistics
func (h *WebSocketHandler) GetConnectionStatsHandler(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "WebSocket connections retrieved", h.GetConnectionStats())
}

func parseEventTypes(raw string) []model.EventType {
	var types []model.EventType
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			types = append(types, model.EventType(part))
		}
	}
	return types
}

// originChecker allows same-host requests, requests without an Origin
// header and the configured origins. "*" allows everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return strings.HasSuffix(origin, "://"+r.Host)
	}
}
