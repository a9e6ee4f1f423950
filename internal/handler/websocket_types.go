// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`
	Events      []string        `json:"events,omitempty"`

	subscription *Subscription
	done         chan struct{}
	closeOnce    sync.Once
}

// close stops the client's write loop. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager tracks connected WebSocket clients
type ConnectionManager struct {
	clients *xsync.MapOf[string, *Client]
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: xsync.NewMapOf[string, *Client](),
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.clients.Store(client.ID, client)
}

// Unregister removes a client and reports whether it was registered
func (cm *ConnectionManager) Unregister(client *Client) bool {
	_, loaded := cm.clients.LoadAndDelete(client.ID)
	return loaded
}

// Get returns a client by ID
func (cm *ConnectionManager) Get(id string) (*Client, bool) {
	return cm.clients.Load(id)
}

// Count returns the number of connected clients
func (cm *ConnectionManager) Count() int {
	return cm.clients.Size()
}

// Range calls fn for every client until fn returns false
func (cm *ConnectionManager) Range(fn func(client *Client) bool) {
	cm.clients.Range(func(_ string, client *Client) bool {
		return fn(client)
	})
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	stats := &ConnectionStats{
		Clients: make([]*Client, 0, cm.clients.Size()),
	}
	cm.clients.Range(func(_ string, client *Client) bool {
		stats.Clients = append(stats.Clients, client)
		return true
	})
	stats.TotalConnections = len(stats.Clients)
	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int       `json:"total_connections"`
	Clients          []*Client `json:"clients"`
}
