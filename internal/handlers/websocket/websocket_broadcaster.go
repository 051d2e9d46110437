package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/useCases"
)

// WebSocketBroadcaster implements Broadcaster for dashboard updates.
// Validation and recovery snapshots are pushed inside a typed envelope so
// the dashboard can route them.
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewWebSocketBroadcaster() *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Ensure interface compliance
var _ useCases.Broadcaster = (*WebSocketBroadcaster)(nil)

func (b *WebSocketBroadcaster) BroadcastValidation(v *model.SessionValidation) {
	b.broadcast(envelope{Type: "validation", Payload: v})
}

func (b *WebSocketBroadcaster) BroadcastRecovery(status *model.RecoveryStatus) {
	b.broadcast(envelope{Type: "recovery_status", Payload: status})
}

func (b *WebSocketBroadcaster) broadcast(env envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, err := json.Marshal(env)
	if err != nil {
		log.Printf("failed to marshal %s update: %v", env.Type, err)
		return
	}
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler returns an http.HandlerFunc to accept websocket connections.
func (b *WebSocketBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()
		// Read loop keeps the connection alive and reaps closed clients
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}
