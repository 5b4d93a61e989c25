package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fleet-track/tracking/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedHub pushes every accepted fix and triggered alert to connected
// websocket clients. It implements engine.Sink, so it can sit next to
// the pipeline dispatcher in a MultiSink.
type FeedHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *FeedHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Reader loop only notices disconnects; the feed is one-way.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *FeedHub) AcceptFix(af *domain.AcceptedFix) {
	h.broadcast(map[string]interface{}{
		"type":       "position",
		"vehicle_id": af.Fix.VehicleID,
		"latitude":   af.Fix.Latitude,
		"longitude":  af.Fix.Longitude,
		"speed_kmh":  af.Fix.SpeedKmh,
		"is_moving":  af.IsMoving,
		"timestamp":  af.Fix.Timestamp.Format(time.RFC3339),
	})
}

func (h *FeedHub) AcceptAlert(vehicleID string, a domain.Alert) {
	h.broadcast(map[string]interface{}{
		"type":       "alert",
		"vehicle_id": vehicleID,
		"alert_id":   a.ID,
		"alert_type": string(a.Type),
		"severity":   string(a.Severity),
		"message":    a.Message,
	})
}

func (h *FeedHub) broadcast(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *FeedHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.clients, conn)
}
