package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/umx-campus/accesogo/internal/models"
)

// Hub maintains the set of connected guard stations and fans committed
// bitácora events out to them.
type Hub struct {
	// Registered clients map: StationID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound fan-out
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.StationID != "" {
				// A station reconnecting replaces its old connection
				if old, ok := h.clients[client.StationID]; ok {
					close(old.send)
					delete(h.clients, client.StationID)
				}
				h.clients[client.StationID] = client
				log.Printf("🖥️  Station connected: %s", client.StationID)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if client.StationID != "" {
				if _, ok := h.clients[client.StationID]; ok {
					delete(h.clients, client.StationID)
					close(client.send)
					log.Printf("📴 Station disconnected: %s", client.StationID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead; drop for this station
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastEvent pushes one committed bitácora event to every station. This
// satisfies the engine's Broadcaster interface.
func (h *Hub) BroadcastEvent(ev models.Bitacora) {
	msg, err := json.Marshal(map[string]interface{}{
		"type":  "BITACORA",
		"event": ev,
	})
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		// Feed is best-effort; the bitácora table remains the record
	}
}

// SendToStation sends a message to a specific station
func (h *Hub) SendToStation(stationID string, message interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[stationID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return false
	}

	select {
	case client.send <- jsonMsg:
		return true
	default:
		return false
	}
}
