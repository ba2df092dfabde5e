package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans pipeline status events out to websocket subscribers. Rooms are
// keyed by media id; a room disappears with its last connection.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Register(mediaID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[mediaID]; !ok {
		h.rooms[mediaID] = make(map[*websocket.Conn]bool)
	}

	h.rooms[mediaID][conn] = true
	log.Printf("[hub] register media=%s conns=%d", mediaID, len(h.rooms[mediaID]))
}

func (h *Hub) Unregister(mediaID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[mediaID]
	if !ok {
		return
	}

	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
		log.Printf("[hub] unregister media=%s conns=%d", mediaID, len(conns))
	}

	if len(conns) == 0 {
		delete(h.rooms, mediaID)
	}
}

func (h *Hub) SendToRoom(mediaID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[mediaID]
	if !ok || len(conns) == 0 {
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[hub][SEND-ERR] media=%s err=%v", mediaID, err)
		}
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
