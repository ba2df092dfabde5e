package ws

import (
	"log"
	"net/http"
)

// Handler subscribes a client to one media record's status stream via
// GET /ws?mediaID=... Every pipeline transition for that record is
// pushed as a JSON message until the client disconnects.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID := r.URL.Query().Get("mediaID")
		if mediaID == "" {
			http.Error(w, "missing mediaID", http.StatusBadRequest)
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "ws upgrade failed", http.StatusBadRequest)
			return
		}

		hub.Register(mediaID, conn)
		defer hub.Unregister(mediaID, conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.Printf("[WS] disconnect media=%s", mediaID)
				return
			}
		}
	}
}
