package httpadapter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from arbitrary origins in dev; tenant isolation
	// happens on the user id, not the Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWebsocket upgrades GET /api/v1/ws/{user_id} and parks the connection
// in the hub until either side closes it.
func (rt *Router) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/ws/")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user id must be a positive integer"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	rt.hub.Serve(userID, conn)
}
