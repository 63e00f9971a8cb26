package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/taskboard-be/internal/services"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades connections to the per-user task feed.
type WebSocketHandler struct {
	hub      *ws.Hub
	users    services.UserServiceProvider
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Browser connections are
// accepted from allowedOrigins only; "*" accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, users services.UserServiceProvider, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		users: users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// Serve handles GET /api/users/{id}/ws.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid user ID")
		return
	}

	exists, err := h.users.UserExists(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to check user for task feed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to open task feed")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, CodeNotFound, "User not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		var hsErr websocket.HandshakeError
		if !errors.As(err, &hsErr) {
			log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		}
		return
	}

	client := ws.NewClient(h.hub, conn, ws.UserTopic(userID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
