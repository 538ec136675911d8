package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// TokenValidator resolves a subscriber token to a user id.
type TokenValidator interface {
	UserID(token string) (string, error)
}

// TokenValidatorFunc adapts a function (e.g. token.UserID) to TokenValidator.
type TokenValidatorFunc func(token string) (string, error)

func (f TokenValidatorFunc) UserID(token string) (string, error) { return f(token) }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are filtered by the CORS layer in front of the status server.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades local subscribers. A subscriber must present a token for
// the user this engine syncs for.
type Handler struct {
	hub       *Hub
	validator TokenValidator
	userID    string
}

func NewHandler(hub *Hub, validator TokenValidator, userID string) *Handler {
	return &Handler{hub: hub, validator: validator, userID: userID}
}

// HandleConnection serves GET /ws?token=...
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.validator.UserID(token)
	if err != nil || (h.userID != "" && userID != h.userID) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for subscriber %s: %v", userID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
