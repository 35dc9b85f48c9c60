package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/broker"
)

const (
	// RoleFaculty marks the client that starts sessions; its disconnect
	// ends its open session best-effort.
	RoleFaculty = "faculty"
	// RoleObserver marks student and dashboard clients.
	RoleObserver = "observer"
)

var upgrader = websocket.Upgrader{
	// Origin checking is delegated to the reverse proxy in deployment.
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades subscribe-channel requests and bridges broker events
// onto the connection.
type Handler struct {
	broker *broker.Broker
	logger zerolog.Logger
}

// NewHandler creates a websocket handler over the session broker.
func NewHandler(b *broker.Broker, logger zerolog.Logger) *Handler {
	return &Handler{
		broker: b,
		logger: logger.With().Str("component", "ws_handler").Logger(),
	}
}

// Handle upgrades the request and streams session events until the client
// goes away. Query parameters: identity (required), role (faculty|observer,
// default observer).
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		http.Error(w, "missing required query parameter: identity", http.StatusBadRequest)
		return
	}
	role := r.URL.Query().Get("role")
	switch role {
	case "":
		role = RoleObserver
	case RoleFaculty, RoleObserver:
	default:
		http.Error(w, "invalid role: must be 'faculty' or 'observer'", http.StatusBadRequest)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConnection(wsConn, identity, role)
	sub := h.broker.Subscribe()
	h.logger.Info().Str("identity", identity).Str("role", role).Msg("subscriber connected")

	go h.pumpEvents(conn, sub)
	go h.readLoop(conn, sub)
}

// pumpEvents forwards broker events to the connection until either side
// closes.
func (h *Handler) pumpEvents(conn *Connection, sub *broker.Subscription) {
	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Str("identity", conn.Identity()).
					Msg("dropping subscriber after write failure")
				h.teardown(conn, sub)
				return
			}
		case <-conn.Done():
			return
		}
	}
}

// readLoop discards inbound frames and detects the client going away. A
// faculty disconnect ends that faculty's open session best-effort; abnormal
// disappearance without a close frame is only noticed when the transport
// read fails.
func (h *Handler) readLoop(conn *Connection, sub *broker.Subscription) {
	defer h.teardown(conn, sub)
	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) teardown(conn *Connection, sub *broker.Subscription) {
	h.broker.Unsubscribe(sub)
	_ = conn.Close()
	if conn.Role() == RoleFaculty {
		if h.broker.EndSession(conn.Identity()) {
			h.logger.Info().Str("identity", conn.Identity()).
				Msg("ended session after faculty disconnect")
		}
	}
	h.logger.Info().Str("identity", conn.Identity()).Msg("subscriber disconnected")
}
