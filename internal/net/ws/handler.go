package ws

import (
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	server "stackduel/server"
	"stackduel/server/internal/telemetry"
)

type HandlerConfig struct {
	Logger telemetry.Logger
}

// Handler upgrades websocket requests and pumps decoded messages into the
// addressed room. Each connection serves exactly one room.
type Handler struct {
	registry *server.Registry
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(registry *server.Registry, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	return &Handler{
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		nethttp.Error(w, "missing room", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for room %s: %v", roomID, err)
		return
	}

	room := h.registry.Room(roomID)
	session := NewSession(conn)
	defer session.Close()

	// The player identity arrives in the join message, not the URL; until
	// it does, a dropped connection has nothing to report.
	playerID := ""
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if playerID != "" {
				room.HandleDisconnect(playerID)
			}
			return
		}

		msg, err := server.DecodeClientMessage(payload)
		if err != nil {
			// Protocol errors go back to the offending sender only; the
			// room never sees them.
			if serr := session.Send(server.ServerError("bad_message", err.Error())); serr != nil {
				h.logger.Printf("error reply failed for room %s: %v", roomID, serr)
			}
			continue
		}

		if join, ok := msg.(server.JoinMessage); ok {
			playerID = join.PlayerID
			room.HandleJoin(join, session)
			continue
		}
		room.HandleMessage(msg, session)
	}
}
