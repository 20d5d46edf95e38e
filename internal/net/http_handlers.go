package net

import (
	"encoding/json"
	"net/http"
	"time"

	server "stackduel/server"
	"stackduel/server/internal/net/ws"
	"stackduel/server/internal/telemetry"
)

type HTTPHandlerConfig struct {
	Logger telemetry.Logger
}

type diagnosticsResponse struct {
	Rooms      int   `json:"rooms"`
	ServerTime int64 `json:"serverTime"`
}

// NewHTTPHandler wires the websocket endpoint plus the health and
// diagnostics routes.
func NewHTTPHandler(registry *server.Registry, cfg HTTPHandlerConfig) http.Handler {
	mux := http.NewServeMux()

	wsHandler := ws.NewHandler(registry, ws.HandlerConfig{Logger: cfg.Logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(diagnosticsResponse{
			Rooms:      registry.Count(),
			ServerTime: time.Now().UnixMilli(),
		})
	})

	return mux
}
