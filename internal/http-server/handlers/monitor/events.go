package monitor

import (
	"WaReply/internal/ws"
	"log/slog"
	"net/http"
)

// Events streams dispatch events over a WebSocket.
func Events(log *slog.Logger, hub *ws.Hub, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, key, log, w, r)
	}
}
