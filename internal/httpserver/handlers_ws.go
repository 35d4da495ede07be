package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Viewers connect from arbitrary frontends; the stream is
		// read-only, so origin checks buy nothing here.
		return true
	},
}

const maxInboundMessageSize = 4096

// handleWebSocket upgrades a viewer connection and serves its join
// requests until it closes. Clients start in no rooms.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()
	if !s.limits.allowConnect(ip) {
		return c.String(429, "Too many connection attempts")
	}
	if !s.limits.acquire() {
		return c.String(503, "Connection limit reached")
	}
	defer s.limits.release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}

	client, err := s.hub.Register(conn)
	if err != nil {
		slog.Error("Failed to register WebSocket client", "error", err)
		conn.Close()
		return nil
	}

	conn.SetReadLimit(maxInboundMessageSize)

	// Read pump. The only meaningful inbound message is a join request;
	// anything else is ignored.
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req ws.JoinRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		if len(req.Join) > 0 {
			s.hub.Join(client, req.Join)
		}
	}

	s.hub.Unregister(client)
	return nil
}
