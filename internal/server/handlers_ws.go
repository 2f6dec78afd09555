package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/AntoDono/suscart/internal/registry"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards and store displays connect cross-origin
	},
}

// handleAdminWebSocket subscribes a connection to the admin broadcast set.
func (s *Server) handleAdminWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	// The welcome frame goes out before the writer goroutine takes over the
	// connection, so it is always the first frame a subscriber sees.
	s.writeWelcome(conn, map[string]any{"role": string(registry.RoleAdmin)})

	if err := s.registry.Register(conn, registry.RoleAdmin, uuid.Nil); err != nil {
		slog.Error("Failed to register admin connection", "error", err)
		_ = conn.Close()
		return nil
	}

	s.readPump(conn)
	return nil
}

// handleCustomerWebSocket subscribes a connection to one customer's channel.
// The customer must exist; multiple concurrent sessions are allowed up to the
// configured limit.
func (s *Server) handleCustomerWebSocket(c echo.Context) error {
	customerID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if _, err := s.app.GetCustomer(c.Request().Context(), customerID); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	s.writeWelcome(conn, map[string]any{
		"role":        string(registry.RoleCustomer),
		"customer_id": customerID,
	})

	if err := s.registry.Register(conn, registry.RoleCustomer, customerID); err != nil {
		// The registry closes rejected connections itself.
		slog.Warn("Failed to register customer connection", "customer_id", customerID.String(), "error", err)
		return nil
	}

	s.readPump(conn)
	return nil
}

func (s *Server) writeWelcome(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(s.broadcaster.Envelope(domain.EventConnected, payload))
	if err != nil {
		slog.Error("Failed to marshal welcome frame", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Warn("Failed to write welcome frame", "error", err)
	}
}

// readPump blocks until the peer disconnects, then unregisters. Inbound
// frames are drained and ignored; the channels are server-to-client only.
func (s *Server) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.registry.Unregister(conn)
}
