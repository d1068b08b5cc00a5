// Package ws provides the WebSocket chat endpoint.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/config"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/protocol"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	service  *service.Service
	hub      *hub
	upgrader websocket.Upgrader

	pingInterval   time.Duration
	writeTimeout   time.Duration
	readTimeout    time.Duration
	requestTimeout time.Duration
	maxMessageSize int64
}

// NewServer creates a new WebSocket server.
func NewServer(svc *service.Service, cfg *config.Config) *Server {
	s := &Server{
		service: svc,
		hub:     newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pingInterval:   orDefault(cfg.WSPingInterval, 30*time.Second),
		writeTimeout:   orDefault(cfg.WSWriteTimeout, 10*time.Second),
		readTimeout:    orDefault(cfg.WSReadTimeout, 60*time.Second),
		requestTimeout: orDefault(cfg.WSRequestTimeout, 2*time.Minute),
		maxMessageSize: 10 << 20,
	}
	if cfg.MaxUploadBytes > 0 {
		// Images arrive base64 encoded inside the JSON frame.
		s.maxMessageSize = cfg.MaxUploadBytes*4/3 + 64<<10
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/ws", s.HandleWebSocket)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		observability.LoggerFromContext(c.Request().Context()).Warn("failed to upgrade websocket", "error", err)
		return err
	}

	conn := newConnection(ws)
	ws.SetReadLimit(s.maxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *connection) {
	// Close first so a concurrent bind sees done before remove runs.
	defer func() {
		conn.close()
		s.hub.remove(conn)
	}()

	conn.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.Logger().Warn("websocket read failed", "conn_id", conn.id, "error", err)
			}
			return
		}
		conn.conn.SetReadDeadline(time.Now().Add(s.readTimeout))

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *connection) {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		conn.close()
	}()

	for {
		select {
		case <-conn.done:
			return

		case message := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				observability.Logger().Warn("websocket write failed", "conn_id", conn.id, "error", err)
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *connection, data []byte) {
	var baseMsg protocol.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(conn, "", "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case protocol.TypeChat:
		s.handleChat(conn, data)
	case protocol.TypeClear:
		s.handleClear(conn, data)
	default:
		s.sendError(conn, baseMsg.RequestID, baseMsg.SessionID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleChat runs a chat turn off the read loop so slow generations do not
// block pongs or further frames.
func (s *Server) handleChat(conn *connection, data []byte) {
	var msg protocol.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", "", protocol.ErrorCodeInvalidMessage, "invalid chat message")
		return
	}

	go func() {
		ctx, cancel := s.requestContext(msg.RequestID)
		defer cancel()

		resp, _ := s.service.Chat(ctx, domain.ChatRequest{
			SessionID:   msg.SessionID,
			Text:        msg.Text,
			ImageBase64: msg.ImageBase64,
		})
		s.hub.bind(conn, resp.SessionID)

		s.sendJSON(conn, protocol.ReplyMessage{
			Type:         protocol.TypeReply,
			Ts:           time.Now().UnixMilli(),
			RequestID:    msg.RequestID,
			ChatResponse: *resp,
		})
	}()
}

// handleClear clears a session and notifies every connection bound to it.
func (s *Server) handleClear(conn *connection, data []byte) {
	var msg protocol.ClearMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", "", protocol.ErrorCodeInvalidMessage, "invalid clear message")
		return
	}
	if msg.SessionID == "" {
		s.sendError(conn, msg.RequestID, "", protocol.ErrorCodeMissingSession, "session_id required")
		return
	}

	go func() {
		ctx, cancel := s.requestContext(msg.RequestID)
		defer cancel()

		if err := s.service.ClearSession(ctx, msg.SessionID); err != nil {
			s.sendError(conn, msg.RequestID, msg.SessionID, protocol.ErrorCodeClearFailed, err.Error())
			return
		}

		s.hub.bind(conn, msg.SessionID)
		s.hub.broadcastJSON(msg.SessionID, protocol.ClearedMessage{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.TypeCleared,
				Ts:        time.Now().UnixMilli(),
				RequestID: msg.RequestID,
				SessionID: msg.SessionID,
			},
			Message: "Chat history cleared.",
		})
	}()
}

// requestContext is detached from the upgrade request, which ends as soon
// as the handler returns.
func (s *Server) requestContext(requestID string) (context.Context, context.CancelFunc) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	ctx := observability.WithRequestID(context.Background(), requestID)
	return context.WithTimeout(ctx, s.requestTimeout)
}

func (s *Server) sendJSON(conn *connection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		observability.Logger().Error("failed to marshal websocket frame", "error", err)
		return
	}
	conn.enqueue(data)
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *connection, requestID, sessionID, code, message string) {
	s.sendJSON(conn, protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: sessionID,
		},
		Code:    code,
		Message: message,
	})
}
