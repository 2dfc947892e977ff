package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WriteWait is the timeout for writing to a WebSocket.
	WriteWait = 10 * time.Second

	// PongWait is the timeout for pong responses.
	PongWait = 60 * time.Second

	// PingPeriod is how often to send ping frames.
	PingPeriod = (PongWait * 9) / 10

	// MaxMessageSize is the maximum inbound message size allowed.
	MaxMessageSize = 512
)

// wsClient represents a single live WebSocket connection.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// wsMessage is the outbound message envelope for the live endpoint.
type wsMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// handleWebSocket upgrades the connection and starts the client pumps.
// The live endpoint is command driven: clients send "ping", "patterns",
// or "anomalies" as text frames and receive a typed JSON reply.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 256),
	}

	s.register <- client

	s.wg.Add(2)
	go s.writePump(client)
	go s.readPump(client)
}

// runClientManager handles client registration/unregistration.
func (s *Server) runClientManager() {
	defer s.wg.Done()

	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = true
			total := len(s.clients)
			s.clientsMu.Unlock()
			s.log.Info("WebSocket client connected (%d total)", total)

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				client.conn.Close()
			}
			remaining := len(s.clients)
			s.clientsMu.Unlock()
			s.log.Info("WebSocket client disconnected (%d remaining)", remaining)

		case <-s.ctx.Done():
			return
		}
	}
}

// readPump reads command frames from the client and queues replies.
func (s *Server) readPump(client *wsClient) {
	defer s.wg.Done()
	defer func() {
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()

	client.conn.SetReadLimit(MaxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(PongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Error("WebSocket error: %v", err)
			}
			return
		}

		reply := s.handleCommand(strings.TrimSpace(string(message)))
		if reply == nil {
			continue
		}

		data, err := json.Marshal(reply)
		if err != nil {
			s.log.Error("Failed to marshal WebSocket reply: %v", err)
			continue
		}

		select {
		case client.send <- data:
		default:
			// Client too slow, drop it
			return
		}
	}
}

// handleCommand maps a text command to its reply. Unknown commands are
// ignored.
func (s *Server) handleCommand(command string) *wsMessage {
	switch command {
	case "ping":
		return &wsMessage{Type: "pong", Timestamp: nowStamp()}
	case "patterns":
		return &wsMessage{Type: "patterns", Data: s.engine.DetectPatterns(s.ctx)}
	case "anomalies":
		return &wsMessage{Type: "anomalies", Data: s.engine.DetectAnomalies(s.ctx)}
	default:
		return nil
	}
}

// writePump sends queued messages and keepalive pings to the client.
func (s *Server) writePump(client *wsClient) {
	defer s.wg.Done()

	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}
