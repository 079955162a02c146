package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgConnected MessageType = "connected"
	MsgVerdict   MessageType = "verdict"
	MsgError     MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per player. A player may hold several
// connections, e.g. one per browser tab.
type Hub struct {
	conns map[string]map[*Connection]struct{} // playerID -> conns

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	log zerolog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	PlayerID string
	Send     chan []byte
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(playerID string) *Connection {
	return &Connection{
		PlayerID: playerID,
		Send:     make(chan []byte, 256),
	}
}

// BroadcastMessage is a message for every connection of one player
type BroadcastMessage struct {
	PlayerID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for playerID, conns := range h.conns {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, playerID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.PlayerID] == nil {
				h.conns[conn.PlayerID] = make(map[*Connection]struct{})
			}
			h.conns[conn.PlayerID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug().Str("player_id", conn.PlayerID).Msg("player connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.PlayerID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.PlayerID)
					}
					h.log.Debug().Str("player_id", conn.PlayerID).Msg("player disconnected")
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error().Err(err).Msg("failed to encode message")
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.PlayerID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connected returns the number of open connections for a player
func (h *Hub) Connected(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[playerID])
}

// BroadcastToPlayer sends a message to every connection of a player (implements service.Broadcaster)
func (h *Hub) BroadcastToPlayer(playerID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("failed to encode payload")
		return
	}
	msg := &BroadcastMessage{
		PlayerID: playerID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.log.Warn().Str("player_id", playerID).Msg("broadcast queue full, dropping message")
	}
}

// Close disconnects everyone and stops the hub
func (h *Hub) Close() {
	close(h.done)
}
