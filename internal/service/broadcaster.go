package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToPlayer(playerID string, msgType string, payload interface{})
}

// Event types pushed to player connections
const (
	EventVerdict = "verdict"
)
