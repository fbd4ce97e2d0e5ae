package datachannel

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketBroadcaster delivers envelopes over a single gorilla/websocket
// connection. gorilla/websocket permits at most one concurrent writer per
// connection, so every send is serialized behind mu.
type WebSocketBroadcaster struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger zerolog.Logger
}

// NewWebSocketBroadcaster wraps an already-upgraded connection.
func NewWebSocketBroadcaster(conn *websocket.Conn, logger zerolog.Logger) *WebSocketBroadcaster {
	return &WebSocketBroadcaster{conn: conn, logger: logger}
}

// SendReliable writes envelope and returns any write error to the caller.
func (b *WebSocketBroadcaster) SendReliable(envelope Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteJSON(envelope)
}

// SendLossy writes envelope best-effort; a failure is logged and dropped
// rather than surfaced, since status and metrics updates never gate the
// transcript path.
func (b *WebSocketBroadcaster) SendLossy(envelope Envelope) {
	b.mu.Lock()
	err := b.conn.WriteJSON(envelope)
	b.mu.Unlock()
	if err != nil {
		b.logger.Warn().Err(err).Str("envelopeType", envelope.Type).Msg("dropped lossy data channel send")
	}
}

// Close closes the underlying connection.
func (b *WebSocketBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Close()
}
