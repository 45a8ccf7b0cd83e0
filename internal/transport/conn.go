// Package transport maintains a single message-framed WebSocket channel to a
// Chrome DevTools Protocol endpoint and exposes it as a text frame stream.
package transport

import (
	"context"

	"github.com/coder/websocket"
)

// Conn defines the WebSocket operations the transport relies on.
// *websocket.Conn satisfies it; tests substitute mock connections.
type Conn interface {
	// Read reads a message from the connection.
	// Returns message type, payload, and any error.
	Read(ctx context.Context) (websocket.MessageType, []byte, error)

	// Write writes a message to the connection.
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error

	// Close performs the close handshake with a status code and reason.
	Close(code websocket.StatusCode, reason string) error

	// CloseNow releases the connection without a handshake.
	CloseNow() error
}
