package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-logr/logr"
)

// mockConn implements the Conn interface for testing.
type mockConn struct {
	mu         sync.Mutex
	readCh     chan []byte
	written    [][]byte
	writeErr   error
	closed     bool
	closeCalls int
	closeNows  int
	closeCh    chan struct{}
}

func newMockConn(messages ...string) *mockConn {
	m := &mockConn{
		readCh:  make(chan []byte, len(messages)+10),
		closeCh: make(chan struct{}),
	}
	for _, msg := range messages {
		m.readCh <- []byte(msg)
	}
	return m
}

func (m *mockConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	// Queued frames win over a pending close, as they would on the wire.
	select {
	case msg, ok := <-m.readCh:
		if !ok {
			return 0, nil, errors.New("connection reset")
		}
		return websocket.MessageText, msg, nil
	default:
	}

	select {
	case msg, ok := <-m.readCh:
		if !ok {
			return 0, nil, errors.New("connection reset")
		}
		return websocket.MessageText, msg, nil
	case <-m.closeCh:
		return 0, nil, websocket.CloseError{Code: websocket.StatusNormalClosure}
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (m *mockConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	if m.closed {
		return errors.New("write on closed connection")
	}
	m.written = append(m.written, data)
	return nil
}

func (m *mockConn) Close(code websocket.StatusCode, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	m.markClosed()
	return nil
}

func (m *mockConn) CloseNow() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeNows++
	m.markClosed()
	return nil
}

// markClosed must be called with mu held.
func (m *mockConn) markClosed() {
	if !m.closed {
		m.closed = true
		close(m.closeCh)
	}
}

// remoteClose simulates the peer closing the connection.
func (m *mockConn) remoteClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markClosed()
}

// fail simulates a transport error on the read side.
func (m *mockConn) fail() {
	close(m.readCh)
}

func (m *mockConn) queue(msg string) {
	m.readCh <- []byte(msg)
}

func (m *mockConn) getWritten() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.written))
	for i, w := range m.written {
		result[i] = string(w)
	}
	return result
}

func (m *mockConn) closeCounts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls, m.closeNows
}

func newTestTransport(conn Conn) *Transport {
	return newTransport("test", "ws://localhost/test", conn, logr.Discard())
}
