package transport

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/go-logr/logr"
	"github.com/smallnest/chanx"

	"github.com/grantcarthew/cdpwire/internal/event"
	"github.com/grantcarthew/cdpwire/internal/hrtime"
)

// inboundInitialCapacity is the starting size of the inbound queue; it grows as needed.
const inboundInitialCapacity = 64

// Message is one inbound text frame and the moment it was read.
type Message struct {
	Data       string
	ReceivedAt hrtime.Time
}

// Transport is an open WebSocket connection to a CDP endpoint.
//
// Inbound frames are queued without limit by a reader goroutine and delivered
// in arrival order by a single dispatch goroutine. The end notification follows
// the last message and fires exactly once, whether the connection was closed
// locally, by the remote side, or by a read error.
type Transport struct {
	id  string
	url string
	log logr.Logger

	mu      sync.Mutex
	conn    Conn // nil once the reader has stopped
	closing bool

	writeMu sync.Mutex

	messages event.Emitter[Message]
	end      event.Emitter[struct{}]

	inbound   *chanx.UnboundedChan[Message]
	startOnce sync.Once
	started   chan struct{}
	readDone  chan struct{}
	done      chan struct{}

	// inHandler is set while the dispatch goroutine runs handlers.
	inHandler atomic.Bool
}

func newTransport(id, url string, conn Conn, log logr.Logger) *Transport {
	t := &Transport{
		id:       id,
		url:      url,
		log:      log,
		conn:     conn,
		inbound:  chanx.NewUnboundedChan[Message](context.Background(), inboundInitialCapacity),
		started:  make(chan struct{}),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.readLoop(conn)
	go t.dispatch()
	return t
}

// ID returns the identifier used in this transport's log entries.
func (t *Transport) ID() string {
	return t.id
}

// URL returns the URL that was opened, after any redirect correction.
func (t *Transport) URL() string {
	return t.url
}

// Connected reports whether the underlying connection is still held.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// OnMessage registers a handler for inbound frames and returns a function that
// removes it. Handlers run one at a time on the dispatch goroutine.
//
// Frames are held until the first handler is registered (or Done or Close is
// called), so handlers registered right after Connect see every frame.
func (t *Transport) OnMessage(handler func(Message)) (unsubscribe func()) {
	off := t.messages.On(handler)
	t.start()
	return off
}

// OnEnd registers a handler that runs once when the transport terminates,
// after the last message. Registering it does not start delivery; end handlers
// run once OnMessage, Done or Close has been called.
// Handlers registered after termination are never called; use Done instead.
func (t *Transport) OnEnd(handler func()) (unsubscribe func()) {
	return t.end.On(func(struct{}) { handler() })
}

// Done returns a channel that is closed after the end handlers have run.
func (t *Transport) Done() <-chan struct{} {
	t.start()
	return t.done
}

// Send writes a text frame. It does nothing once the connection has ended,
// and write failures are not reported.
func (t *Transport) Send(message string) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return
	}

	t.log.V(2).Info("Sending frame", "data", message)

	t.writeMu.Lock()
	err := conn.Write(context.Background(), websocket.MessageText, []byte(message))
	t.writeMu.Unlock()

	if err != nil {
		t.log.V(1).Info("Dropped outbound frame", "error", err.Error())
	}
}

// Close closes the connection and blocks until the end handlers have run.
// It is safe to call more than once and concurrently with a remote close.
//
// While a message or end handler is running, including when Close is called
// from the handler itself, Close only waits for the connection to be released.
// The end handlers then run after the current handler returns; wait on Done to
// observe them. The returned error is always nil.
func (t *Transport) Close() error {
	t.start()

	t.mu.Lock()
	conn := t.conn
	initiate := conn != nil && !t.closing
	t.closing = true
	t.mu.Unlock()

	if initiate {
		if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
			t.log.V(1).Info("Close handshake failed", "error", err.Error())
		}
	}

	if t.inHandler.Load() {
		<-t.readDone
		return nil
	}

	<-t.done
	return nil
}

func (t *Transport) start() {
	t.startOnce.Do(func() { close(t.started) })
}

// readLoop moves frames from the connection into the inbound queue until the
// connection fails or closes. Errors after open are only logged; the end
// notification is the single signal callers observe.
func (t *Transport) readLoop(conn Conn) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			t.logReadEnd(err)
			break
		}
		msg := Message{Data: decodeText(data), ReceivedAt: hrtime.Now()}
		t.log.V(2).Info("Received frame", "data", msg.Data)
		t.inbound.In <- msg
	}

	_ = conn.CloseNow()

	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()

	close(t.inbound.In)
	close(t.readDone)
}

// dispatch delivers queued frames, then fires the end notification.
func (t *Transport) dispatch() {
	defer close(t.done)

	<-t.started
	for msg := range t.inbound.Out {
		t.inHandler.Store(true)
		t.messages.Fire(msg)
		t.inHandler.Store(false)
	}

	t.inHandler.Store(true)
	t.end.Fire(struct{}{})
	t.inHandler.Store(false)
}

func (t *Transport) logReadEnd(err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		t.log.V(1).Info("Connection closed")
		return
	}

	t.mu.Lock()
	closing := t.closing
	t.mu.Unlock()

	if closing || errors.Is(err, context.Canceled) {
		t.log.V(1).Info("Connection closed", "reason", err.Error())
		return
	}
	t.log.V(1).Info("Connection lost", "error", err.Error())
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
