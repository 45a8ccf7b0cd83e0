// Package cdp labels Chrome DevTools Protocol frames for display.
//
// It does not correlate commands with responses; frames are inspected one at a
// time and left untouched.
package cdp

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a frame.
type Kind int

const (
	// KindUnknown is a frame that is not a recognisable CDP message.
	KindUnknown Kind = iota
	// KindCommand is a client request carrying both id and method.
	KindCommand
	// KindResponse is a reply to a command, identified by id.
	KindResponse
	// KindEvent is a notification, identified by method.
	KindEvent
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindResponse:
		return "response"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Error represents a CDP protocol error.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.detail())
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// detail renders Data, unquoting it when it is a JSON string.
func (e *Error) detail() string {
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// Summary is what Describe extracts from a frame.
type Summary struct {
	Kind      Kind
	ID        int64
	Method    string
	SessionID string
	Error     *Error
}

// message is used internally to determine message type during parsing.
type message struct {
	ID        int64  `json:"id,omitempty"`
	Method    string `json:"method,omitempty"`
	Error     *Error `json:"error,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Describe classifies a raw frame. Frames that are not JSON objects, or that
// carry neither id nor method, are KindUnknown.
func Describe(frame string) Summary {
	var msg message
	if err := json.Unmarshal([]byte(frame), &msg); err != nil {
		return Summary{Kind: KindUnknown}
	}

	s := Summary{
		ID:        msg.ID,
		Method:    msg.Method,
		SessionID: msg.SessionID,
		Error:     msg.Error,
	}

	switch {
	case msg.ID != 0 && msg.Method != "":
		s.Kind = KindCommand
	case msg.ID != 0:
		s.Kind = KindResponse
	case msg.Method != "":
		s.Kind = KindEvent
	default:
		s.Kind = KindUnknown
	}
	return s
}

// Label renders the summary as a short tag such as "event Page.loadEventFired".
func (s Summary) Label() string {
	switch s.Kind {
	case KindCommand:
		return fmt.Sprintf("command #%d %s", s.ID, s.Method)
	case KindResponse:
		if s.Error != nil {
			return fmt.Sprintf("response #%d error %d", s.ID, s.Error.Code)
		}
		return fmt.Sprintf("response #%d", s.ID)
	case KindEvent:
		return "event " + s.Method
	default:
		return "frame"
	}
}
