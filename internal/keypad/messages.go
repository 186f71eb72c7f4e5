package keypad

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/bhkiosk/internal/keyboard"
)

// Message types on the wire
const (
	TypeHello = "hello"
	TypeKey   = "key"
	TypeFocus = "focus"
	TypeClose = "close"
	TypeAck   = "ack"
	TypeError = "error"
)

// Message is a single JSON text frame in either direction.
type Message struct {
	Type    string `json:"type"`
	Key     string `json:"key,omitempty"`
	Field   string `json:"field,omitempty"`
	Session string `json:"session,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Event is a decoded keypad message handed to the Sink.
type Event struct {
	SessionID string
	Type      string       // TypeKey, TypeFocus or TypeClose
	Key       keyboard.Key // Set for TypeKey
	Field     string       // Set for TypeFocus
}

// Sink receives keypad events. A returned error is reported back to the
// keypad and does not close the session.
type Sink interface {
	HandleKeypad(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

// HandleKeypad calls f(e).
func (f SinkFunc) HandleKeypad(e Event) error {
	return f(e)
}

// ParseMessage decodes a client frame into an Event.
func ParseMessage(sessionID string, data []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("invalid message: %w", err)
	}

	ev := Event{SessionID: sessionID, Type: msg.Type}
	switch msg.Type {
	case TypeKey:
		ev.Key = keyboard.ParseKey(msg.Key)
		if ev.Key.Type == keyboard.KeyUnknown {
			return Event{}, fmt.Errorf("unknown key %q", msg.Key)
		}
	case TypeFocus:
		if msg.Field == "" {
			return Event{}, fmt.Errorf("focus message without field")
		}
		ev.Field = msg.Field
	case TypeClose:
	default:
		return Event{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return ev, nil
}

func detail(ev Event) string {
	switch ev.Type {
	case TypeKey:
		if ev.Key.Type == keyboard.KeyChar {
			return string(ev.Key.Char)
		}
		return fmt.Sprintf("special(%d)", ev.Key.Type)
	case TypeFocus:
		return ev.Field
	}
	return ""
}
