// Package realtime implements the live story channel: clients join a
// room keyed by subject, submit sentence picks, and receive full-state
// story updates fanned out to everyone in the room.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pellmark/skein/internal/story"
)

// Event names on the wire.
const (
	EventJoin   = "join"
	EventSubmit = "submit"
	EventUpdate = "update"
	EventError  = "error"
)

// ErrValidation is returned for malformed or incomplete client payloads.
var ErrValidation = errors.New("realtime: invalid payload")

// ClientMessage is anything a client sends over the channel.
type ClientMessage struct {
	Event      string `json:"event"`
	SubjectID  int64  `json:"subject_id"`
	SentenceID int64  `json:"sentence_id"`
	Room       string `json:"room"`
}

// Validate checks the payload against its event's requirements.
func (m *ClientMessage) Validate() error {
	switch m.Event {
	case EventJoin:
		if m.SubjectID <= 0 || m.Room == "" {
			return fmt.Errorf("%w: join requires subject_id and room", ErrValidation)
		}
	case EventSubmit:
		if m.SubjectID <= 0 || m.SentenceID <= 0 || m.Room == "" {
			return fmt.Errorf("%w: submit requires subject_id, sentence_id and room", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown event %q", ErrValidation, m.Event)
	}
	return nil
}

// ServerMessage is anything the server pushes to clients.
type ServerMessage struct {
	Event string      `json:"event"`
	Data  *story.View `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func updateMessage(v *story.View) []byte {
	b, _ := json.Marshal(ServerMessage{Event: EventUpdate, Data: v})
	return b
}

func errorMessage(msg string) []byte {
	b, _ := json.Marshal(ServerMessage{Event: EventError, Error: msg})
	return b
}
