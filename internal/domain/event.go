package domain

import (
	"encoding/json"
	"fmt"
)

// Event is a decoded domain event from the bus. The concrete types below are
// the only variants; DecodeEvent is the single place raw bytes become one of
// them, so consumers can switch exhaustively without re-parsing.
type Event interface {
	EventType() NotificationType
}

// NewBookEvent announces a catalog insertion. InterestedUsers is resolved by
// the producer before publish (users who upvoted reviews in the category) and
// travels embedded in the payload; an empty set is valid and means no fan-out.
type NewBookEvent struct {
	EventID         string   `json:"eventId,omitempty"`
	Book            Book     `json:"book"`
	InterestedUsers []string `json:"interestedUsers"`
}

func (NewBookEvent) EventType() NotificationType { return TypeNewBook }

// eventEnvelope is the wire shape: a type tag plus an opaque payload.
type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEvent parses a raw bus message into a typed event.
//
// Error contract:
//   - ErrInvalidEvent: the body is not valid JSON or the payload does not
//     match its declared type. Poison message; reject without requeue.
//   - ErrUnknownEventType: well-formed but an unrecognized tag, e.g. published
//     by a newer producer. Log and drop (ack), never an error loop.
func DecodeEvent(body []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type tag", ErrInvalidEvent)
	}

	switch NotificationType(env.Type) {
	case TypeNewBook:
		var ev NewBookEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		if ev.Book.ID == "" {
			return nil, fmt.Errorf("%w: NEW_BOOK payload missing book id", ErrInvalidEvent)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}
