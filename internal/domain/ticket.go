package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// PayloadKind tags how a ticket payload is stored.
type PayloadKind string

const (
	PayloadRaw        PayloadKind = "raw"
	PayloadStructured PayloadKind = "structured"
)

// ErrUnsupportedPayload is returned for payloads that are neither a string
// nor a JSON object/array.
var ErrUnsupportedPayload = errors.New("payload must be a string or a JSON object")

// Payload is the ticket body: either a raw string kept verbatim or a
// structured JSON value kept in compact form.
type Payload struct {
	Kind  PayloadKind
	Value string
}

// RawPayload wraps a string payload.
func RawPayload(s string) Payload {
	return Payload{Kind: PayloadRaw, Value: s}
}

// ParsePayload classifies a JSON value from a request body.
func ParsePayload(data json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Payload{}, ErrUnsupportedPayload
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Payload{}, ErrUnsupportedPayload
		}
		return RawPayload(s), nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return Payload{}, ErrUnsupportedPayload
		}
		return Payload{Kind: PayloadStructured, Value: buf.String()}, nil
	default:
		return Payload{}, ErrUnsupportedPayload
	}
}

// MarshalJSON renders raw payloads as JSON strings and structured payloads as
// the stored JSON value, so clients get back the shape they sent.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Kind == PayloadStructured {
		if !json.Valid([]byte(p.Value)) {
			return nil, errors.New("stored structured payload is not valid JSON")
		}
		return []byte(p.Value), nil
	}
	return json.Marshal(p.Value)
}

// Ticket is an ownership-scoped record.
type Ticket struct {
	ID        string
	UserID    string
	Payload   Payload
	CreatedAt time.Time
}
