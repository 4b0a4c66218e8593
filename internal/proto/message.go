package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeSystem = "system"
	TypeUser   = "user"
	TypeAI     = "ai"
)

// ErrMalformedInput is returned when a client payload cannot be decoded.
var ErrMalformedInput = errors.New("malformed input")

// Inbound is a message sent by a client to its room.
type Inbound struct {
	Name                  string `json:"name"`
	Text                  string `json:"text,omitempty"`
	ConnectionEstablished bool   `json:"connectionEstablished,omitempty"`
}

// inboundWire keeps presence information that Inbound drops.
type inboundWire struct {
	Name                  *string `json:"name"`
	Text                  *string `json:"text"`
	ConnectionEstablished *bool   `json:"connectionEstablished"`
}

// Outbound is a message delivered by a room to its clients.
type Outbound struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
}

// Decode parses a client payload. Unknown fields are ignored. The text field
// may be absent only on the join handshake.
func Decode(raw []byte) (Inbound, error) {
	var wire inboundWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Inbound{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	if wire.Name == nil {
		return Inbound{}, fmt.Errorf("%w: name is required", ErrMalformedInput)
	}

	in := Inbound{Name: *wire.Name}
	if wire.ConnectionEstablished != nil {
		in.ConnectionEstablished = *wire.ConnectionEstablished
	}
	if in.ConnectionEstablished {
		if wire.Text != nil {
			in.Text = *wire.Text
		}
		return in, nil
	}

	if wire.Text == nil {
		return Inbound{}, fmt.Errorf("%w: text is required", ErrMalformedInput)
	}
	in.Text = *wire.Text
	return in, nil
}

// Encode serializes a room message for the wire. Name is dropped for system
// messages.
func Encode(out Outbound) ([]byte, error) {
	if out.Type == TypeSystem {
		out.Name = ""
	}
	return json.Marshal(out)
}

// DecodeOutbound parses a room message, as clients and stores read it back.
func DecodeOutbound(raw []byte) (Outbound, error) {
	var out Outbound
	if err := json.Unmarshal(raw, &out); err != nil {
		return Outbound{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	switch out.Type {
	case TypeSystem, TypeUser, TypeAI:
	default:
		return Outbound{}, fmt.Errorf("%w: unknown message type %q", ErrMalformedInput, out.Type)
	}
	return out, nil
}
