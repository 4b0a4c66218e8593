package core

import (
	"fmt"

	"github.com/vovakirdan/agentroom-server/internal/proto"
)

// MessageKind classifies a transcript entry.
type MessageKind string

const (
	KindSystem MessageKind = "system"
	KindUser   MessageKind = "user"
	KindAgent  MessageKind = "agent"
)

const (
	// DisconnectText is announced to the remaining members when a session leaves.
	DisconnectText = "a member has disconnected"
)

// Message is the domain model for one transcript entry. Author is empty for
// system messages.
type Message struct {
	Kind   MessageKind
	Text   string
	Author string
}

// SystemMessage builds an anonymous system notice.
func SystemMessage(text string) Message {
	return Message{Kind: KindSystem, Text: text}
}

// WelcomeMessage greets a member who completed the join handshake.
func WelcomeMessage(name string) Message {
	return SystemMessage("Welcome " + name + "!")
}

// UserMessage builds a message typed by a member.
func UserMessage(author, text string) Message {
	return Message{Kind: KindUser, Text: text, Author: author}
}

// AgentMessage builds a reply attributed to an agent.
func AgentMessage(author, text string) Message {
	return Message{Kind: KindAgent, Text: text, Author: author}
}

// Outbound maps the message onto its wire form.
func (m Message) Outbound() proto.Outbound {
	switch m.Kind {
	case KindUser:
		return proto.Outbound{Type: proto.TypeUser, Text: m.Text, Name: m.Author}
	case KindAgent:
		return proto.Outbound{Type: proto.TypeAI, Text: m.Text, Name: m.Author}
	default:
		return proto.Outbound{Type: proto.TypeSystem, Text: m.Text}
	}
}

// EncodeMessage serializes a message for delivery to clients.
func EncodeMessage(m Message) ([]byte, error) {
	return proto.Encode(m.Outbound())
}

// MessageFromOutbound converts a wire message back into the domain model.
func MessageFromOutbound(out proto.Outbound) (Message, error) {
	switch out.Type {
	case proto.TypeSystem:
		return SystemMessage(out.Text), nil
	case proto.TypeUser:
		return UserMessage(out.Name, out.Text), nil
	case proto.TypeAI:
		return AgentMessage(out.Name, out.Text), nil
	default:
		return Message{}, fmt.Errorf("%w: unknown message type %q", ErrMalformedInput, out.Type)
	}
}
