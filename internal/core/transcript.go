package core

import "context"

// TranscriptKey names the per-room collection holding the message history.
const TranscriptKey = "message-history"

// TranscriptStore abstracts durable room history for the Room actor.
// Implementations must append atomically: a failed Append leaves no trace.
type TranscriptStore interface {
	// Load returns the full transcript of a room in append order.
	Load(ctx context.Context, room string) ([]Message, error)

	// Append adds one message to the end of a room's transcript.
	Append(ctx context.Context, room string, msg Message) error
}

// Dispatcher fans a user message out to the agents it triggers.
type Dispatcher interface {
	// Dispatch starts every triggered agent and streams their replies in
	// completion order. The channel is closed once all agents are done.
	Dispatch(ctx context.Context, text string) <-chan Message
}
