package core

import "context"

// Conn is the send handle of one client connection.
type Conn interface {
	// Send delivers an encoded message to the client. It may block until the
	// payload is queued, ctx is done, or the connection is gone.
	Send(ctx context.Context, payload []byte) error
	// Close tears the connection down; reason is reported to the client.
	Close(reason string) error
}

// Session is one live connection to a room as seen by the core layer. Its
// state is only touched by the goroutine of the room that accepted it.
type Session struct {
	ID   string
	conn Conn

	name        string
	established bool
	live        bool
	failed      bool
	evicted     bool
	left        bool
}

// NewSession wraps a connection handle.
func NewSession(id string, conn Conn) *Session {
	return &Session{ID: id, conn: conn}
}
