package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/agentroom-server/internal/proto"
)

var errFakeSend = errors.New("fake send failure")

// fakeConn records everything delivered to one session.
type fakeConn struct {
	msgs chan proto.Outbound

	mu          sync.Mutex
	failing     bool
	closed      bool
	closeReason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan proto.Outbound, 256)}
}

func (c *fakeConn) Send(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	failing, closed := c.failing, c.closed
	c.mu.Unlock()
	if failing {
		return errFakeSend
	}
	if closed {
		return ErrSessionClosed
	}

	out, err := proto.DecodeOutbound(payload)
	if err != nil {
		return err
	}
	select {
	case c.msgs <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeConn) Close(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeReason = reason
	return nil
}

func (c *fakeConn) setFailing(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = v
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeStore is an in-memory transcript with an injectable append failure.
type fakeStore struct {
	mu        sync.Mutex
	rooms     map[string][]Message
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string][]Message)}
}

func (s *fakeStore) Load(_ context.Context, room string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.rooms[room]...), nil
}

func (s *fakeStore) Append(_ context.Context, room string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.rooms[room] = append(s.rooms[room], msg)
	return nil
}

func (s *fakeStore) transcript(room string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.rooms[room]...)
}

// fakeDispatcher answers with a fixed reply per trigger found in the text.
type fakeDispatcher struct {
	replies map[string]Message
	release chan struct{}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, text string) <-chan Message {
	out := make(chan Message, len(d.replies))
	go func() {
		defer close(out)
		if d.release != nil {
			<-d.release
		}
		for trigger, reply := range d.replies {
			if strings.Contains(text, trigger) {
				out <- reply
			}
		}
	}()
	return out
}

func startRoom(t *testing.T, st TranscriptStore, agents Dispatcher) *Room {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	room := NewRoom("general", st, agents, RoomOptions{SendTimeout: time.Second}, nil)
	go room.Run(ctx)
	t.Cleanup(cancel)
	return room
}

func connect(t *testing.T, room *Room, id string) (*Session, *fakeConn) {
	t.Helper()

	conn := newFakeConn()
	session := NewSession(id, conn)
	if err := room.Connect(context.Background(), session); err != nil {
		t.Fatalf("connect %s: %v", id, err)
	}
	return session, conn
}

func mustMessage(t *testing.T, conn *fakeConn) proto.Outbound {
	t.Helper()

	select {
	case msg := <-conn.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a message, got none")
		return proto.Outbound{}
	}
}

func mustNoMessage(t *testing.T, conn *fakeConn) {
	t.Helper()

	select {
	case msg := <-conn.msgs:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
