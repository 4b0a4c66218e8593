package http

import (
	"context"
	"errors"
	"sync"
)

var errConnClosed = errors.New("connection closed")

// wsConn is the room-facing side of one WebSocket. The room queues encoded
// messages; the handler's write loop drains them onto the socket.
type wsConn struct {
	out chan []byte

	closeOnce sync.Once
	closed    chan struct{}
	reason    string
}

func newWSConn(buffer int) *wsConn {
	if buffer <= 0 {
		buffer = 1
	}
	return &wsConn{
		out:    make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

// Send queues payload, blocking while the buffer is full.
func (c *wsConn) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.out <- payload:
		return nil
	case <-c.closed:
		return errConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close asks the handler to tear the socket down. Only the first reason is kept.
func (c *wsConn) Close(reason string) error {
	c.closeOnce.Do(func() {
		c.reason = reason
		close(c.closed)
	})
	return nil
}

// closeReason is only meaningful after closed is done.
func (c *wsConn) closeReason() string {
	return c.reason
}
