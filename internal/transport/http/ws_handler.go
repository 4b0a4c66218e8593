package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/agentroom-server/internal/config"
	"github.com/vovakirdan/agentroom-server/internal/core"
)

// closeError carries the close frame a loop wants sent to the client.
type closeError struct {
	status websocket.StatusCode
	reason string
}

func (e *closeError) Error() string {
	return e.reason
}

// WSHandler upgrades HTTP connections and bridges them to room actors.
type WSHandler struct {
	hub  *core.Hub
	opts config.RoomConfig
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, opts config.RoomConfig, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, opts: opts, log: logger}
}

// ServeHTTP serves GET /api/chat/{room}. The upgrade header has already been checked.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomName := r.PathValue("room")

	room, err := h.hub.Acquire(roomName)
	if err != nil {
		h.log.Warn().Err(err).Str("room", roomName).Msg("room unavailable")
		observeChatRequest(http.StatusServiceUnavailable)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "room unavailable"})
		return
	}
	defer h.hub.Release(room)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("room", roomName).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	observeChatRequest(http.StatusSwitchingProtocols)
	// user text has no length limit
	conn.SetReadLimit(-1)

	out := newWSConn(h.opts.SessionBuffer)
	session := core.NewSession(uuid.NewString(), out)
	logger := h.log.With().Str("room", roomName).Str("session_id", session.ID).Logger()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The writer must run before Connect: the transcript replay goes through it.
	errCh := make(chan error, 2)
	go func() {
		errCh <- h.writeLoop(ctx, conn, out)
	}()

	if err := room.Connect(ctx, session); err != nil {
		logger.Warn().Err(err).Msg("join room failed")
		cancel()
		<-errCh
		out.Close("join failed")
		conn.Close(websocket.StatusInternalError, "join failed")
		return
	}
	logger.Debug().Msg("ws session joined")

	go func() {
		errCh <- h.readLoop(ctx, conn, room, session, &logger)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh
	// nothing drains the queue any more; later sends must fail instead of waiting
	out.Close("connection closed")

	// The request context is gone by now; the leave notice must still go out.
	if derr := room.Disconnect(context.WithoutCancel(ctx), session); derr != nil && !errors.Is(derr, core.ErrRoomClosed) {
		logger.Warn().Err(derr).Msg("leave room failed")
	}

	status, reason := closeStatus(err)
	if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
		logger.Warn().Err(err).Int("status", int(status)).Msg("ws connection closed with error")
	}
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, room *core.Room, session *core.Session, logger *zerolog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("read ws inbound")
			return err
		}

		err = room.Receive(ctx, session, data)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrMalformedInput):
			if h.opts.CloseOnMalformed {
				return &closeError{status: websocket.StatusUnsupportedData, reason: "malformed message"}
			}
		case core.ErrorCode(err) == core.ErrCodePersistFailed:
			// already broadcast and logged by the room
		default:
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out *wsConn) error {
	for {
		select {
		case payload := <-out.out:
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		case <-out.closed:
			return &closeError{status: websocket.StatusGoingAway, reason: out.closeReason()}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func closeStatus(err error) (websocket.StatusCode, string) {
	var ce *closeError
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	case errors.As(err, &ce):
		return ce.status, ce.reason
	case errors.Is(err, core.ErrRoomClosed), errors.Is(err, core.ErrSessionClosed):
		return websocket.StatusGoingAway, err.Error()
	}

	switch s := websocket.CloseStatus(err); s {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return websocket.StatusNormalClosure, "closing"
	case -1:
		return websocket.StatusInternalError, "internal error"
	default:
		return s, "closing"
	}
}
