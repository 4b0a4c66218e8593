package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/agentroom-server/internal/metrics"
	"github.com/vovakirdan/agentroom-server/internal/proto"
)

// DefaultSendTimeout bounds deliveries when RoomOptions leaves SendTimeout unset.
const DefaultSendTimeout = 5 * time.Second

// RoomOptions tunes a room actor.
type RoomOptions struct {
	// SendTimeout bounds one delivery attempt to one session. Values <= 0 mean DefaultSendTimeout.
	SendTimeout time.Duration
	// Mailbox is how many commands may queue before callers block.
	Mailbox int
}

// Room is the actor owning one room's live sessions and transcript. All of
// its state is confined to the goroutine running Run; callers talk to it
// through Connect, Receive and Disconnect, which are processed one at a time
// in arrival order.
type Room struct {
	Name string

	store  TranscriptStore
	agents Dispatcher
	opts   RoomOptions
	log    zerolog.Logger

	commands chan *Command
	stopped  chan struct{}

	// live set, in join order
	sessions []*Session
}

// NewRoom constructs an idle room. agents may be nil to disable agent replies.
func NewRoom(name string, st TranscriptStore, agents Dispatcher, opts RoomOptions, logger *zerolog.Logger) *Room {
	if opts.Mailbox <= 0 {
		opts.Mailbox = 16
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	base := zerolog.Nop()
	if logger != nil {
		base = *logger
	}
	return &Room{
		Name:     name,
		store:    st,
		agents:   agents,
		opts:     opts,
		log:      base.With().Str("room", name).Logger(),
		commands: make(chan *Command, opts.Mailbox),
		stopped:  make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled. Live sessions are closed on exit.
func (r *Room) Run(ctx context.Context) {
	defer close(r.stopped)
	defer r.shutdown()

	r.log.Debug().Msg("room started")
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.commands:
			err := r.handle(ctx, cmd)
			if err != nil {
				r.log.Debug().Err(err).Str("command", cmd.Kind.String()).Msg("command failed")
			}
			cmd.done <- err
		}
	}
}

// Connect replays the transcript to s and then adds it to the live set.
func (r *Room) Connect(ctx context.Context, s *Session) error {
	return r.submit(ctx, &Command{Kind: CommandConnect, Session: s})
}

// Receive handles one raw payload sent by s. Malformed payloads yield an
// error matching ErrMalformedInput and leave the room untouched.
func (r *Room) Receive(ctx context.Context, s *Session, payload []byte) error {
	return r.submit(ctx, &Command{Kind: CommandReceive, Session: s, Payload: payload})
}

// Disconnect removes s from the room and tells the remaining members.
func (r *Room) Disconnect(ctx context.Context, s *Session) error {
	return r.submit(ctx, &Command{Kind: CommandDisconnect, Session: s})
}

func (r *Room) submit(ctx context.Context, cmd *Command) error {
	cmd.done = make(chan error, 1)

	select {
	case r.commands <- cmd:
	case <-r.stopped:
		return errRoomStopped()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-r.stopped:
		select {
		case err := <-cmd.done:
			return err
		default:
			return errRoomStopped()
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errRoomStopped() error {
	return coreError(ErrCodeRoomClosed, "room is not running", ErrRoomClosed)
}

func (r *Room) handle(ctx context.Context, cmd *Command) error {
	switch cmd.Kind {
	case CommandConnect:
		return r.handleConnect(ctx, cmd.Session)
	case CommandReceive:
		return r.handleReceive(ctx, cmd.Session, cmd.Payload)
	case CommandDisconnect:
		return r.handleDisconnect(ctx, cmd.Session)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}

func (r *Room) handleConnect(ctx context.Context, s *Session) error {
	r.evictFailed()

	if s.live || s.left {
		return coreError(ErrCodeSessionClosed, "session cannot join", ErrSessionClosed)
	}

	history, err := r.store.Load(ctx, r.Name)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	// The session is not live yet, so nothing can interleave with the replay.
	for _, msg := range history {
		payload, err := EncodeMessage(msg)
		if err != nil {
			return fmt.Errorf("encode transcript entry: %w", err)
		}
		if err := r.deliver(ctx, s, payload); err != nil {
			return fmt.Errorf("replay transcript: %w", err)
		}
	}

	s.live = true
	r.sessions = append(r.sessions, s)
	metrics.SessionsLive.Inc()

	r.log.Info().
		Str("session_id", s.ID).
		Int("history", len(history)).
		Int("members", len(r.sessions)).
		Msg("session connected")
	return nil
}

func (r *Room) handleReceive(ctx context.Context, s *Session, payload []byte) error {
	if !s.live {
		return coreError(ErrCodeSessionClosed, "session is not in the room", ErrSessionClosed)
	}

	in, err := proto.Decode(payload)
	if err != nil {
		metrics.MalformedInputs.Inc()
		r.log.Warn().Err(err).Str("session_id", s.ID).Msg("dropping malformed payload")
		return coreError(ErrCodeMalformedInput, "malformed input", err)
	}

	var msg Message
	if in.ConnectionEstablished {
		s.established = true
		s.name = in.Name
		msg = WelcomeMessage(in.Name)
	} else {
		msg = UserMessage(in.Name, in.Text)
	}

	err = r.publish(ctx, msg)

	if msg.Kind != KindUser || r.agents == nil {
		return err
	}

	// The next command waits until every triggered agent has answered.
	for reply := range r.agents.Dispatch(ctx, msg.Text) {
		if perr := r.publish(ctx, reply); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func (r *Room) handleDisconnect(ctx context.Context, s *Session) error {
	if s.left {
		return nil
	}
	s.left = true

	member := s.live || s.evicted
	if s.live {
		r.remove(s)
	}
	r.evictFailed()

	if !member {
		return nil
	}

	r.log.Info().
		Str("session_id", s.ID).
		Str("name", s.name).
		Bool("introduced", s.established).
		Int("members", len(r.sessions)).
		Msg("session disconnected")
	return r.publish(ctx, SystemMessage(DisconnectText))
}

// publish broadcasts msg and then appends it to the transcript. The broadcast
// stands even when the append fails.
func (r *Room) publish(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	r.broadcast(ctx, payload)
	metrics.MessagesBroadcast.WithLabelValues(string(msg.Kind)).Inc()

	if err := r.store.Append(ctx, r.Name, msg); err != nil {
		metrics.PersistFailures.Inc()
		r.log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("failed to persist message")
		return coreError(ErrCodePersistFailed, "persist message", err)
	}
	return nil
}

// broadcast sends payload to every healthy live session. A failed delivery
// marks the session for eviction at the next connect or disconnect.
func (r *Room) broadcast(ctx context.Context, payload []byte) {
	for _, s := range r.sessions {
		if s.failed {
			continue
		}
		if err := r.deliver(ctx, s, payload); err != nil {
			s.failed = true
			metrics.DeliveryFailures.Inc()
			r.log.Warn().Err(err).Str("session_id", s.ID).Msg("delivery failed")
		}
	}
}

func (r *Room) deliver(ctx context.Context, s *Session, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.SendTimeout)
	defer cancel()
	return s.conn.Send(ctx, payload)
}

func (r *Room) remove(s *Session) bool {
	for i, member := range r.sessions {
		if member != s {
			continue
		}
		copy(r.sessions[i:], r.sessions[i+1:])
		r.sessions[len(r.sessions)-1] = nil
		r.sessions = r.sessions[:len(r.sessions)-1]
		s.live = false
		metrics.SessionsLive.Dec()
		return true
	}
	return false
}

func (r *Room) evictFailed() {
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if !s.failed {
			kept = append(kept, s)
			continue
		}
		s.live = false
		s.evicted = true
		metrics.SessionsLive.Dec()
		if err := s.conn.Close("delivery failed"); err != nil {
			r.log.Debug().Err(err).Str("session_id", s.ID).Msg("close evicted session")
		}
		r.log.Info().Str("session_id", s.ID).Msg("evicted session after failed delivery")
	}
	for i := len(kept); i < len(r.sessions); i++ {
		r.sessions[i] = nil
	}
	r.sessions = kept
}

func (r *Room) shutdown() {
	for _, s := range r.sessions {
		s.live = false
		metrics.SessionsLive.Dec()
		if err := s.conn.Close("room closed"); err != nil {
			r.log.Debug().Err(err).Str("session_id", s.ID).Msg("close session on shutdown")
		}
	}
	r.sessions = nil
	r.log.Debug().Msg("room stopped")
}
