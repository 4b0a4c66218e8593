package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/agentroom-server/internal/metrics"
)

// Hub hosts room actors: it starts one actor per room name on first use and
// stops it once nobody holds it anymore. The lock guards only the name map;
// room state stays confined to each room's goroutine.
type Hub struct {
	store  TranscriptStore
	agents Dispatcher
	opts   RoomOptions
	log    *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	rooms  map[string]*hostedRoom
	closed bool
}

type hostedRoom struct {
	room   *Room
	refs   int
	cancel context.CancelFunc
}

// NewHub creates a hub whose rooms share one transcript store and dispatcher.
func NewHub(st TranscriptStore, agents Dispatcher, opts RoomOptions, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		store:  st,
		agents: agents,
		opts:   opts,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[string]*hostedRoom),
	}
}

// Run blocks until ctx is cancelled, then stops every room and waits for them.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	h.rooms = make(map[string]*hostedRoom)
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
	h.log.Info().Msg("hub stopped")
}

// Acquire returns the room actor for name, starting it if needed. Every
// successful Acquire must be paired with a Release.
func (h *Hub) Acquire(name string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	hosted, ok := h.rooms[name]
	if !ok {
		roomCtx, cancel := context.WithCancel(h.ctx)
		hosted = &hostedRoom{
			room:   NewRoom(name, h.store, h.agents, h.opts, h.log),
			cancel: cancel,
		}
		h.rooms[name] = hosted

		h.wg.Add(1)
		metrics.RoomsActive.Inc()
		go func() {
			defer h.wg.Done()
			defer metrics.RoomsActive.Dec()
			hosted.room.Run(roomCtx)
		}()
		h.log.Debug().Str("room", name).Msg("room actor started")
	}
	hosted.refs++
	return hosted.room, nil
}

// Release drops one hold on room. The actor is stopped when the last hold goes.
func (h *Hub) Release(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	hosted, ok := h.rooms[room.Name]
	if !ok || hosted.room != room {
		return
	}
	hosted.refs--
	if hosted.refs > 0 {
		return
	}
	delete(h.rooms, room.Name)
	hosted.cancel()
	h.log.Debug().Str("room", room.Name).Msg("room actor stopped")
}

// Rooms reports how many room actors are running.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
