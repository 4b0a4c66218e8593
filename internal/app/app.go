package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/agentroom-server/internal/agent"
	"github.com/vovakirdan/agentroom-server/internal/config"
	"github.com/vovakirdan/agentroom-server/internal/core"
	"github.com/vovakirdan/agentroom-server/internal/inference"
	"github.com/vovakirdan/agentroom-server/internal/store"
	transporthttp "github.com/vovakirdan/agentroom-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	registry, err := agent.NewRegistry(cfg.Agents)
	if err != nil {
		return nil, fmt.Errorf("init agents: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := agent.NewDispatcher(registry, newCompleter(cfg.AI, logger), cfg.Room.FallbackText, logger)

	hub := core.NewHub(st, dispatcher, core.RoomOptions{SendTimeout: cfg.Room.SendTimeout}, logger)
	server := transporthttp.NewServer(hub, *cfg, logger)

	logger.Info().Int("agents", len(registry.Agents())).Str("store", cfg.Store.Driver).Msg("application initialized")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

func newCompleter(cfg config.AIConfig, logger *zerolog.Logger) agent.Completer {
	if !cfg.Enabled() {
		logger.Warn().Msg("no AI credentials configured, agents will answer with the fallback text")
		return inference.Disabled{Reason: "no AI credentials configured"}
	}
	logger.Info().Str("model", cfg.Model).Dur("timeout", cfg.Timeout).Msg("completion backend enabled")
	return inference.NewClient(inference.ArkFactory(cfg), cfg.Model, cfg.Timeout)
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(hubCtx)
	}()
	stop := func() {
		stopHub()
		<-hubDone
		a.cleanup()
	}

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stop()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Shutdown does not wait for hijacked WebSocket connections; stopping
		// the hub closes them.
		err := a.server.Shutdown(shutdownCtx)
		stop()
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
