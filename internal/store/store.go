package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/agentroom-server/internal/config"
	"github.com/vovakirdan/agentroom-server/internal/core"
	"github.com/vovakirdan/agentroom-server/internal/store/memory"
	"github.com/vovakirdan/agentroom-server/internal/store/redis"
	"github.com/vovakirdan/agentroom-server/internal/store/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Store is a transcript store that owns a closable backend.
type Store interface {
	core.TranscriptStore

	// Close releases the underlying connection.
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		logger.Info().Str("db_path", cfg.SQLitePath).Msg("sqlite store initialized")
		return st, nil
	case DriverRedis:
		st, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		logger.Info().Msg("redis store initialized")
		return st, nil
	case DriverMemory:
		logger.Warn().Msg("memory store selected, transcripts will not survive a restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
