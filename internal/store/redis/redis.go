package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/agentroom-server/internal/core"
	"github.com/vovakirdan/agentroom-server/internal/proto"
)

// RedisStore keeps each room transcript in a Redis list of wire-encoded messages.
type RedisStore struct {
	client *redis.Client
}

// New connects to redisURL and checks the connection.
func New(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewWithClient(ctx, redis.NewClient(opts))
}

// NewWithClient wraps an existing client.
func NewWithClient(ctx context.Context, client *redis.Client) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// transcriptKey returns the list key holding a room's history.
func transcriptKey(room string) string {
	return fmt.Sprintf("chat:%s:%s", room, core.TranscriptKey)
}

// Load returns the transcript of room in append order.
func (s *RedisStore) Load(ctx context.Context, room string) ([]core.Message, error) {
	entries, err := s.client.LRange(ctx, transcriptKey(room), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange transcript: %w", err)
	}

	messages := make([]core.Message, 0, len(entries))
	for i, raw := range entries {
		out, err := proto.DecodeOutbound([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode transcript entry %d: %w", i, err)
		}
		msg, err := core.MessageFromOutbound(out)
		if err != nil {
			return nil, fmt.Errorf("convert transcript entry %d: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Append pushes msg onto the end of the room list. RPUSH is atomic.
func (s *RedisStore) Append(ctx context.Context, room string, msg core.Message) error {
	payload, err := core.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := s.client.RPush(ctx, transcriptKey(room), payload).Err(); err != nil {
		return fmt.Errorf("rpush transcript: %w", err)
	}
	return nil
}
