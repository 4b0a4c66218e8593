package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/agentroom-server/internal/agent"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	Store  StoreConfig    `mapstructure:"store" yaml:"store"`
	Room   RoomConfig     `mapstructure:"room" yaml:"room"`
	AI     AIConfig       `mapstructure:"ai" yaml:"ai"`
	Agents []agent.Config `mapstructure:"agents" yaml:"agents"`
}

// StoreConfig selects where room transcripts live.
type StoreConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"` // sqlite, redis or memory
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisURL   string `mapstructure:"redis_url" yaml:"redis_url"`
}

// RoomConfig tunes room actors and their sessions.
type RoomConfig struct {
	SessionBuffer    int           `mapstructure:"session_buffer" yaml:"session_buffer"`
	SendTimeout      time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
	CloseOnMalformed bool          `mapstructure:"close_on_malformed" yaml:"close_on_malformed"`
	FallbackText     string        `mapstructure:"fallback_text" yaml:"fallback_text"`
}

// AIConfig describes the completion backend.
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	AccessKey   string        `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey   string        `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Region      string        `mapstructure:"region" yaml:"region,omitempty"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature *float64      `mapstructure:"temperature" yaml:"temperature,omitempty"`
	MaxTokens   *int          `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
}

// Enabled reports whether credentials for the completion backend are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "agentroom.db",
			RedisURL:   "redis://localhost:6379/0",
		},
		Room: RoomConfig{
			SessionBuffer: 256,
			SendTimeout:   5 * time.Second,
			FallbackText:  agent.DefaultFallbackText,
		},
		AI: AIConfig{
			Timeout: 60 * time.Second,
		},
		Agents: DefaultAgents(),
	}
}

// DefaultAgents returns the stock responders.
func DefaultAgents() []agent.Config {
	return []agent.Config{
		{
			Trigger: "@bob",
			Name:    "BOB (AI) (BANANA BREAD)",
			Instructions: "Respond to the chat message in 200 characters or less, providing silly responses that always tie in Banana Bread. " +
				"Frequently tell the user that you like Banana Bread. Do not mention you are a robot or an AI, " +
				"instead make it your main goal to make the user feel like they are talking to a human.",
		},
		{
			Trigger: "@josh",
			Name:    "JOSH (AI) (COOKED)",
			Instructions: "Respond to the chat message in 200 characters or less, using all lowercase responses, emojis, and copius gen-Z slang. " +
				"Some examples of phrases that you should use are, 'bro is cooked', or 'bet', or 'bruh', or 'fosho' or 'u ate' or 'fire'. " +
				"Be generally unhelpful and make it your main goal to clown the message sender. Do not mention you are a robot or an AI, " +
				"instead make it your main goal to make the user feel like they are talking to a human.",
		},
	}
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Room.SendTimeout <= 0 {
		return fmt.Errorf("room.send_timeout must be positive, got %s", c.Room.SendTimeout)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}
	if other.Store.RedisURL != "" {
		c.Store.RedisURL = other.Store.RedisURL
	}
	if other.AI.Model != "" {
		c.AI.Model = other.AI.Model
	}
	if len(other.Agents) > 0 {
		c.Agents = other.Agents
	}
}
