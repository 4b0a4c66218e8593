package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vovakirdan/agentroom-server/internal/agent"
	"github.com/vovakirdan/agentroom-server/internal/config"
)

var errNoModel = errors.New("no model configured")

// ModelFactory builds a chat model for one model id.
type ModelFactory func(ctx context.Context, modelID string) (model.BaseChatModel, error)

// Client completes agent requests through eino chat models, one lazily built
// model per model id.
type Client struct {
	factory      ModelFactory
	defaultModel string
	timeout      time.Duration

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// NewClient creates a completer. Requests without a model use defaultModel;
// a zero timeout leaves the deadline to the caller.
func NewClient(factory ModelFactory, defaultModel string, timeout time.Duration) *Client {
	return &Client{
		factory:      factory,
		defaultModel: defaultModel,
		timeout:      timeout,
		models:       make(map[string]model.BaseChatModel),
	}
}

// Complete sends the instructions as the system turn and the prompt as the
// user turn, returning the text of the reply.
func (c *Client) Complete(ctx context.Context, req agent.Request) (string, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	if modelID == "" {
		return "", fmt.Errorf("%w: %w", agent.ErrInference, errNoModel)
	}

	chatModel, err := c.model(ctx, modelID)
	if err != nil {
		return "", fmt.Errorf("%w: create model %q: %w", agent.ErrInference, modelID, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		schema.SystemMessage(req.Instructions),
		schema.UserMessage(req.Prompt),
	}
	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %w", agent.ErrInference, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", agent.ErrInference)
	}
	return resp.Content, nil
}

func (c *Client) model(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[modelID]; ok {
		return m, nil
	}
	m, err := c.factory(ctx, modelID)
	if err != nil {
		return nil, err
	}
	c.models[modelID] = m
	return m, nil
}

// ArkFactory builds Ark chat models from the shared AI credentials.
func ArkFactory(cfg config.AIConfig) ModelFactory {
	return func(ctx context.Context, modelID string) (model.BaseChatModel, error) {
		var temperature *float32
		if cfg.Temperature != nil {
			val := float32(*cfg.Temperature)
			temperature = &val
		}

		var maxTokens *int
		if cfg.MaxTokens != nil {
			val := *cfg.MaxTokens
			maxTokens = &val
		}

		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.BaseURL,
			Region:      cfg.Region,
			APIKey:      cfg.APIKey,
			AccessKey:   cfg.AccessKey,
			SecretKey:   cfg.SecretKey,
			Model:       modelID,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	}
}

// Disabled fails every request. It stands in when no credentials are set, so
// triggered agents answer with the fallback text.
type Disabled struct {
	Reason string
}

// Complete always returns an error wrapping agent.ErrInference.
func (d Disabled) Complete(context.Context, agent.Request) (string, error) {
	reason := d.Reason
	if reason == "" {
		reason = "completions disabled"
	}
	return "", fmt.Errorf("%w: %s", agent.ErrInference, reason)
}
