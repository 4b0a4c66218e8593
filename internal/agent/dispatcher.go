package agent

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/agentroom-server/internal/core"
	"github.com/vovakirdan/agentroom-server/internal/metrics"
)

// DefaultFallbackText is sent in place of a reply when a completion fails.
const DefaultFallbackText = "Oops! I had a brief malfunction. Could you try asking me again?"

// ErrInference marks a failed completion.
var ErrInference = errors.New("inference failed")

// Request is one completion call made on behalf of an agent.
type Request struct {
	Model        string
	Instructions string
	Prompt       string
}

// Completer produces text for a system instruction and a user turn.
// Failures should wrap ErrInference.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Dispatcher runs the agents triggered by a message.
type Dispatcher struct {
	registry  *Registry
	completer Completer
	fallback  string
	log       *zerolog.Logger
}

// NewDispatcher wires a registry to a completion backend. An empty fallback
// selects DefaultFallbackText.
func NewDispatcher(registry *Registry, completer Completer, fallback string, logger *zerolog.Logger) *Dispatcher {
	if fallback == "" {
		fallback = DefaultFallbackText
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		registry:  registry,
		completer: completer,
		fallback:  fallback,
		log:       logger,
	}
}

// Dispatch invokes every triggered agent concurrently. Each agent yields
// exactly one message, its reply or the fallback text; replies arrive in
// completion order and the channel closes after the last one.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) <-chan core.Message {
	matches := d.registry.Match(text)
	out := make(chan core.Message, len(matches))
	if len(matches) == 0 {
		close(out)
		return out
	}

	var g errgroup.Group
	for _, m := range matches {
		g.Go(func() error {
			out <- d.run(ctx, m)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}

func (d *Dispatcher) run(ctx context.Context, m Match) core.Message {
	start := time.Now()
	reply, err := d.completer.Complete(ctx, Request{
		Model:        m.Agent.Model,
		Instructions: SystemInstruction(m.Agent.Instructions, m.Prompt),
		Prompt:       m.Prompt,
	})
	metrics.AgentLatency.WithLabelValues(m.Agent.Name).Observe(time.Since(start).Seconds())

	if err == nil && reply == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		metrics.AgentInvocations.WithLabelValues(m.Agent.Name, "fallback").Inc()
		d.log.Warn().
			Err(err).
			Str("agent", m.Agent.Name).
			Str("trigger", m.Agent.Trigger).
			Msg("agent completion failed, sending fallback")
		return core.AgentMessage(m.Agent.Name, d.fallback)
	}

	metrics.AgentInvocations.WithLabelValues(m.Agent.Name, "ok").Inc()
	d.log.Debug().
		Str("agent", m.Agent.Name).
		Int("length", len(reply)).
		Dur("took", time.Since(start)).
		Msg("agent replied")
	return core.AgentMessage(m.Agent.Name, reply)
}
