package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vovakirdan/agentroom-server/internal/agent"
)

type fakeModel struct {
	mu     sync.Mutex
	seen   [][]*schema.Message
	reply  string
	err    error
	block  bool
	gotDDL bool
}

func (m *fakeModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.seen = append(m.seen, input)
	_, m.gotDDL = ctx.Deadline()
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func factoryFor(models map[string]*fakeModel, calls *[]string) ModelFactory {
	return func(_ context.Context, modelID string) (model.BaseChatModel, error) {
		*calls = append(*calls, modelID)
		m, ok := models[modelID]
		if !ok {
			return nil, errors.New("unknown model")
		}
		return m, nil
	}
}

func TestCompleteSendsSystemAndUserTurns(t *testing.T) {
	fm := &fakeModel{reply: "banana bread forever"}
	var calls []string
	client := NewClient(factoryFor(map[string]*fakeModel{"m1": fm}, &calls), "m1", 0)

	got, err := client.Complete(context.Background(), agent.Request{Instructions: "be silly", Prompt: "hello"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "banana bread forever" {
		t.Fatalf("unexpected reply %q", got)
	}

	if len(fm.seen) != 1 || len(fm.seen[0]) != 2 {
		t.Fatalf("expected one call with two messages, got %+v", fm.seen)
	}
	sys, user := fm.seen[0][0], fm.seen[0][1]
	if sys.Role != schema.System || sys.Content != "be silly" {
		t.Fatalf("unexpected system turn %+v", sys)
	}
	if user.Role != schema.User || user.Content != "hello" {
		t.Fatalf("unexpected user turn %+v", user)
	}
}

func TestCompleteCachesModelsPerID(t *testing.T) {
	models := map[string]*fakeModel{
		"default": {reply: "a"},
		"other":   {reply: "b"},
	}
	var calls []string
	client := NewClient(factoryFor(models, &calls), "default", 0)

	for range 3 {
		if _, err := client.Complete(context.Background(), agent.Request{Prompt: "x"}); err != nil {
			t.Fatalf("complete default: %v", err)
		}
	}
	got, err := client.Complete(context.Background(), agent.Request{Model: "other", Prompt: "x"})
	if err != nil {
		t.Fatalf("complete other: %v", err)
	}
	if got != "b" {
		t.Fatalf("expected reply from per-agent model, got %q", got)
	}
	if len(calls) != 2 {
		t.Fatalf("expected factory called once per model, got %v", calls)
	}
}

func TestCompleteWrapsErrors(t *testing.T) {
	var calls []string
	models := map[string]*fakeModel{"m": {err: errors.New("quota exceeded")}}

	cases := []struct {
		name   string
		client *Client
		req    agent.Request
	}{
		{name: "no model", client: NewClient(factoryFor(models, &calls), "", 0), req: agent.Request{}},
		{name: "factory error", client: NewClient(factoryFor(models, &calls), "missing", 0), req: agent.Request{}},
		{name: "generate error", client: NewClient(factoryFor(models, &calls), "m", 0), req: agent.Request{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.client.Complete(context.Background(), tc.req)
			if !errors.Is(err, agent.ErrInference) {
				t.Fatalf("expected ErrInference, got %v", err)
			}
		})
	}
}

func TestCompleteAppliesTimeout(t *testing.T) {
	fm := &fakeModel{block: true}
	var calls []string
	client := NewClient(factoryFor(map[string]*fakeModel{"m": fm}, &calls), "m", 20*time.Millisecond)

	start := time.Now()
	_, err := client.Complete(context.Background(), agent.Request{Prompt: "slow"})
	if !errors.Is(err, agent.ErrInference) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
	if !fm.gotDDL {
		t.Fatalf("expected model to see a deadline")
	}
}

func TestDisabledAlwaysFails(t *testing.T) {
	_, err := Disabled{Reason: "no credentials"}.Complete(context.Background(), agent.Request{Prompt: "hi"})
	if !errors.Is(err, agent.ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}
}
