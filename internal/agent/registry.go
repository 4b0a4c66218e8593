package agent

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// instructionPromptChars is how much of the prompt is appended to the agent's
// instructions when building the system turn.
const instructionPromptChars = 50

var errDuplicateTrigger = errors.New("duplicate trigger")

// Config describes one automated responder.
type Config struct {
	Trigger      string `mapstructure:"trigger" yaml:"trigger"`
	Name         string `mapstructure:"name" yaml:"name"`
	Instructions string `mapstructure:"instructions" yaml:"instructions"`
	Model        string `mapstructure:"model" yaml:"model,omitempty"`
}

// Registry is the ordered, immutable list of configured agents.
type Registry struct {
	agents []Config
}

// Match is an agent fired by a message together with its extracted prompt.
type Match struct {
	Agent  Config
	Prompt string
}

// NewRegistry validates and freezes the agent list.
func NewRegistry(agents []Config) (*Registry, error) {
	seen := make(map[string]struct{}, len(agents))
	for i, a := range agents {
		if a.Trigger == "" {
			return nil, fmt.Errorf("agent %d: trigger is required", i)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("agent %q: name is required", a.Trigger)
		}
		if _, dup := seen[a.Trigger]; dup {
			return nil, fmt.Errorf("agent %q: %w", a.Trigger, errDuplicateTrigger)
		}
		seen[a.Trigger] = struct{}{}
	}
	return &Registry{agents: append([]Config(nil), agents...)}, nil
}

// Agents returns a copy of the configured agents in order.
func (r *Registry) Agents() []Config {
	return append([]Config(nil), r.agents...)
}

// Match returns every agent whose trigger occurs in text, in registry order.
func (r *Registry) Match(text string) []Match {
	var matches []Match
	for _, a := range r.agents {
		prompt, ok := ExtractPrompt(text, a.Trigger)
		if !ok {
			continue
		}
		matches = append(matches, Match{Agent: a, Prompt: prompt})
	}
	return matches
}

// ExtractPrompt returns the trimmed text following the first occurrence of
// trigger. The match is case-sensitive.
func ExtractPrompt(text, trigger string) (string, bool) {
	_, after, found := strings.Cut(text, trigger)
	if !found {
		return "", false
	}
	return strings.TrimSpace(after), true
}

// SystemInstruction joins the agent instructions with the head of the prompt.
func SystemInstruction(instructions, prompt string) string {
	return instructions + " " + truncateRunes(prompt, instructionPromptChars)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
