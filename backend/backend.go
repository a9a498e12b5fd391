// Package backend defines the model backend contract consumed by the agent
// loop, plus deterministic in-memory implementations for tests and offline
// use. Provider adapters live in the openai and anthropic subpackages.
package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/taskweave/taskweave/core"
)

// Request captures the normalized model input produced by the agent loop:
// role instructions, the session history window and the advertised tool
// specs for the agent's bound tool subset.
type Request struct {
	Instructions string
	Turns        []core.Turn
	Tools        []core.ToolSpec
}

// Completion is the backend's tagged response: either a final answer (no
// tool calls) or a set of structured tool call requests. The loop branches
// on this tag only, never on free-text heuristics.
type Completion struct {
	Text      string
	ToolCalls []core.ToolCall
}

// IsFinal reports whether the completion is a final natural-language answer.
func (c *Completion) IsFinal() bool { return len(c.ToolCalls) == 0 }

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Backend is the opaque oracle the loop consults each iteration. Complete
// must deterministically distinguish a final answer from a call set; the
// loop still defensively validates the shape before trusting it.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Info() Info
}

// Func adapts a plain function into a Backend. Useful for adversarial test
// backends.
type Func func(ctx context.Context, req Request) (*Completion, error)

// Complete implements Backend.
func (f Func) Complete(ctx context.Context, req Request) (*Completion, error) {
	return f(ctx, req)
}

// Info implements Backend.
func (f Func) Info() Info { return Info{Name: "func", Provider: "local"} }

// Scripted replays a fixed sequence of completions, one per Complete call.
// When the script is exhausted it keeps returning the last entry, so a
// script ending in tool calls behaves adversarially. Safe for concurrent
// use.
type Scripted struct {
	mu    sync.Mutex
	i     int
	calls int
	steps []*Completion
}

// NewScripted constructs a scripted backend from the given steps.
func NewScripted(steps ...*Completion) *Scripted {
	return &Scripted{steps: steps}
}

// Complete implements Backend by replaying the script.
func (s *Scripted) Complete(_ context.Context, _ Request) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return nil, fmt.Errorf("scripted backend has no steps")
	}
	s.calls++
	step := s.steps[s.i]
	if s.i < len(s.steps)-1 {
		s.i++
	}
	return step, nil
}

// Info implements Backend.
func (s *Scripted) Info() Info { return Info{Name: "scripted", Provider: "local"} }

// Calls returns how many Complete calls have been made so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Echo answers every request with the last user turn's content prefixed by
// "Echo:". It never requests tools, which makes it handy for smoke-testing
// the full wiring without network access.
type Echo struct{}

// Complete implements Backend.
func (Echo) Complete(_ context.Context, req Request) (*Completion, error) {
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == core.RoleUser {
			return &Completion{Text: "Echo: " + strings.TrimSpace(req.Turns[i].Content)}, nil
		}
	}
	return &Completion{Text: "Echo:"}, nil
}

// Info implements Backend.
func (Echo) Info() Info { return Info{Name: "echo", Provider: "local"} }
