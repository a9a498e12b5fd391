package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/memory"
	"github.com/taskweave/taskweave/tool"
)

// routingBackend drives a whole delegation tree from one backend: the role
// marker embedded in the instructions selects the scripted behavior.
func routingBackend(routes map[string]func(req backend.Request) *backend.Completion) backend.Backend {
	return backend.Func(func(_ context.Context, req backend.Request) (*backend.Completion, error) {
		for marker, respond := range routes {
			if strings.Contains(req.Instructions, marker) {
				return respond(req), nil
			}
		}
		return &backend.Completion{Text: "no route"}, nil
	})
}

func lastObservation(req backend.Request) (core.Turn, bool) {
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == core.RoleObservation {
			return req.Turns[i], true
		}
	}
	return core.Turn{}, false
}

func delegateCall(role, task string) *backend.Completion {
	return &backend.Completion{ToolCalls: []core.ToolCall{{
		ID:   "d1",
		Name: DelegateToolName,
		Arguments: map[string]any{
			"specialist_role":  role,
			"task_description": task,
		},
	}}}
}

func newDelegationFixture(t *testing.T, llm backend.Backend) (*Factory, *memory.InMemoryStore) {
	t.Helper()
	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(lookupTool()))

	store := memory.NewInMemoryStore()
	factory := NewFactory(registry, llm, store, nil)
	require.NoError(t, registry.Register(NewDelegateTool(factory)))

	require.NoError(t, factory.RegisterRole(Config{
		Role:         "orchestrator",
		Instructions: "role:orchestrator. Coordinate the specialists.",
		Tools:        []string{DelegateToolName},
	}))
	require.NoError(t, factory.RegisterRole(Config{
		Role:         "researcher",
		Instructions: "role:researcher. Research things.",
		Tools:        []string{"lookup", DelegateToolName},
	}))
	return factory, store
}

func TestDelegateHappyPath(t *testing.T) {
	llm := routingBackend(map[string]func(backend.Request) *backend.Completion{
		"role:orchestrator": func(req backend.Request) *backend.Completion {
			if obs, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "summary: " + obs.Content}
			}
			return delegateCall("researcher", "find the Go release date")
		},
		"role:researcher": func(backend.Request) *backend.Completion {
			return &backend.Completion{Text: "Go 1.0 was released in March 2012"}
		},
	})
	factory, store := newDelegationFixture(t, llm)

	orchestrator, err := factory.Agent("orchestrator")
	require.NoError(t, err)

	outcome, err := orchestrator.Run(context.Background(), "main", "when was Go released?")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeDone, outcome.Kind)
	assert.Equal(t, "summary: Go 1.0 was released in March 2012", outcome.Answer)

	// The specialist ran in its own task session; the main session only holds
	// the orchestrator's turns.
	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	var taskSession string
	for _, id := range sessions {
		if strings.HasPrefix(id, "task-") {
			taskSession = id
		}
	}
	require.NotEmpty(t, taskSession)

	mainTurns, err := store.Read(context.Background(), "main", 0)
	require.NoError(t, err)
	require.Len(t, mainTurns, 4)
	assert.Equal(t, "Go 1.0 was released in March 2012", mainTurns[2].Content)

	taskTurns, err := store.Read(context.Background(), taskSession, 0)
	require.NoError(t, err)
	require.Len(t, taskTurns, 2)
	assert.Equal(t, "find the Go release date", taskTurns[0].Content)
}

func TestDelegatePassesContext(t *testing.T) {
	var specialistPrompt string
	llm := routingBackend(map[string]func(backend.Request) *backend.Completion{
		"role:orchestrator": func(req backend.Request) *backend.Completion {
			if _, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "done"}
			}
			c := delegateCall("researcher", "dig deeper")
			c.ToolCalls[0].Arguments["context"] = "the user already knows the basics"
			return c
		},
		"role:researcher": func(req backend.Request) *backend.Completion {
			specialistPrompt = req.Turns[0].Content
			return &backend.Completion{Text: "deep answer"}
		},
	})
	factory, _ := newDelegationFixture(t, llm)

	orchestrator, err := factory.Agent("orchestrator")
	require.NoError(t, err)
	_, err = orchestrator.Run(context.Background(), "main", "go")
	require.NoError(t, err)

	assert.Contains(t, specialistPrompt, "dig deeper")
	assert.Contains(t, specialistPrompt, "Context:")
	assert.Contains(t, specialistPrompt, "already knows the basics")
}

func TestDelegateSelfCycleObservation(t *testing.T) {
	llm := routingBackend(map[string]func(backend.Request) *backend.Completion{
		"role:orchestrator": func(req backend.Request) *backend.Completion {
			if obs, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "observed: " + obs.Content}
			}
			return delegateCall("orchestrator", "do my own job")
		},
	})
	factory, _ := newDelegationFixture(t, llm)

	orchestrator, err := factory.Agent("orchestrator")
	require.NoError(t, err)

	outcome, err := orchestrator.Run(context.Background(), "main", "go")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeDone, outcome.Kind)
	assert.Contains(t, outcome.Answer, tool.CodeDelegationCycle)
	assert.Contains(t, outcome.Answer, "orchestrator")
}

func TestDelegateIndirectCycleObservation(t *testing.T) {
	// orchestrator -> researcher -> orchestrator is refused at the innermost
	// hop; the researcher sees the cycle error as an observation and recovers.
	llm := routingBackend(map[string]func(backend.Request) *backend.Completion{
		"role:orchestrator": func(req backend.Request) *backend.Completion {
			if obs, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "final: " + obs.Content}
			}
			return delegateCall("researcher", "ask the orchestrator")
		},
		"role:researcher": func(req backend.Request) *backend.Completion {
			if obs, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "inner saw: " + obs.Content}
			}
			return delegateCall("orchestrator", "loop back")
		},
	})
	factory, _ := newDelegationFixture(t, llm)

	orchestrator, err := factory.Agent("orchestrator")
	require.NoError(t, err)

	outcome, err := orchestrator.Run(context.Background(), "main", "go")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeDone, outcome.Kind)
	assert.Contains(t, outcome.Answer, tool.CodeDelegationCycle)
	assert.Contains(t, outcome.Answer, "orchestrator -> researcher -> orchestrator")
}

func TestDelegateUnknownRoleObservation(t *testing.T) {
	llm := routingBackend(map[string]func(backend.Request) *backend.Completion{
		"role:orchestrator": func(req backend.Request) *backend.Completion {
			if obs, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "observed: " + obs.Content}
			}
			return delegateCall("ghost_writer", "write a book")
		},
	})
	factory, _ := newDelegationFixture(t, llm)

	orchestrator, err := factory.Agent("orchestrator")
	require.NoError(t, err)

	outcome, err := orchestrator.Run(context.Background(), "main", "go")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeDone, outcome.Kind)
	assert.Contains(t, outcome.Answer, tool.CodeUnknownRole)
	assert.Contains(t, outcome.Answer, "ghost_writer")
}

func TestDelegateSpecialistAbortSurfaces(t *testing.T) {
	// The researcher never produces a final answer, so the delegation comes
	// back as an execution error observation naming the abort kind.
	llm := routingBackend(map[string]func(backend.Request) *backend.Completion{
		"role:orchestrator": func(req backend.Request) *backend.Completion {
			if obs, ok := lastObservation(req); ok {
				return &backend.Completion{Text: "observed: " + obs.Content}
			}
			return delegateCall("researcher", "impossible task")
		},
		"role:researcher": func(backend.Request) *backend.Completion {
			return &backend.Completion{ToolCalls: []core.ToolCall{
				{ID: "r1", Name: "lookup", Arguments: map[string]any{"q": "again"}},
			}}
		},
	})
	factory, _ := newDelegationFixture(t, llm)

	orchestrator, err := factory.Agent("orchestrator")
	require.NoError(t, err)

	outcome, err := orchestrator.Run(context.Background(), "main", "go")
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeDone, outcome.Kind)
	assert.Contains(t, outcome.Answer, string(core.OutcomeLoopLimitExceeded))
}

func TestDelegateCallValidatesArguments(t *testing.T) {
	factory, _ := newDelegationFixture(t, backend.Echo{})
	dt := NewDelegateTool(factory)

	tc := tool.NewContext(context.Background(), "s", "c", []string{"orchestrator"}, nil)
	_, err := dt.Call(tc, map[string]any{"specialist_role": "", "task_description": "x"})
	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)

	_, err = dt.Call(tc, map[string]any{"specialist_role": "researcher", "task_description": ""})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)
}

func TestDelegationCycleErrorMessage(t *testing.T) {
	err := &DelegationCycleError{
		Role:  "researcher",
		Chain: []string{"orchestrator", "researcher"},
	}
	assert.Contains(t, err.Error(), `"researcher"`)
	assert.Contains(t, err.Error(), "orchestrator -> researcher")
}
