package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/logging"
	"github.com/taskweave/taskweave/tool"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultMaxIterations    = 10
	DefaultMaxRetries       = 2
	DefaultBackendTimeout   = 60 * time.Second
	DefaultToolTimeout      = 30 * time.Second
	DefaultMaxParallelTools = 4
	DefaultHistoryWindow    = 50
)

// Config binds a role to its instructions, tool subset and loop limits.
// One Config per role, registered with the Factory and looked up by name.
type Config struct {
	// Role is the unique role name, e.g. "orchestrator" or "researcher".
	Role string
	// Instructions is the system prompt for the role.
	Instructions string
	// Tools is the ordered subset of registry tool names bound to the role.
	Tools []string
	// MaxIterations caps model/tool round-trips per invocation.
	MaxIterations int
	// MaxRetries is the number of extra backend attempts per step after the
	// first one fails or returns an unparseable call set.
	MaxRetries int
	// BackendTimeout bounds a single model call.
	BackendTimeout time.Duration
	// ToolTimeout bounds a single tool invocation.
	ToolTimeout time.Duration
	// MaxParallelTools bounds concurrent tool executions within one dispatch
	// step. 1 forces sequential dispatch.
	MaxParallelTools int
	// HistoryWindow limits how many recent turns are sent to the backend.
	HistoryWindow int
}

func (c *Config) applyDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = DefaultBackendTimeout
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = DefaultToolTimeout
	}
	if c.MaxParallelTools <= 0 {
		c.MaxParallelTools = DefaultMaxParallelTools
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
}

// Agent runs the ReAct loop for one role. It binds role instructions, a
// subset of registered tools, a model backend and a memory store. Agents are
// stateless between invocations (all conversational state lives in the
// memory store) and safe for concurrent use across sessions.
type Agent struct {
	cfg      Config
	registry *tool.Registry
	llm      backend.Backend
	memory   core.MemoryStore
	logger   logging.Logger
	specs    []core.ToolSpec
}

// New constructs an Agent. The tool subset is resolved against the registry
// here so a misconfigured role fails construction, not an invocation.
func New(cfg Config, registry *tool.Registry, llm backend.Backend, memory core.MemoryStore, logger logging.Logger) (*Agent, error) {
	if cfg.Role == "" {
		return nil, fmt.Errorf("agent config has empty role")
	}
	if registry == nil || llm == nil || memory == nil {
		return nil, fmt.Errorf("agent %q: registry, backend and memory are required", cfg.Role)
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	cfg.applyDefaults()

	specs, err := registry.Specs(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", cfg.Role, err)
	}

	return &Agent{
		cfg:      cfg,
		registry: registry,
		llm:      llm,
		memory:   memory,
		logger:   logger,
		specs:    specs,
	}, nil
}

// Role returns the role name the agent is bound to.
func (a *Agent) Role() string { return a.cfg.Role }

// Specs returns the tool specs advertised to the backend, in bound order.
func (a *Agent) Specs() []core.ToolSpec { return a.specs }

// Run executes one invocation: the user message is appended to the session's
// memory and the loop drives the backend until a final answer or a
// termination condition. A non-nil error indicates an unavailable memory
// store; every model- or tool-level failure comes back as a structured
// Outcome instead.
func (a *Agent) Run(ctx context.Context, sessionID, message string) (*core.Outcome, error) {
	return a.run(ctx, sessionID, message, []string{a.cfg.Role})
}

// run is the nested-invocation entry used by the delegation tool. activeRoles
// is the explicit call stack of role names, outermost first and ending with
// this agent's own role.
func (a *Agent) run(ctx context.Context, sessionID, message string, activeRoles []string) (*core.Outcome, error) {
	if countRole(activeRoles, a.cfg.Role) > 1 {
		return &core.Outcome{
			Kind:   core.OutcomeDelegationCycle,
			Reason: fmt.Sprintf("role %q is already active in chain %v", a.cfg.Role, activeRoles),
		}, nil
	}

	transcript := make([]core.Turn, 0, 8)
	appendTurn := func(t core.Turn) error {
		if err := a.memory.Append(ctx, sessionID, t); err != nil {
			return fmt.Errorf("append turn to session %q: %w", sessionID, err)
		}
		transcript = append(transcript, t)
		return nil
	}

	if err := appendTurn(core.NewUserTurn(message)); err != nil {
		return nil, err
	}

	a.logger.Info("agent.run.start", "role", a.cfg.Role, "session", sessionID, "depth", len(activeRoles))

	for iter := 1; iter <= a.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return a.aborted(core.OutcomeCancelled, err.Error(), transcript), nil
		}

		history, err := a.memory.Read(ctx, sessionID, a.cfg.HistoryWindow)
		if err != nil {
			return nil, fmt.Errorf("read session %q: %w", sessionID, err)
		}

		completion, err := a.complete(ctx, history)
		if err != nil {
			if ctx.Err() != nil {
				return a.aborted(core.OutcomeCancelled, ctx.Err().Error(), transcript), nil
			}
			a.logger.Error("agent.backend.unavailable", "role", a.cfg.Role, "error", err.Error())
			return a.aborted(core.OutcomeBackendUnavailable, err.Error(), transcript), nil
		}

		if completion.IsFinal() {
			final := core.NewAssistantTurn(completion.Text)
			if err := appendTurn(final); err != nil {
				return nil, err
			}
			a.logger.Info("agent.run.done", "role", a.cfg.Role, "session", sessionID, "iterations", iter)
			return &core.Outcome{Kind: core.OutcomeDone, Answer: completion.Text, Transcript: transcript}, nil
		}

		if err := appendTurn(core.NewToolCallTurn(completion.Text, completion.ToolCalls)); err != nil {
			return nil, err
		}

		a.logger.Debug("agent.loop.dispatch", "role", a.cfg.Role, "iteration", iter, "calls", len(completion.ToolCalls))

		for _, obs := range a.dispatch(ctx, sessionID, activeRoles, completion.ToolCalls) {
			if err := appendTurn(obs); err != nil {
				return nil, err
			}
		}
	}

	a.logger.Warn("agent.loop.limit", "role", a.cfg.Role, "session", sessionID, "max_iterations", a.cfg.MaxIterations)
	reason := fmt.Sprintf("no final answer after %d iterations", a.cfg.MaxIterations)
	return a.aborted(core.OutcomeLoopLimitExceeded, reason, transcript), nil
}

func (a *Agent) aborted(kind core.OutcomeKind, reason string, transcript []core.Turn) *core.Outcome {
	return &core.Outcome{Kind: kind, Reason: reason, Transcript: transcript}
}

// complete calls the backend with a bounded retry budget. Transport errors
// and malformed call sets are retried with the same request; the budget
// exhausting surfaces as a single error the loop maps to BackendUnavailable.
func (a *Agent) complete(ctx context.Context, history []core.Turn) (*backend.Completion, error) {
	req := backend.Request{
		Instructions: a.cfg.Instructions,
		Turns:        history,
		Tools:        a.specs,
	}

	attempts := a.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cctx, cancel := context.WithTimeout(ctx, a.cfg.BackendTimeout)
		completion, err := a.llm.Complete(cctx, req)
		cancel()

		if err == nil {
			completion, err = normalizeCompletion(completion)
			if err == nil {
				return completion, nil
			}
		}

		lastErr = err
		a.logger.Warn("agent.backend.retry", "role", a.cfg.Role, "attempt", attempt, "error", err.Error())
	}

	return nil, fmt.Errorf("backend unavailable after %d attempts: %w", attempts, lastErr)
}

// normalizeCompletion defensively validates the backend response shape. A
// call without a name cannot be dispatched and counts as a malformed
// response; missing or colliding call IDs are repaired so observations stay
// correlated.
func normalizeCompletion(c *backend.Completion) (*backend.Completion, error) {
	if c == nil {
		return nil, fmt.Errorf("backend returned nil completion")
	}
	seen := make(map[string]bool, len(c.ToolCalls))
	for i := range c.ToolCalls {
		call := &c.ToolCalls[i]
		if call.Name == "" {
			return nil, fmt.Errorf("backend returned tool call without a name")
		}
		if call.ID == "" || seen[call.ID] {
			call.ID = core.NewID()
		}
		seen[call.ID] = true
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}
	}
	return c, nil
}

// dispatch executes one step's tool calls and returns exactly one
// observation turn per call, in original call order. Independent calls run
// concurrently up to MaxParallelTools; ordering is restored on return so
// observation correlation is preserved regardless of completion order.
func (a *Agent) dispatch(ctx context.Context, sessionID string, activeRoles []string, calls []core.ToolCall) []core.Turn {
	if len(calls) == 1 {
		return []core.Turn{a.execute(ctx, sessionID, activeRoles, calls[0])}
	}

	maxPar := a.cfg.MaxParallelTools
	if maxPar > len(calls) {
		maxPar = len(calls)
	}

	observations := make([]core.Turn, len(calls))
	sem := make(chan struct{}, maxPar)
	var wg sync.WaitGroup

	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			observations[idx] = a.execute(ctx, sessionID, activeRoles, call)
		}(i, calls[i])
	}
	wg.Wait()

	return observations
}

// execute runs a single tool call through the registry and folds any failure
// (unknown tool, invalid arguments, execution error, delegation cycle) into
// the observation content so the model can self-correct on the next step.
func (a *Agent) execute(ctx context.Context, sessionID string, activeRoles []string, call core.ToolCall) core.Turn {
	tctx, cancel := context.WithTimeout(ctx, a.cfg.ToolTimeout)
	defer cancel()

	tc := tool.NewContext(tctx, sessionID, call.ID, activeRoles, a.logger)
	result, err := a.registry.Invoke(tc, call.Name, call.Arguments)
	if err != nil {
		return core.NewObservationTurn(call.ID, "error: "+err.Error())
	}
	return core.NewObservationTurn(call.ID, encodeResult(result))
}

// encodeResult renders a tool result as observation text. Strings pass
// through untouched; everything else is JSON-encoded.
func encodeResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func countRole(stack []string, role string) int {
	n := 0
	for _, r := range stack {
		if r == role {
			n++
		}
	}
	return n
}
