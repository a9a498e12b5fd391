// Package taskweave provides a high-level façade over the agent runtime
// (registry, factory, memory & logging) enabling rapid construction of
// multi-agent assistants. Most applications interact with this package by:
//  1. Creating a TaskWeave via New() (optionally overriding defaults)
//  2. Registering tools and role configurations
//  3. Running a role against a session (Run)
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable memory store and a structured
// logger.
package taskweave

import (
	"context"

	"github.com/taskweave/taskweave/agent"
	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/logging"
	"github.com/taskweave/taskweave/memory"
	"github.com/taskweave/taskweave/tool"
)

// Options configures the TaskWeave instance.
type Options struct {
	// Backend produces model completions. Required for any real use; the
	// default Echo backend only mirrors input and exists for wiring tests.
	Backend backend.Backend

	// Memory persists conversation turns (defaults to in-memory).
	Memory core.MemoryStore

	// Logger receives structured runtime events (defaults to NoOp).
	Logger logging.Logger
}

// TaskWeave is the high-level façade aggregating the registry, factory and
// services.
type TaskWeave struct {
	opts     Options
	registry *tool.Registry
	factory  *agent.Factory
}

// New creates a TaskWeave instance with optional overrides. Any unset
// service is initialized with a local implementation.
func New(optFns ...func(o *Options)) *TaskWeave {
	opts := Options{
		Backend: backend.Echo{},
		Memory:  memory.NewInMemoryStore(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()
	factory := agent.NewFactory(registry, opts.Backend, opts.Memory, opts.Logger)

	return &TaskWeave{opts: opts, registry: registry, factory: factory}
}

// Registry exposes the shared tool registry.
func (t *TaskWeave) Registry() *tool.Registry { return t.registry }

// Factory exposes the role factory.
func (t *TaskWeave) Factory() *agent.Factory { return t.factory }

// RegisterTool adds a tool to the shared registry.
func (t *TaskWeave) RegisterTool(tl tool.Tool) error { return t.registry.Register(tl) }

// RegisterRole adds a role configuration to the factory.
func (t *TaskWeave) RegisterRole(cfg agent.Config) error { return t.factory.RegisterRole(cfg) }

// EnableDelegation registers the delegate_task tool so orchestrator roles
// can hand work to specialists.
func (t *TaskWeave) EnableDelegation() error {
	return t.registry.Register(agent.NewDelegateTool(t.factory))
}

// Run sends a user message to the named role within the given session and
// blocks until the loop terminates.
func (t *TaskWeave) Run(ctx context.Context, role, sessionID, message string) (*core.Outcome, error) {
	a, err := t.factory.Agent(role)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, sessionID, message)
}
