package agent

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/logging"
	"github.com/taskweave/taskweave/tool"
)

var (
	// ErrUnknownRole is returned when no config is registered for a role.
	ErrUnknownRole = errors.New("unknown role")
	// ErrDuplicateRole is returned when registering a role name twice.
	ErrDuplicateRole = errors.New("role already registered")
)

// Factory constructs Agents for named roles. Agents are built lazily and
// cached per process, so repeated delegation to the same role reuses
// configuration but not memory (conversational state is keyed by session).
// The delegation tool depends on this indirection instead of compile-time
// knowledge of which roles exist.
type Factory struct {
	mu       sync.RWMutex
	configs  map[string]Config
	agents   map[string]*Agent
	registry *tool.Registry
	llm      backend.Backend
	memory   core.MemoryStore
	logger   logging.Logger
}

// NewFactory creates a Factory whose agents share the given registry,
// backend and memory store.
func NewFactory(registry *tool.Registry, llm backend.Backend, memory core.MemoryStore, logger logging.Logger) *Factory {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Factory{
		configs:  make(map[string]Config),
		agents:   make(map[string]*Agent),
		registry: registry,
		llm:      llm,
		memory:   memory,
		logger:   logger,
	}
}

// RegisterRole records the config for a role. The tool subset is resolved
// against the registry immediately so configuration defects abort startup
// instead of surfacing mid-conversation.
func (f *Factory) RegisterRole(cfg Config) error {
	if cfg.Role == "" {
		return fmt.Errorf("role config has empty role name")
	}
	if _, err := f.registry.Specs(cfg.Tools); err != nil {
		return fmt.Errorf("role %q: %w", cfg.Role, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.configs[cfg.Role]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRole, cfg.Role)
	}
	f.configs[cfg.Role] = cfg
	return nil
}

// Agent returns the cached Agent for a role, constructing it on first use.
// Fails with ErrUnknownRole if no config is registered under the name.
func (f *Factory) Agent(role string) (*Agent, error) {
	f.mu.RLock()
	if a, ok := f.agents[role]; ok {
		f.mu.RUnlock()
		return a, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.agents[role]; ok {
		return a, nil
	}
	cfg, ok := f.configs[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	a, err := New(cfg, f.registry, f.llm, f.memory, f.logger)
	if err != nil {
		return nil, err
	}
	f.agents[role] = a
	f.logger.Debug("factory.agent.constructed", "role", role)
	return a, nil
}

// Roles returns the registered role names in lexical order.
func (f *Factory) Roles() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	roles := make([]string, 0, len(f.configs))
	for role := range f.configs {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
