package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/memory"
	"github.com/taskweave/taskweave/tool"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	registry := tool.NewRegistry()
	require.NoError(t, registry.Register(lookupTool()))
	return NewFactory(registry, backend.Echo{}, memory.NewInMemoryStore(), nil)
}

func TestFactoryRegisterRole(t *testing.T) {
	f := newTestFactory(t)

	require.NoError(t, f.RegisterRole(Config{Role: "assistant", Tools: []string{"lookup"}}))

	err := f.RegisterRole(Config{Role: "assistant"})
	assert.ErrorIs(t, err, ErrDuplicateRole)

	err = f.RegisterRole(Config{Role: ""})
	assert.Error(t, err)
}

func TestFactoryRegisterRoleRejectsUnknownTools(t *testing.T) {
	f := newTestFactory(t)

	err := f.RegisterRole(Config{Role: "assistant", Tools: []string{"lookup", "ghost"}})
	assert.ErrorIs(t, err, tool.ErrUnknownTool)
}

func TestFactoryAgentUnknownRole(t *testing.T) {
	f := newTestFactory(t)

	_, err := f.Agent("ghost")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestFactoryAgentCached(t *testing.T) {
	f := newTestFactory(t)
	require.NoError(t, f.RegisterRole(Config{Role: "assistant", Tools: []string{"lookup"}}))

	first, err := f.Agent("assistant")
	require.NoError(t, err)
	second, err := f.Agent("assistant")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFactoryRolesSorted(t *testing.T) {
	f := newTestFactory(t)
	require.NoError(t, f.RegisterRole(Config{Role: "researcher"}))
	require.NoError(t, f.RegisterRole(Config{Role: "analyst"}))
	require.NoError(t, f.RegisterRole(Config{Role: "orchestrator"}))

	assert.Equal(t, []string{"analyst", "orchestrator", "researcher"}, f.Roles())
}
