package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnConstructors(t *testing.T) {
	user := NewUserTurn("hello")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.Timestamp.IsZero())

	obs := NewObservationTurn("call-1", "result")
	assert.Equal(t, RoleObservation, obs.Role)
	assert.Equal(t, "call-1", obs.ToolCallID)

	calls := []ToolCall{{ID: "c1", Name: "calculator"}}
	tc := NewToolCallTurn("thinking", calls)
	assert.Equal(t, RoleAssistant, tc.Role)
	assert.Equal(t, calls, tc.ToolCalls)
}

func TestTurnIsFinal(t *testing.T) {
	assert.True(t, NewAssistantTurn("done").IsFinal())
	assert.False(t, NewToolCallTurn("", []ToolCall{{ID: "c1", Name: "x"}}).IsFinal())
	assert.False(t, NewUserTurn("hi").IsFinal())
	assert.False(t, NewObservationTurn("c1", "out").IsFinal())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestToolSpecJSONSchema(t *testing.T) {
	spec := ToolSpec{
		Name: "search",
		Parameters: map[string]Param{
			"query": {Type: "string", Description: "the query", Required: true},
			"limit": {Type: "integer"},
			"area":  {Type: "string", Required: true},
		},
	}

	schema := spec.JSONSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	props := schema["properties"].(map[string]any)
	assert.Len(t, props, 3)
	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "the query", query["description"])

	// Required keys are sorted so repeated renderings are identical.
	assert.Equal(t, []string{"area", "query"}, schema["required"])
	assert.Equal(t, schema, spec.JSONSchema())
}

func TestToolSpecJSONSchemaNoRequired(t *testing.T) {
	spec := ToolSpec{
		Name:       "ping",
		Parameters: map[string]Param{"host": {Type: "string"}},
	}
	schema := spec.JSONSchema()
	_, ok := schema["required"]
	assert.False(t, ok)
}

func TestSessionAppendAndHistory(t *testing.T) {
	sess := NewSession("s1")
	sess.Append(NewUserTurn("one"))
	sess.Append(NewAssistantTurn("two"))
	sess.Append(NewUserTurn("three"))

	assert.Equal(t, 3, sess.Len())

	all := sess.History(0)
	assert.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, "three", all[2].Content)

	last := sess.History(2)
	assert.Len(t, last, 2)
	assert.Equal(t, "two", last[0].Content)
	assert.Equal(t, "three", last[1].Content)

	// The returned slice is a copy.
	last[0].Content = "mutated"
	assert.Equal(t, "two", sess.History(0)[1].Content)
}
