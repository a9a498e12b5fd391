package core

import (
	"time"

	"github.com/google/uuid"
)

// Role tags a Turn with its position in the conversation protocol.
type Role string

const (
	// RoleSystem marks instruction turns injected by configuration.
	RoleSystem Role = "system"
	// RoleUser marks turns authored by the end user (or a delegating parent).
	RoleUser Role = "user"
	// RoleAssistant marks model output turns, including tool call requests.
	RoleAssistant Role = "assistant"
	// RoleObservation marks the result of a dispatched tool call.
	RoleObservation Role = "tool_observation"
)

// ToolCall is a structured request emitted by the model to execute a named
// tool. IDs are unique within a single model response; the loop assigns one
// when the backend leaves it empty so observations can always be correlated.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Turn is one atomic unit of conversation history. After being appended to a
// session it should be treated as immutable.
//
// Assistant turns that request tool execution carry the raw ToolCalls for
// audit. Observation turns carry the ToolCallID of the call they answer and
// are appended strictly after their triggering assistant turn.
type Turn struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewID generates a unique identifier for turns, invocations and tool calls.
func NewID() string { return uuid.NewString() }

func newTurn(role Role, content string) Turn {
	return Turn{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserTurn creates a user-authored text turn.
func NewUserTurn(content string) Turn { return newTurn(RoleUser, content) }

// NewSystemTurn creates a system instruction turn.
func NewSystemTurn(content string) Turn { return newTurn(RoleSystem, content) }

// NewAssistantTurn creates a final assistant answer turn.
func NewAssistantTurn(content string) Turn { return newTurn(RoleAssistant, content) }

// NewToolCallTurn creates an assistant turn requesting execution of one or
// more tools. Content may carry accompanying reasoning text and can be empty.
func NewToolCallTurn(content string, calls []ToolCall) Turn {
	t := newTurn(RoleAssistant, content)
	t.ToolCalls = calls
	return t
}

// NewObservationTurn creates a tool observation turn correlated to the call
// that produced it.
func NewObservationTurn(toolCallID, content string) Turn {
	t := newTurn(RoleObservation, content)
	t.ToolCallID = toolCallID
	return t
}

// IsFinal reports whether an assistant turn concludes an invocation, i.e. it
// carries no pending tool calls.
func (t Turn) IsFinal() bool {
	return t.Role == RoleAssistant && len(t.ToolCalls) == 0
}
