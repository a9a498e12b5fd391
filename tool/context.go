package tool

import (
	"context"
	"slices"

	"github.com/taskweave/taskweave/logging"
)

// Context provides a constrained, auditable surface for tool implementations
// invoked by an agent. It carries the ambient cancellation context, session
// identity, the function call ID being answered, and the stack of role names
// active in the current delegation chain (outermost first).
type Context struct {
	ctx         context.Context
	sessionID   string
	callID      string
	activeRoles []string
	logger      logging.Logger
}

// NewContext constructs a tool context bound to one dispatched call.
// activeRoles is copied so nested invocations cannot mutate the caller's view.
func NewContext(ctx context.Context, sessionID, callID string, activeRoles []string, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{
		ctx:         ctx,
		sessionID:   sessionID,
		callID:      callID,
		activeRoles: slices.Clone(activeRoles),
		logger:      logger,
	}
}

// Context returns the cancellation context for the tool invocation.
// Cancelling it must abort any in-flight I/O and nested invocations.
func (tc *Context) Context() context.Context { return tc.ctx }

// SessionID returns the session the invoking agent is running in.
func (tc *Context) SessionID() string { return tc.sessionID }

// CallID returns the tool call identifier this execution answers.
func (tc *Context) CallID() string { return tc.callID }

// ActiveRoles returns a copy of the delegation call stack, outermost role
// first. The invoking agent's own role is always the last element.
func (tc *Context) ActiveRoles() []string { return slices.Clone(tc.activeRoles) }

// RoleActive reports whether the named role is already part of the current
// delegation chain.
func (tc *Context) RoleActive(role string) bool {
	return slices.Contains(tc.activeRoles, role)
}

// Logger returns the logger associated with the invocation.
func (tc *Context) Logger() logging.Logger { return tc.logger }
