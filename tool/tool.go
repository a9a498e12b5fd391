// Package tool implements the capability subsystem that lets agents invoke
// structured external functions (searches, queries, computations, nested
// agent delegation) with schema-validated arguments and uniform error
// handling.
package tool

import (
	"fmt"

	"github.com/taskweave/taskweave/core"
)

// Error codes attached to *ToolError values. Custom codes from tool
// implementations are preserved.
const (
	CodeNotFound        = "TOOL_NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeExecution       = "EXECUTION_ERROR"
	CodeDelegationCycle = "DELEGATION_CYCLE"
	CodeUnknownRole     = "UNKNOWN_ROLE"
)

// Tool defines the uniform contract for extending agent capabilities.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Declare their parameters through the Spec
//   - Handle errors gracefully (return, never panic)
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Spec returns the capability advertisement: description plus parameter
	// schema. It must be constant for the lifetime of the tool.
	Spec() core.ToolSpec

	// Call executes the tool with already-validated arguments. The Context
	// carries cancellation, session identity, the correlating call ID and
	// the active delegation stack.
	Call(tc *Context, args map[string]any) (any, error)
}

// ToolError represents a failure during tool dispatch or execution. The loop
// converts these into observation turns so the model can recover.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
