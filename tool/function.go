package tool

import "github.com/taskweave/taskweave/core"

// FunctionTool adapts a plain Go function into a Tool. It has no internal
// mutable state after construction and is safe for concurrent use.
//
// Argument validation happens in the Registry before the function runs, so
// implementations may assume required keys are present and correctly typed.
type FunctionTool struct {
	spec core.ToolSpec
	fn   func(tc *Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit spec and
// implementation.
//
// Example:
//
//	sum := tool.NewFunctionTool(core.ToolSpec{
//		Name:        "calculate_sum",
//		Description: "Calculate the sum of two numbers",
//		Parameters: map[string]core.Param{
//			"a": {Type: "number", Required: true},
//			"b": {Type: "number", Required: true},
//		},
//	}, func(tc *tool.Context, args map[string]any) (any, error) {
//		return args["a"].(float64) + args["b"].(float64), nil
//	})
func NewFunctionTool(spec core.ToolSpec, fn func(tc *Context, args map[string]any) (any, error)) *FunctionTool {
	return &FunctionTool{spec: spec, fn: fn}
}

// Name returns the unique tool name used in call declarations and routing.
func (t *FunctionTool) Name() string { return t.spec.Name }

// Spec returns the capability advertisement.
func (t *FunctionTool) Spec() core.ToolSpec { return t.spec }

// Call invokes the wrapped function.
func (t *FunctionTool) Call(tc *Context, args map[string]any) (any, error) {
	return t.fn(tc, args)
}
