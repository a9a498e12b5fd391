package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/taskweave/taskweave/core"
)

var (
	// ErrDuplicateTool is returned when registering a name twice.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned by Specs for names absent from the registry.
	ErrUnknownTool = errors.New("unknown tool")
)

// Registry maps tool names to implementations, advertises their specs and
// validates arguments before dispatch. It is read-mostly after startup and
// safe for concurrent use across invocations. The registry itself is
// side-effect-free dispatch glue; side effects belong to the tools.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*gojsonschema.Schema
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool under its spec name. The parameter schema is compiled
// once here; a schema that does not compile is a configuration defect and
// fails registration. Registering a duplicate name fails with
// ErrDuplicateTool.
func (r *Registry) Register(t Tool) error {
	spec := t.Spec()
	name := spec.Name
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}

	schemaDoc, err := json.Marshal(spec.JSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema for %q: %w", name, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaDoc))
	if err != nil {
		return fmt.Errorf("compile schema for %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.schemas[name] = schema
	return nil
}

// Names returns all registered tool names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Specs returns the ToolSpec list for the given names, preserving input
// order. Any absent name fails the whole lookup with ErrUnknownTool.
func (r *Registry) Specs(names []string) ([]core.ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]core.ToolSpec, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		specs = append(specs, t.Spec())
	}
	return specs, nil
}

// Invoke validates args against the named tool's schema, then executes it.
// Failures come back as *ToolError values: unknown names as CodeNotFound,
// schema mismatches as CodeValidation listing every offending key, and
// implementation failures (including panics) as CodeExecution. Callers turn
// these into observation turns rather than crashing the process.
func (r *Registry) Invoke(tc *Context, name string, args map[string]any) (result any, err error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewToolError(name, "tool is not registered", CodeNotFound)
	}

	if args == nil {
		args = map[string]any{}
	}
	if verr := validateArgs(schema, args); verr != nil {
		tc.Logger().Warn("tool.call.validation_failed", "tool", name, "error", verr.Error())
		return nil, NewToolError(name, verr.Error(), CodeValidation)
	}

	start := time.Now()
	tc.Logger().Debug("tool.call.start", "tool", name, "call_id", tc.CallID())

	defer func() {
		if rec := recover(); rec != nil {
			tc.Logger().Error("tool.call.panic", "tool", name, "recover", rec)
			result = nil
			err = NewToolError(name, fmt.Sprintf("panic: %v", rec), CodeExecution)
		}
	}()

	result, err = t.Call(tc, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			tc.Logger().Error("tool.call.error", "tool", name, "code", toolErr.Code, "error", toolErr.Message)
			return nil, toolErr
		}
		tc.Logger().Error("tool.call.error", "tool", name, "error", err.Error())
		return nil, NewToolError(name, err.Error(), CodeExecution)
	}

	tc.Logger().Info("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// validateArgs checks an argument map against a compiled schema and folds
// all reported problems (missing, extra, mistyped keys) into one error.
func validateArgs(schema *gojsonschema.Schema, args map[string]any) error {
	res, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("argument validation: %w", err)
	}
	if res.Valid() {
		return nil
	}
	issues := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(issues, "; "))
}
