package agent

import (
	"fmt"
	"strings"

	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/tool"
)

// DelegateToolName is the registry name of the delegation tool.
const DelegateToolName = "delegate_task"

// DelegationCycleError reports an attempt to delegate to a role that is
// already active in the current call chain. It is surfaced as a tool
// observation so the orchestrator can adjust its plan instead of
// deadlocking.
type DelegationCycleError struct {
	Role  string
	Chain []string
}

func (e *DelegationCycleError) Error() string {
	return fmt.Sprintf("delegation cycle: role %q is already active in chain %s",
		e.Role, strings.Join(e.Chain, " -> "))
}

// DelegateTool lets orchestrator-class agents hand a well-defined sub-task
// to a specialist agent. It resolves the target role through the Factory and
// runs a fresh, independent invocation of that agent's loop in its own task
// session, so the specialist's internal turns never leak into the
// orchestrator's memory. Delegation is synchronous: the parent suspends
// until the specialist's final answer comes back as the observation.
type DelegateTool struct {
	factory *Factory
}

// NewDelegateTool constructs the delegation tool. Register it only on
// orchestrator-class roles.
func NewDelegateTool(factory *Factory) *DelegateTool {
	return &DelegateTool{factory: factory}
}

// Name implements tool.Tool.
func (t *DelegateTool) Name() string { return DelegateToolName }

// Spec implements tool.Tool.
func (t *DelegateTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name: DelegateToolName,
		Description: "Delegate a specific, well-defined sub-task to a specialist agent. " +
			"Specify which specialist to use via 'specialist_role' (e.g. 'researcher', " +
			"'database_analyst') and provide a clear 'task_description' for them to execute.",
		Parameters: map[string]core.Param{
			"specialist_role": {
				Type:        "string",
				Description: "Name of the specialist role to delegate to",
				Required:    true,
			},
			"task_description": {
				Type:        "string",
				Description: "Self-contained description of the sub-task",
				Required:    true,
			},
			"context": {
				Type:        "string",
				Description: "Optional task-specific context to pass along",
				Required:    false,
			},
		},
	}
}

// Call implements tool.Tool. Cycle violations, unknown roles and specialist
// aborts are returned as errors; the registry folds them into observations
// the orchestrator can react to.
func (t *DelegateTool) Call(tc *tool.Context, args map[string]any) (any, error) {
	role, _ := args["specialist_role"].(string)
	task, _ := args["task_description"].(string)
	if role == "" || task == "" {
		return nil, tool.NewToolError(DelegateToolName,
			"both 'specialist_role' and 'task_description' are required", tool.CodeValidation)
	}

	if tc.RoleActive(role) {
		cycleErr := &DelegationCycleError{Role: role, Chain: append(tc.ActiveRoles(), role)}
		return nil, tool.NewToolError(DelegateToolName, cycleErr.Error(), tool.CodeDelegationCycle)
	}

	specialist, err := t.factory.Agent(role)
	if err != nil {
		return nil, tool.NewToolError(DelegateToolName, err.Error(), tool.CodeUnknownRole)
	}

	message := task
	if extra, _ := args["context"].(string); extra != "" {
		message = task + "\n\nContext:\n" + extra
	}

	// Fresh task session per delegation: memory isolation between roles and
	// between repeated delegations to the same role.
	taskSessionID := "task-" + core.NewID()

	tc.Logger().Info("delegate.start", "role", role, "task_session", taskSessionID, "chain", tc.ActiveRoles())

	outcome, err := specialist.run(tc.Context(), taskSessionID, message, append(tc.ActiveRoles(), role))
	if err != nil {
		return nil, tool.NewToolError(DelegateToolName,
			fmt.Sprintf("delegation to %q failed: %v", role, err), tool.CodeExecution)
	}
	if !outcome.Done() {
		return nil, tool.NewToolError(DelegateToolName,
			fmt.Sprintf("specialist %q aborted (%s): %s", role, outcome.Kind, outcome.Reason),
			tool.CodeExecution)
	}

	tc.Logger().Info("delegate.done", "role", role, "task_session", taskSessionID)
	return outcome.Answer, nil
}
