package tools

import (
	"encoding/json"
	"strings"

	"github.com/coderift/toolmind/core"
)

// PlanTaskArgs is plan_task's input.
type PlanTaskArgs struct {
	Objective string `json:"objective"`
	Context   string `json:"context,omitempty"`
}

// PlanStep is one ordered step of a decomposed objective.
type PlanStep struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
}

// PlanTaskResponse is plan_task's successful payload.
type PlanTaskResponse struct {
	Steps []PlanStep `json:"steps"`
}

// PlanTaskAdapter dispatches to a "planner" agent if one is registered;
// this module ships none, so in practice every call takes the local
// decomposition fallback below.
type PlanTaskAdapter struct {
	actx AdapterContext
}

var _ core.ToolAdapter = (*PlanTaskAdapter)(nil)
var _ core.ValidatingAdapter = (*PlanTaskAdapter)(nil)

// NewPlanTaskAdapter builds a plan_task adapter.
func NewPlanTaskAdapter(actx AdapterContext) *PlanTaskAdapter {
	return &PlanTaskAdapter{actx: actx}
}

func (a *PlanTaskAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *PlanTaskAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "plan_task",
		Description: "Decomposes an objective into an ordered list of concrete steps.",
		InputSchema: core.Schema{
			Properties: map[string]core.PropertySchema{
				"objective": {Type: core.PropertyTypeString, Description: "the goal to decompose"},
				"context":   {Type: core.PropertyTypeString, Description: "optional extra context"},
			},
			Required: []string{"objective"},
		},
	}
}

func (a *PlanTaskAdapter) Validate(args json.RawMessage) core.ValidationResult {
	var parsed PlanTaskArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return core.ValidationResult{Valid: false, Errors: []string{"args must be a JSON object"}}
	}
	if strings.TrimSpace(parsed.Objective) == "" {
		return core.ValidationResult{Valid: false, Errors: []string{"objective is required"}}
	}
	return core.ValidationResult{Valid: true}
}

func (a *PlanTaskAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	var parsed PlanTaskArgs
	_ = json.Unmarshal(args, &parsed)

	if resp, _ := DispatchToAgent(execCtx.Context, a.actx, "planner", parsed); resp != nil {
		return toolResultFromAgentMessage(resp)
	}

	steps := decomposeObjective(parsed.Objective)
	setSessionValue(a.actx, "last_plan_objective", parsed.Objective)
	return successResult(PlanTaskResponse{Steps: steps})
}

// decomposeObjective splits an objective into steps along common clause
// separators. It's a deterministic heuristic, not a planner: good enough to
// give a caller a starting checklist when no planner agent is wired.
func decomposeObjective(objective string) []PlanStep {
	replacer := strings.NewReplacer(
		" and then ", "\n",
		", then ", "\n",
		"; ", "\n",
		". ", "\n",
	)
	clauses := strings.Split(replacer.Replace(objective), "\n")

	steps := make([]PlanStep, 0, len(clauses))
	order := 1
	for _, c := range clauses {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		steps = append(steps, PlanStep{Order: order, Description: c})
		order++
	}
	if len(steps) == 0 {
		steps = append(steps, PlanStep{Order: 1, Description: "Investigate: " + strings.TrimSpace(objective)})
	}
	return steps
}
