package tools

import (
	"encoding/json"
	"strings"

	"github.com/coderift/toolmind/agents"
	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// InspectSymbolArgs is inspect_symbol's input.
type InspectSymbolArgs struct {
	ID string `json:"id"`
}

// InspectSymbolAdapter dispatches to the indexer agent and falls back to
// searching a collab.RepositoryIndex directly for an exact id match.
type InspectSymbolAdapter struct {
	actx  AdapterContext
	index collab.RepositoryIndex
}

var _ core.ToolAdapter = (*InspectSymbolAdapter)(nil)
var _ core.ValidatingAdapter = (*InspectSymbolAdapter)(nil)

// NewInspectSymbolAdapter builds an inspect_symbol adapter.
func NewInspectSymbolAdapter(actx AdapterContext, index collab.RepositoryIndex) *InspectSymbolAdapter {
	return &InspectSymbolAdapter{actx: actx, index: index}
}

func (a *InspectSymbolAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *InspectSymbolAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "inspect_symbol",
		Description: "Looks up one previously-returned search result by id and renders its metadata.",
		InputSchema: core.Schema{
			Properties: map[string]core.PropertySchema{
				"id": {Type: core.PropertyTypeString, Description: "a search_code result id"},
			},
			Required: []string{"id"},
		},
	}
}

func (a *InspectSymbolAdapter) Validate(args json.RawMessage) core.ValidationResult {
	var parsed InspectSymbolArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return core.ValidationResult{Valid: false, Errors: []string{"args must be a JSON object"}}
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return core.ValidationResult{Valid: false, Errors: []string{"id is required"}}
	}
	return core.ValidationResult{Valid: true}
}

func (a *InspectSymbolAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	var parsed InspectSymbolArgs
	_ = json.Unmarshal(args, &parsed)

	if resp, _ := DispatchToAgent(execCtx.Context, a.actx, "indexer", agents.IndexerRequest{
		Action: "inspect", ID: parsed.ID,
	}); resp != nil {
		return toolResultFromAgentMessage(resp)
	}

	if a.index == nil {
		return failureResult(core.CodeIndexNotReady, "repository index is not wired", true)
	}
	results, err := a.index.Search(execCtx.Context, parsed.ID, collab.SearchOptions{Limit: 50})
	if err != nil {
		return failureResult(core.CodeToolExecutionError, err.Error(), true)
	}
	for i := range results {
		if results[i].ID == parsed.ID {
			return successResult(agents.IndexerResponse{Result: &results[i]})
		}
	}
	return failureResult(core.CodeNotFound, "no symbol found for id "+parsed.ID, false)
}
