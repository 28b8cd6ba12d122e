package tools

import (
	"encoding/json"
	"strings"

	"github.com/coderift/toolmind/agents"
	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// SearchCodeArgs is search_code's input.
type SearchCodeArgs struct {
	Query          string  `json:"query"`
	Limit          int     `json:"limit,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
}

// SearchCodeAdapter dispatches to the indexer agent and falls back to
// calling a collab.RepositoryIndex directly.
type SearchCodeAdapter struct {
	actx  AdapterContext
	index collab.RepositoryIndex
}

var _ core.ToolAdapter = (*SearchCodeAdapter)(nil)
var _ core.ValidatingAdapter = (*SearchCodeAdapter)(nil)

// NewSearchCodeAdapter builds a search_code adapter. index may be nil when
// no direct fallback is available (the adapter then requires a coordinator
// with an indexer agent registered).
func NewSearchCodeAdapter(actx AdapterContext, index collab.RepositoryIndex) *SearchCodeAdapter {
	return &SearchCodeAdapter{actx: actx, index: index}
}

func (a *SearchCodeAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *SearchCodeAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "search_code",
		Description: "Semantic search over the indexed repository for symbols, files, and snippets.",
		InputSchema: core.Schema{
			Properties: map[string]core.PropertySchema{
				"query":           {Type: core.PropertyTypeString, Description: "natural-language or symbol query"},
				"limit":           {Type: core.PropertyTypeInteger, Minimum: floatPtr(1), Maximum: floatPtr(100)},
				"score_threshold": {Type: core.PropertyTypeNumber, Minimum: floatPtr(0), Maximum: floatPtr(1)},
			},
			Required: []string{"query"},
		},
	}
}

func (a *SearchCodeAdapter) Validate(args json.RawMessage) core.ValidationResult {
	var parsed SearchCodeArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return core.ValidationResult{Valid: false, Errors: []string{"args must be a JSON object"}}
	}
	if strings.TrimSpace(parsed.Query) == "" {
		return core.ValidationResult{Valid: false, Errors: []string{"query is required"}}
	}
	return core.ValidationResult{Valid: true}
}

func (a *SearchCodeAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	var parsed SearchCodeArgs
	_ = json.Unmarshal(args, &parsed)
	if parsed.Limit <= 0 {
		parsed.Limit = 10
	}
	setSessionValue(a.actx, "last_search_query", parsed.Query)

	if resp, _ := DispatchToAgent(execCtx.Context, a.actx, "indexer", agents.IndexerRequest{
		Action: "search", Query: parsed.Query, Limit: parsed.Limit, ScoreThreshold: parsed.ScoreThreshold,
	}); resp != nil {
		return toolResultFromAgentMessage(resp)
	}

	if a.index == nil {
		return failureResult(core.CodeIndexNotReady, "repository index is not wired", true)
	}
	results, err := a.index.Search(execCtx.Context, parsed.Query, collab.SearchOptions{Limit: parsed.Limit, ScoreThreshold: parsed.ScoreThreshold})
	if err != nil {
		return failureResult(core.CodeToolExecutionError, err.Error(), true)
	}
	result := successResult(agents.IndexerResponse{Results: results})
	result.Metadata.TotalAvailable = len(results)
	return result
}
