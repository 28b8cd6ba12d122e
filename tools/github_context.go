package tools

import (
	"encoding/json"

	"github.com/coderift/toolmind/agents"
	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// GitHubContextArgs is github_context's input. Exactly one of Number
// (context/related lookup) or Query (search) is expected.
type GitHubContextArgs struct {
	Number  int    `json:"number,omitempty"`
	Query   string `json:"query,omitempty"`
	Related bool   `json:"related,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// GitHubContextAdapter dispatches to the github agent and falls back to
// calling a collab.GitHubSource directly.
type GitHubContextAdapter struct {
	actx   AdapterContext
	source collab.GitHubSource
}

var _ core.ToolAdapter = (*GitHubContextAdapter)(nil)
var _ core.ValidatingAdapter = (*GitHubContextAdapter)(nil)

// NewGitHubContextAdapter builds a github_context adapter.
func NewGitHubContextAdapter(actx AdapterContext, source collab.GitHubSource) *GitHubContextAdapter {
	return &GitHubContextAdapter{actx: actx, source: source}
}

func (a *GitHubContextAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *GitHubContextAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "github_context",
		Description: "Fetches an issue/PR's context, its related issues/PRs, or searches issues and PRs by text.",
		InputSchema: core.Schema{
			Properties: map[string]core.PropertySchema{
				"number":  {Type: core.PropertyTypeInteger, Description: "issue or pull request number"},
				"query":   {Type: core.PropertyTypeString, Description: "full-text search query"},
				"related": {Type: core.PropertyTypeBoolean, Description: "when set with number, returns related items instead of context"},
				"limit":   {Type: core.PropertyTypeInteger, Minimum: floatPtr(1), Maximum: floatPtr(100)},
			},
		},
	}
}

func (a *GitHubContextAdapter) Validate(args json.RawMessage) core.ValidationResult {
	var parsed GitHubContextArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return core.ValidationResult{Valid: false, Errors: []string{"args must be a JSON object"}}
	}
	if parsed.Number == 0 && parsed.Query == "" {
		return core.ValidationResult{Valid: false, Errors: []string{"either number or query is required"}}
	}
	return core.ValidationResult{Valid: true}
}

func (a *GitHubContextAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	var parsed GitHubContextArgs
	_ = json.Unmarshal(args, &parsed)
	limit := parsed.Limit
	if limit <= 0 {
		limit = 10
	}

	action := "context"
	switch {
	case parsed.Number != 0 && parsed.Related:
		action = "related"
	case parsed.Number != 0:
		action = "context"
	case parsed.Query != "":
		action = "search"
	}

	if resp, _ := DispatchToAgent(execCtx.Context, a.actx, "github", agents.GitHubRequest{
		Action: action, Number: parsed.Number, Query: parsed.Query, Limit: limit,
	}); resp != nil {
		return toolResultFromAgentMessage(resp)
	}

	if a.source == nil {
		return failureResult(core.CodeToolExecutionError, "github source is not wired", true)
	}

	switch action {
	case "related":
		related, err := a.source.FindRelated(execCtx.Context, parsed.Number, limit)
		if err != nil {
			return failureResult(core.CodeToolExecutionError, err.Error(), true)
		}
		return successResult(agents.GitHubResponse{Related: related})
	case "search":
		results, err := a.source.Search(execCtx.Context, parsed.Query, collab.GitHubSearchOptions{Limit: limit})
		if err != nil {
			return failureResult(core.CodeToolExecutionError, err.Error(), true)
		}
		return successResult(agents.GitHubResponse{Results: results})
	default:
		doc, err := a.source.GetContext(execCtx.Context, parsed.Number)
		if err != nil {
			return failureResult(core.CodeNotFound, err.Error(), false)
		}
		return successResult(agents.GitHubResponse{Document: &doc})
	}
}
