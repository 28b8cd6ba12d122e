package tools

import (
	"encoding/json"
	"time"

	"github.com/coderift/toolmind/agents"
	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// GitHistoryArgs is git_history's input.
type GitHistoryArgs struct {
	Path     string     `json:"path,omitempty"`
	Author   string     `json:"author,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	NoMerges bool       `json:"no_merges,omitempty"`
}

// GitHistoryAdapter dispatches to the git agent and falls back to calling
// a collab.GitSource directly.
type GitHistoryAdapter struct {
	actx   AdapterContext
	source collab.GitSource
}

var _ core.ToolAdapter = (*GitHistoryAdapter)(nil)

// NewGitHistoryAdapter builds a git_history adapter.
func NewGitHistoryAdapter(actx AdapterContext, source collab.GitSource) *GitHistoryAdapter {
	return &GitHistoryAdapter{actx: actx, source: source}
}

func (a *GitHistoryAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *GitHistoryAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "git_history",
		Description: "Lists commits touching a path, by a given author, or since a given time.",
		InputSchema: core.Schema{
			Properties: map[string]core.PropertySchema{
				"path":      {Type: core.PropertyTypeString},
				"author":    {Type: core.PropertyTypeString},
				"limit":     {Type: core.PropertyTypeInteger, Minimum: floatPtr(1), Maximum: floatPtr(200)},
				"no_merges": {Type: core.PropertyTypeBoolean},
			},
		},
	}
}

func (a *GitHistoryAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	var parsed GitHistoryArgs
	_ = json.Unmarshal(args, &parsed)
	if parsed.Limit <= 0 {
		parsed.Limit = 20
	}

	if resp, _ := DispatchToAgent(execCtx.Context, a.actx, "git", agents.GitRequest{
		Action: "history", Path: parsed.Path, Author: parsed.Author, Limit: parsed.Limit, Since: parsed.Since, NoMerges: parsed.NoMerges,
	}); resp != nil {
		return toolResultFromAgentMessage(resp)
	}

	if a.source == nil {
		return failureResult(core.CodeToolExecutionError, "git source is not wired", true)
	}
	commits, err := a.source.GetCommits(execCtx.Context, collab.GitLogOptions{
		Path: parsed.Path, Author: parsed.Author, Limit: parsed.Limit, Since: parsed.Since, NoMerges: parsed.NoMerges,
	})
	if err != nil {
		return failureResult(core.CodeToolExecutionError, err.Error(), true)
	}
	result := successResult(agents.GitResponse{Commits: commits})
	result.Metadata.TotalAvailable = len(commits)
	return result
}
