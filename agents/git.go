package agents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// GitRequest is the payload git_history sends to the git agent.
type GitRequest struct {
	Action   string     `json:"action"` // "history"
	Path     string     `json:"path,omitempty"`
	Author   string     `json:"author,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	NoMerges bool       `json:"no_merges,omitempty"`
}

// GitResponse is the payload carried on the git agent's successful
// responses.
type GitResponse struct {
	Commits []collab.GitCommit `json:"commits"`
}

// GitAgent answers git_history requests against a collab.GitSource.
type GitAgent struct {
	source collab.GitSource
	logger core.Logger
}

var _ core.Agent = (*GitAgent)(nil)

// NewGitAgent builds a GitAgent over source.
func NewGitAgent(source collab.GitSource) *GitAgent {
	return &GitAgent{source: source}
}

func (a *GitAgent) Name() string { return "git" }

func (a *GitAgent) Capabilities() []string { return []string{"git_history"} }

func (a *GitAgent) Initialize(ctx context.Context, actx core.AgentContext) error {
	a.logger = actx.Logger
	return nil
}

func (a *GitAgent) HandleMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if msg.Kind != core.MessageKindRequest {
		return nil, nil
	}

	var req GitRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "malformed git request: "+err.Error(), true), nil
	}
	if req.Action != "history" && req.Action != "" {
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "unknown git action: "+req.Action, true), nil
	}

	commits, err := a.source.GetCommits(ctx, collab.GitLogOptions{
		Path: req.Path, Author: req.Author, Limit: req.Limit, Since: req.Since, NoMerges: req.NoMerges,
	})
	if err != nil {
		return errorMessage(msg, a.Name(), core.CodeToolExecutionError, err.Error(), true), nil
	}
	return respond(msg, a.Name(), GitResponse{Commits: commits}), nil
}
