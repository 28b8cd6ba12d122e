package agents

import (
	"context"
	"encoding/json"

	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// GitHubRequest is the payload github_context sends to the github agent.
type GitHubRequest struct {
	Action string `json:"action"` // "context" | "related" | "search"
	Number int    `json:"number,omitempty"`
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// GitHubResponse is the payload carried on the github agent's successful
// responses. Exactly one of Document/Related/Results is set, depending on
// the request's Action.
type GitHubResponse struct {
	Document *collab.Document      `json:"document,omitempty"`
	Related  []collab.SearchResult `json:"related,omitempty"`
	Results  []collab.SearchResult `json:"results,omitempty"`
}

// GitHubAgent answers github_context requests against a collab.GitHubSource.
type GitHubAgent struct {
	source collab.GitHubSource
	logger core.Logger
}

var _ core.Agent = (*GitHubAgent)(nil)

// NewGitHubAgent builds a GitHubAgent over source.
func NewGitHubAgent(source collab.GitHubSource) *GitHubAgent {
	return &GitHubAgent{source: source}
}

func (a *GitHubAgent) Name() string { return "github" }

func (a *GitHubAgent) Capabilities() []string { return []string{"github_context"} }

func (a *GitHubAgent) Initialize(ctx context.Context, actx core.AgentContext) error {
	a.logger = actx.Logger
	return nil
}

func (a *GitHubAgent) HandleMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if msg.Kind != core.MessageKindRequest {
		return nil, nil
	}

	var req GitHubRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "malformed github request: "+err.Error(), true), nil
	}

	switch req.Action {
	case "context":
		return a.handleContext(ctx, msg, req)
	case "related":
		return a.handleRelated(ctx, msg, req)
	case "search":
		return a.handleSearch(ctx, msg, req)
	default:
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "unknown github action: "+req.Action, true), nil
	}
}

func (a *GitHubAgent) handleContext(ctx context.Context, msg *core.Message, req GitHubRequest) (*core.Message, error) {
	doc, err := a.source.GetContext(ctx, req.Number)
	if err != nil {
		return errorMessage(msg, a.Name(), core.CodeNotFound, err.Error(), false), nil
	}
	return respond(msg, a.Name(), GitHubResponse{Document: &doc}), nil
}

func (a *GitHubAgent) handleRelated(ctx context.Context, msg *core.Message, req GitHubRequest) (*core.Message, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	related, err := a.source.FindRelated(ctx, req.Number, limit)
	if err != nil {
		return errorMessage(msg, a.Name(), core.CodeToolExecutionError, err.Error(), true), nil
	}
	return respond(msg, a.Name(), GitHubResponse{Related: related}), nil
}

func (a *GitHubAgent) handleSearch(ctx context.Context, msg *core.Message, req GitHubRequest) (*core.Message, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	results, err := a.source.Search(ctx, req.Query, collab.GitHubSearchOptions{Limit: limit})
	if err != nil {
		return errorMessage(msg, a.Name(), core.CodeToolExecutionError, err.Error(), true), nil
	}
	return respond(msg, a.Name(), GitHubResponse{Results: results}), nil
}
