package agents

import (
	"context"
	"encoding/json"

	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/core"
)

// IndexerRequest is the payload search_code and inspect_symbol send to the
// indexer agent.
type IndexerRequest struct {
	Action         string  `json:"action"` // "search" | "inspect"
	Query          string  `json:"query,omitempty"`
	ID             string  `json:"id,omitempty"`
	Limit          int     `json:"limit,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
}

// IndexerResponse is the payload carried on the indexer agent's successful
// responses.
type IndexerResponse struct {
	Results []collab.SearchResult `json:"results,omitempty"`
	Result  *collab.SearchResult  `json:"result,omitempty"`
}

// IndexerAgent answers search_code and inspect_symbol requests against a
// collab.RepositoryIndex.
type IndexerAgent struct {
	index  collab.RepositoryIndex
	logger core.Logger
}

var _ core.Agent = (*IndexerAgent)(nil)
var _ core.HealthCheckable = (*IndexerAgent)(nil)

// NewIndexerAgent builds an IndexerAgent over index.
func NewIndexerAgent(index collab.RepositoryIndex) *IndexerAgent {
	return &IndexerAgent{index: index}
}

func (a *IndexerAgent) Name() string { return "indexer" }

func (a *IndexerAgent) Capabilities() []string { return []string{"search_code", "inspect_symbol"} }

func (a *IndexerAgent) Initialize(ctx context.Context, actx core.AgentContext) error {
	a.logger = actx.Logger
	return a.index.Initialize(ctx)
}

func (a *IndexerAgent) Shutdown(ctx context.Context) error {
	return a.index.Close(ctx)
}

func (a *IndexerAgent) HealthCheck(ctx context.Context) error {
	_, err := a.index.GetStats(ctx)
	return err
}

func (a *IndexerAgent) HandleMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if msg.Kind != core.MessageKindRequest {
		return nil, nil
	}

	var req IndexerRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "malformed indexer request: "+err.Error(), true), nil
	}

	switch req.Action {
	case "search":
		return a.handleSearch(ctx, msg, req)
	case "inspect":
		return a.handleInspect(ctx, msg, req)
	default:
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "unknown indexer action: "+req.Action, true), nil
	}
}

func (a *IndexerAgent) handleSearch(ctx context.Context, msg *core.Message, req IndexerRequest) (*core.Message, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	results, err := a.index.Search(ctx, req.Query, collab.SearchOptions{Limit: limit, ScoreThreshold: req.ScoreThreshold})
	if err != nil {
		return errorMessage(msg, a.Name(), core.CodeToolExecutionError, err.Error(), true), nil
	}
	return respond(msg, a.Name(), IndexerResponse{Results: results}), nil
}

// handleInspect looks a SearchResult up by id. RepositoryIndex exposes no
// direct get-by-id method, so this searches using the id as the query and
// picks the exact match out of the returned set.
func (a *IndexerAgent) handleInspect(ctx context.Context, msg *core.Message, req IndexerRequest) (*core.Message, error) {
	if req.ID == "" {
		return errorMessage(msg, a.Name(), core.CodeInvalidParams, "inspect requires an id", true), nil
	}
	results, err := a.index.Search(ctx, req.ID, collab.SearchOptions{Limit: 50})
	if err != nil {
		return errorMessage(msg, a.Name(), core.CodeToolExecutionError, err.Error(), true), nil
	}
	for i := range results {
		if results[i].ID == req.ID {
			return respond(msg, a.Name(), IndexerResponse{Result: &results[i]}), nil
		}
	}
	return errorMessage(msg, a.Name(), core.CodeNotFound, "no symbol found for id "+req.ID, false), nil
}
