// Package tools implements the seven concrete ToolAdapters the registry
// serves: search_code, plan_task, inspect_symbol, git_history,
// github_context, health, and status. Each adapter that has a backing
// agent tries the coordinator first and falls back to calling its
// collaborator directly when no coordinator is wired or the agent isn't
// registered — grounded on the teacher's BaseTool convenience layer,
// generalized into the dispatchToAgent/fallback split spec.md calls for.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/coordinator"
)

// AdapterContext is the slice of shared substrate a tool adapter needs:
// an optional coordinator to dispatch agent requests through, an optional
// context accessor for session/persistent passthroughs, an optional
// history reader, and a logger. Every field is safe to leave zero; a nil
// Coordinator simply means every tool takes its direct fallback path.
type AdapterContext struct {
	Coordinator *coordinator.Coordinator
	ContextMgr  core.ContextAccessor
	History     func(limit int) []core.Message
	Logger      core.Logger
}

// DispatchToAgent routes payload to agentName through actx.Coordinator and
// returns its response. It returns (nil, nil) — signaling "take the direct
// fallback path" — when no coordinator is wired, or when the coordinator
// reports the agent isn't registered (AGENT_NOT_FOUND). Any other error
// response is returned so the caller can surface it instead of silently
// falling back.
func DispatchToAgent(ctx context.Context, actx AdapterContext, agentName string, payload interface{}) (*core.Message, error) {
	if actx.Coordinator == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp := actx.Coordinator.SendMessage(ctx, core.NewRequest("tool", agentName, raw))
	if resp == nil {
		return nil, nil
	}
	if resp.Kind == core.MessageKindError {
		var errPayload core.ToolErrorPayload
		_ = json.Unmarshal(resp.Payload, &errPayload)
		if errPayload.Code == core.CodeAgentNotFound {
			return nil, nil
		}
	}
	return resp, nil
}

// toolResultFromAgentMessage converts an agent's response/error message
// into the ToolResult shape the registry expects.
func toolResultFromAgentMessage(msg *core.Message) core.ToolResult {
	if msg.Kind == core.MessageKindError {
		var errPayload core.ToolErrorPayload
		_ = json.Unmarshal(msg.Payload, &errPayload)
		return failureResult(errPayload.Code, errPayload.Message, errPayload.Recoverable)
	}
	return core.ToolResult{
		Success:  true,
		Payload:  msg.Payload,
		Metadata: core.ToolResultMetadata{TimestampUnix: time.Now().Unix()},
	}
}

func successResult(payload interface{}) core.ToolResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		return failureResult(core.CodeToolExecutionError, "failed to encode result: "+err.Error(), true)
	}
	return core.ToolResult{
		Success:  true,
		Payload:  raw,
		Metadata: core.ToolResultMetadata{TimestampUnix: time.Now().Unix()},
	}
}

func failureResult(code, message string, recoverable bool) core.ToolResult {
	return core.ToolResult{
		Success:  false,
		Metadata: core.ToolResultMetadata{TimestampUnix: time.Now().Unix()},
		Err:      &core.ToolError{Code: code, Message: message, Recoverable: recoverable},
	}
}

func floatPtr(v float64) *float64 { return &v }

// sessionValue reads key from actx's context accessor, if one is wired.
func sessionValue(actx AdapterContext, key string) (interface{}, bool) {
	if actx.ContextMgr == nil {
		return nil, false
	}
	return actx.ContextMgr.SessionGet(key)
}

// setSessionValue writes key to actx's context accessor, if one is wired.
func setSessionValue(actx AdapterContext, key string, value interface{}) {
	if actx.ContextMgr != nil {
		actx.ContextMgr.SessionSet(key, value)
	}
}
