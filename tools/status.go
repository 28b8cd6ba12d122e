package tools

import (
	"encoding/json"

	"github.com/coderift/toolmind/coordinator"
	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/registry"
)

// StatusResponse is status's successful payload: the coordinator's
// operational counters plus the currently registered agents and tools.
type StatusResponse struct {
	MessagesSent      int64    `json:"messages_sent"`
	MessagesReceived  int64    `json:"messages_received"`
	MessagesErrored   int64    `json:"messages_errored"`
	TasksRunning      int      `json:"tasks_running"`
	TasksQueued       int      `json:"tasks_queued"`
	TasksCompleted    int      `json:"tasks_completed"`
	TasksFailed       int      `json:"tasks_failed"`
	AvgResponseTimeMS float64  `json:"avg_response_time_ms"`
	UptimeSeconds     float64  `json:"uptime_seconds"`
	Agents            []string `json:"agents"`
	Tools             []string `json:"tools"`
}

// StatusAdapter has no backing agent; it reports the coordinator's live
// GetStats() snapshot plus the registry's tool list.
type StatusAdapter struct {
	coord *coordinator.Coordinator
	reg   *registry.Registry
}

var _ core.ToolAdapter = (*StatusAdapter)(nil)

// NewStatusAdapter builds the status adapter.
func NewStatusAdapter(coord *coordinator.Coordinator, reg *registry.Registry) *StatusAdapter {
	return &StatusAdapter{coord: coord, reg: reg}
}

func (a *StatusAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *StatusAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "status",
		Description: "Reports live coordinator counters: message/task throughput, average response time, and uptime.",
		InputSchema: core.Schema{},
	}
}

func (a *StatusAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	stats := a.coord.GetStats()
	return successResult(StatusResponse{
		MessagesSent:      stats.MessagesSent,
		MessagesReceived:  stats.MessagesReceived,
		MessagesErrored:   stats.MessagesErrored,
		TasksRunning:      stats.TasksRunning,
		TasksQueued:       stats.TasksQueued,
		TasksCompleted:    stats.TasksCompleted,
		TasksFailed:       stats.TasksFailed,
		AvgResponseTimeMS: stats.AvgResponseTimeMS,
		UptimeSeconds:     stats.Uptime.Seconds(),
		Agents:            a.coord.ListAgents(),
		Tools:             a.reg.GetToolNames(),
	})
}
