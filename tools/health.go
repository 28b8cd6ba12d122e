package tools

import (
	"encoding/json"

	"github.com/coderift/toolmind/contextmgr"
	"github.com/coderift/toolmind/coordinator"
	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/registry"
)

// HealthStatus is a coarse up/degraded signal, not a per-component error
// trace — callers that need detail read status instead.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthResponse is health's successful payload.
type HealthResponse struct {
	Status         HealthStatus `json:"status"`
	UptimeSeconds  float64      `json:"uptime_seconds"`
	AgentsOnline   int          `json:"agents_online"`
	ToolsOnline    int          `json:"tools_online"`
	HasIndex       bool         `json:"has_index"`
	HistoryEntries int          `json:"history_entries"`
}

// HealthAdapter has no backing agent; it reads the coordinator, registry,
// and context manager directly.
type HealthAdapter struct {
	coord  *coordinator.Coordinator
	reg    *registry.Registry
	ctxMgr *contextmgr.Manager
}

var _ core.ToolAdapter = (*HealthAdapter)(nil)

// NewHealthAdapter builds the health adapter.
func NewHealthAdapter(coord *coordinator.Coordinator, reg *registry.Registry, ctxMgr *contextmgr.Manager) *HealthAdapter {
	return &HealthAdapter{coord: coord, reg: reg, ctxMgr: ctxMgr}
}

func (a *HealthAdapter) Metadata() core.ToolDefinition { return a.GetToolDefinition() }

func (a *HealthAdapter) GetToolDefinition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "health",
		Description: "Reports whether the coordinator, tool registry, and context manager are up.",
		InputSchema: core.Schema{},
	}
}

func (a *HealthAdapter) Execute(args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	coordStats := a.coord.GetStats()
	regStats := a.reg.GetStats()
	ctxStats := a.ctxMgr.GetStats()

	agentsOnline := len(a.coord.ListAgents())
	status := HealthStatusOK
	if agentsOnline == 0 || regStats.TotalAdapters == 0 {
		status = HealthStatusDegraded
	}

	return successResult(HealthResponse{
		Status:         status,
		UptimeSeconds:  coordStats.Uptime.Seconds(),
		AgentsOnline:   agentsOnline,
		ToolsOnline:    regStats.TotalAdapters,
		HasIndex:       ctxStats.HasIndex,
		HistoryEntries: ctxStats.HistorySize,
	})
}
