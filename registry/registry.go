// Package registry implements the Tool Adapter Registry from spec.md §4.10:
// registration/unregistration of ToolAdapters, and a single executeTool
// entry point that fronts every call with rate limiting, schema/adapter
// validation, panic-safe execution, and error-taxonomy wrapping. Grounded
// on the teacher's BaseTool/BaseAgent convenience-bundle idiom (DESIGN.md),
// generalized from an inheritance-style base into a registry that holds
// core.ToolAdapter values behind an interface.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/ratelimit"
)

// Registry owns every registered tool adapter and is the sole entry point
// tool calls are dispatched through.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]core.ToolAdapter

	rateEnabled bool
	limiter     *ratelimit.Limiter
	telemetry   core.Telemetry
	logger      core.Logger
}

// New builds an empty Registry. A zero-value rateCfg or rateCfg.Enabled ==
// false disables rate limiting entirely (every call is allowed).
func New(rateCfg core.RateLimitConfig, telemetry core.Telemetry, logger core.Logger) *Registry {
	if telemetry == nil {
		telemetry = core.NoOpTelemetry{}
	}
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("registry")
	}
	return &Registry{
		adapters:    make(map[string]core.ToolAdapter),
		rateEnabled: rateCfg.Enabled,
		limiter:     ratelimit.New(ratelimit.Config{Capacity: rateCfg.Capacity, RefillPerSecond: rateCfg.RefillPerSecond}),
		telemetry:   telemetry,
		logger:      logger,
	}
}

// Register installs adapter under the name its GetToolDefinition declares.
// Registering a name that already exists fails.
func (r *Registry) Register(adapter core.ToolAdapter) error {
	name := adapter.GetToolDefinition().Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[name]; exists {
		return core.NewOrchestrationError("registry.Register", "tool", name, core.ErrToolAlreadyExists)
	}
	r.adapters[name] = adapter
	return nil
}

// Unregister is idempotent. If the adapter is installed and implements
// Shutdown, it is shut down before removal.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	adapter, ok := r.adapters[name]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.adapters, name)
	r.mu.Unlock()

	if sd, ok := adapter.(core.ShutdownableAdapter); ok {
		if err := sd.Shutdown(ctx); err != nil {
			r.logger.Error("registry: adapter shutdown failed", map[string]interface{}{"tool": name, "error": err.Error()})
		}
	}
	return nil
}

// InitializeAll calls Initialize on every registered adapter concurrently,
// waits for all of them, and returns the first error encountered (if any)
// — every adapter gets a chance to initialize even if an earlier one
// fails, matching the canonical "await all, report first failure"
// behavior spec.md §4.10 calls out.
func (r *Registry) InitializeAll(ctx context.Context) error {
	r.mu.RLock()
	adapters := make([]core.ToolAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.mu.RUnlock()

	errs := make([]error, len(adapters))
	var wg sync.WaitGroup
	for i, a := range adapters {
		init, ok := a.(core.InitializableAdapter)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, init core.InitializableAdapter) {
			defer wg.Done()
			errs[i] = init.Initialize(ctx)
		}(i, init)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return core.NewOrchestrationError("registry.InitializeAll", "tool", adapters[i].GetToolDefinition().Name, err)
		}
	}
	return nil
}

// ShutdownAll concurrently shuts down every adapter that has a Shutdown
// hook, then clears the registry.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	r.mu.Lock()
	adapters := make([]core.ToolAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.adapters = make(map[string]core.ToolAdapter)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, a := range adapters {
		sd, ok := a.(core.ShutdownableAdapter)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(sd core.ShutdownableAdapter) {
			defer wg.Done()
			if err := sd.Shutdown(ctx); err != nil {
				r.logger.Error("registry: shutdown failed", map[string]interface{}{"error": err.Error()})
			}
		}(sd)
	}
	wg.Wait()
	return nil
}

// ExecuteTool is the single dispatch path every tool call goes through:
// lookup, rate limit, validate, execute, and fill in duration metadata.
func (r *Registry) ExecuteTool(name string, args json.RawMessage, execCtx core.ExecutionContext) core.ToolResult {
	ctx := execCtx.Context
	if ctx == nil {
		ctx = context.Background()
	}
	spanCtx, span := r.telemetry.StartSpan(ctx, "registry.ExecuteTool")
	span.SetAttribute("tool", name)
	defer span.End()
	execCtx.Context = spanCtx

	adapter, ok := r.get(name)
	if !ok {
		return failure(core.CodeToolNotFound, fmt.Sprintf("tool %q is not registered", name), "", false, "")
	}

	if r.rateEnabled {
		status := r.limiter.Allow(name)
		if !status.Allowed {
			result := failure(core.CodeRateLimited,
				fmt.Sprintf("tool %q is rate limited, retry after %ds", name, status.RetryAfterSecond),
				"", true, fmt.Sprintf("wait %ds before retrying", status.RetryAfterSecond))
			span.RecordError(fmt.Errorf("%s", result.Err.Message))
			return result
		}
	}

	if validator, ok := adapter.(core.ValidatingAdapter); ok {
		validation := validator.Validate(args)
		if !validation.Valid {
			details := ""
			if len(validation.Errors) > 0 {
				details = validation.Errors[0]
				for _, e := range validation.Errors[1:] {
					details += "; " + e
				}
			}
			result := failure(core.CodeInvalidParams, "invalid parameters: "+details, details, true, "fix the reported fields and retry")
			span.RecordError(fmt.Errorf("%s", result.Err.Message))
			return result
		}
	}

	start := time.Now()
	result := r.safeExecute(adapter, args, execCtx)
	if result.Success && result.Metadata.DurationMS == 0 {
		result.Metadata.DurationMS = time.Since(start).Milliseconds()
	}
	if !result.Success && result.Err != nil {
		span.RecordError(fmt.Errorf("%s", result.Err.Message))
	}
	return result
}

// safeExecute recovers a panicking adapter.Execute and turns it into a
// TOOL_EXECUTION_ERROR failure rather than crashing the registry.
func (r *Registry) safeExecute(adapter core.ToolAdapter, args json.RawMessage, execCtx core.ExecutionContext) (result core.ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("registry: adapter panicked", map[string]interface{}{
				"panic": rec,
				"stack": string(debug.Stack()),
			})
			result = failure(core.CodeToolExecutionError, fmt.Sprintf("tool execution panicked: %v", rec), "", true, "")
		}
	}()
	return adapter.Execute(args, execCtx)
}

func failure(code, message, details string, recoverable bool, remediation string) core.ToolResult {
	return core.ToolResult{
		Success: false,
		Metadata: core.ToolResultMetadata{
			TimestampUnix: time.Now().Unix(),
		},
		Err: &core.ToolError{
			Code:        code,
			Message:     message,
			Details:     details,
			Recoverable: recoverable,
			Remediation: remediation,
		},
	}
}

func (r *Registry) get(name string) (core.ToolAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// GetToolDefinitions returns every registered tool's declarative schema.
func (r *Registry) GetToolDefinitions() []core.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]core.ToolDefinition, 0, len(r.adapters))
	for _, a := range r.adapters {
		defs = append(defs, a.GetToolDefinition())
	}
	return defs
}

// HasTool reports whether name is currently registered.
func (r *Registry) HasTool(name string) bool {
	_, ok := r.get(name)
	return ok
}

// GetToolNames returns every registered tool's name.
func (r *Registry) GetToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

// GetAdapter returns the adapter registered under name, if any.
func (r *Registry) GetAdapter(name string) (core.ToolAdapter, bool) {
	return r.get(name)
}

// Stats is a point-in-time snapshot of registry occupancy.
type Stats struct {
	TotalAdapters int
	ToolNames     []string
}

// GetStats returns the current occupancy snapshot.
func (r *Registry) GetStats() Stats {
	names := r.GetToolNames()
	return Stats{TotalAdapters: len(names), ToolNames: names}
}

// GetRateLimitStatus reports every tool's current token availability
// without consuming a token — tools that have never been called have no
// entry (their bucket is lazily created on first Allow).
func (r *Registry) GetRateLimitStatus() map[string]ratelimit.KeyStatus {
	return r.limiter.GetStatus()
}

// ResetRateLimit restores name's bucket to full capacity.
func (r *Registry) ResetRateLimit(name string) {
	r.limiter.Reset(name)
}

// ResetAllRateLimits restores every tracked bucket to full capacity.
func (r *Registry) ResetAllRateLimits() {
	r.limiter.ResetAll()
}
