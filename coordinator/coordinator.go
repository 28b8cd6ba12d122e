// Package coordinator implements the Subagent Coordinator from spec.md
// §4.7: agent registration, timeout-bounded message routing, a
// bounded-concurrency task drain loop, periodic health checks, and
// orchestration statistics. It is grounded on the teacher's
// orchestration.TaskWorkerPool dequeue/process/complete cycle, collapsed
// into a single in-process router that also owns message delivery (the
// teacher's framework splits agent discovery/HTTP delivery from task
// processing; neither network hop exists here).
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/eventbus"
	"github.com/coderift/toolmind/taskqueue"
)

// DefaultTaskCleanupHorizon is how long a terminal task remains addressable
// before the periodic cleanup sweep removes it.
const DefaultTaskCleanupHorizon = time.Hour

// DefaultCleanupInterval is how often the cleanup sweep runs.
const DefaultCleanupInterval = 5 * time.Minute

// responseTimeSamples bounds the in-memory sample used for the running
// average response time reported by GetStats.
const responseTimeSamples = 256

type agentEntry struct {
	agent core.Agent
	// mu serializes HandleMessage invocations against this one recipient,
	// which is how spec.md §5 guarantees "the order of handleMessage
	// invocations equals the order of sendMessage completions against
	// that recipient" without a central sequencer.
	mu         sync.Mutex
	descriptor core.AgentDescriptor
}

type counters struct {
	sent     int64
	received int64
	errored  int64
}

// ContextManager is the subset of contextmgr.Manager the Coordinator
// depends on: the agent-facing accessor (handed out verbatim inside
// AgentContext) plus the history append the coordinator itself performs
// around delivery. Declared locally so this package doesn't import
// contextmgr for a type it only ever holds behind an interface.
type ContextManager interface {
	core.ContextAccessor
	AddToHistory(msg core.Message)
}

// Coordinator routes messages between registered agents, drains a bounded
// task queue against them, and runs periodic health checks.
type Coordinator struct {
	cfg     core.Config
	ctxMgr  ContextManager
	queue   *taskqueue.Queue
	bus     *eventbus.Bus
	logger  core.Logger

	mu        sync.RWMutex
	agents    map[string]*agentEntry
	started   bool
	stopCh    chan struct{}
	startedAt time.Time

	wg sync.WaitGroup // tracks every in-flight delivery/task/timer so Stop can drain

	counters    counters
	respTimesMu sync.Mutex
	respTimes   []time.Duration
}

// New builds a Coordinator. ctxMgr is typically a *contextmgr.Manager; it
// is accepted as the local ContextManager interface so this package does
// not import contextmgr directly.
func New(cfg core.Config, ctxMgr ContextManager, bus *eventbus.Bus, logger core.Logger) *Coordinator {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("coordinator")
	}
	return &Coordinator{
		cfg:    cfg,
		ctxMgr: ctxMgr,
		queue:  taskqueue.New(cfg.MaxConcurrentTasks),
		bus:    bus,
		logger: logger,
		agents: make(map[string]*agentEntry),
	}
}

// Start begins the periodic health-check timer (skipped when
// HealthCheckInterval <= 0) and the periodic task-queue cleanup sweep.
func (c *Coordinator) Start(_ context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return core.NewOrchestrationError("coordinator.Start", "coordinator", "", fmt.Errorf("already started"))
	}
	c.started = true
	c.stopCh = make(chan struct{})
	c.startedAt = time.Now()
	c.mu.Unlock()

	if c.cfg.HealthCheckInterval > 0 {
		c.wg.Add(1)
		go c.healthCheckLoop(c.cfg.HealthCheckInterval)
	}

	c.wg.Add(1)
	go c.cleanupLoop(DefaultCleanupInterval)

	c.logger.Info("coordinator started", map[string]interface{}{
		"health_check_interval": c.cfg.HealthCheckInterval.String(),
		"max_concurrent_tasks":  c.cfg.MaxConcurrentTasks,
	})
	return nil
}

// Stop unregisters every agent, stops the timers, drops event subscribers,
// and awaits every in-flight delivery/task execution — the explicit
// tracking resolves the spec's "Open Question" about the drain loop
// outliving shutdown (see DESIGN.md).
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	close(c.stopCh)
	names := make([]string, 0, len(c.agents))
	for name := range c.agents {
		names = append(names, name)
	}
	c.mu.Unlock()

	for _, name := range names {
		_ = c.UnregisterAgent(ctx, name, "")
	}
	c.bus.RemoveAll()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterAgent installs agent under its own Name(), initializes it with a
// scoped AgentContext, and emits "agent.registered" on success. A failed
// Initialize leaves the agent uninstalled and surfaces the error.
func (c *Coordinator) RegisterAgent(ctx context.Context, agent core.Agent) error {
	name := agent.Name()

	c.mu.Lock()
	if _, exists := c.agents[name]; exists {
		c.mu.Unlock()
		return core.NewOrchestrationError("coordinator.RegisterAgent", "agent", name, core.ErrAgentAlreadyExists)
	}
	entry := &agentEntry{
		agent:      agent,
		descriptor: core.AgentDescriptor{Name: name, Capabilities: agent.Capabilities(), Lifecycle: core.AgentRegistered},
	}
	c.agents[name] = entry
	c.mu.Unlock()

	if err := agent.Initialize(ctx, c.buildAgentContext(name)); err != nil {
		c.mu.Lock()
		delete(c.agents, name)
		c.mu.Unlock()
		return core.NewOrchestrationError("coordinator.RegisterAgent", "agent", name, err)
	}

	c.mu.Lock()
	entry.descriptor.Lifecycle = core.AgentInitialized
	c.mu.Unlock()

	c.bus.Publish("agent.registered", entry.descriptor)
	c.logger.Info("agent registered", map[string]interface{}{"agent": name})
	return nil
}

// UnregisterAgent is idempotent: unregistering an unknown name is a no-op.
// Shutdown failures are logged and swallowed so the agent is still removed.
func (c *Coordinator) UnregisterAgent(ctx context.Context, name string, reason string) error {
	c.mu.Lock()
	entry, ok := c.agents[name]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	entry.descriptor.Lifecycle = core.AgentShuttingDown
	delete(c.agents, name)
	c.mu.Unlock()

	if sd, ok := entry.agent.(core.Shutdownable); ok {
		if err := sd.Shutdown(ctx); err != nil {
			reason = "error"
			c.logger.Error("agent shutdown failed", map[string]interface{}{"agent": name, "error": err.Error()})
		}
	}

	c.bus.Publish("agent.unregistered", map[string]interface{}{"name": name, "reason": reason})
	c.logger.Info("agent unregistered", map[string]interface{}{"agent": name, "reason": reason})
	return nil
}

// ListAgents returns the names of every currently registered agent.
func (c *Coordinator) ListAgents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.agents))
	for name := range c.agents {
		names = append(names, name)
	}
	return names
}

// GetAgentDescriptor returns the current descriptor for name, if registered.
func (c *Coordinator) GetAgentDescriptor(name string) (core.AgentDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.agents[name]
	if !ok {
		return core.AgentDescriptor{}, false
	}
	return entry.descriptor, true
}

func (c *Coordinator) getAgent(name string) (*agentEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.agents[name]
	return entry, ok
}

func (c *Coordinator) buildAgentContext(name string) core.AgentContext {
	logger := c.logger
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("agent/" + name)
	}
	return core.AgentContext{
		Logger:  logger,
		Context: c.ctxMgr,
		Send: func(ctx context.Context, msg core.Message) (*core.Message, error) {
			msg.Sender = name
			return c.SendMessage(ctx, msg), nil
		},
		Broadcast: func(ctx context.Context, msg core.Message) ([]*core.Message, error) {
			msg.Sender = name
			return c.BroadcastMessage(ctx, msg), nil
		},
		Publish: func(topic string, payload interface{}) {
			c.bus.Publish(topic, payload)
		},
	}
}

// SendMessage stamps id/timestamp/default priority, appends the request to
// history before delivery (so history reflects intent regardless of
// outcome), and routes it to the recipient with a timeout. The returned
// message is always non-nil except when the agent itself returns (nil,
// nil) — a deliberate "no reply warranted" response (e.g. to an event).
func (c *Coordinator) SendMessage(ctx context.Context, partial core.Message) *core.Message {
	req := partial
	req.ID = uuid.NewString()
	req.CreatedAt = time.Now()
	if req.Priority == 0 {
		req.Priority = core.DefaultPriority
	}
	if req.Kind == "" {
		req.Kind = core.MessageKindRequest
	}
	c.ctxMgr.AddToHistory(req)
	atomic.AddInt64(&c.counters.sent, 1)

	entry, ok := c.getAgent(req.Recipient)
	if !ok {
		return c.recordError(req, core.CodeAgentNotFound, fmt.Sprintf("agent %q not found", req.Recipient), false)
	}

	timeout := c.cfg.DefaultMessageTimeout
	if req.TimeoutMS > 0 {
		timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	deliverCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		msg *core.Message
		err error
	}
	resCh := make(chan result, 1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		entry.mu.Lock()
		defer entry.mu.Unlock()
		resp, err := entry.agent.HandleMessage(deliverCtx, &req)
		resCh <- result{resp, err}
	}()

	select {
	case r := <-resCh:
		if r.err != nil {
			return c.recordError(req, core.CodeToolExecutionError, r.err.Error(), true)
		}
		if r.msg == nil {
			atomic.AddInt64(&c.counters.received, 1)
			return nil
		}
		c.ctxMgr.AddToHistory(*r.msg)
		atomic.AddInt64(&c.counters.received, 1)
		c.recordResponseTime(time.Since(req.CreatedAt))
		return r.msg
	case <-deliverCtx.Done():
		return c.recordError(req, core.CodeTimeout, "timed out waiting for agent response", true)
	}
}

func (c *Coordinator) recordError(req core.Message, code, message string, recoverable bool) *core.Message {
	payload, _ := json.Marshal(core.ToolErrorPayload{Code: code, Message: message, Recoverable: recoverable})
	errMsg := core.Message{
		ID:            uuid.NewString(),
		Kind:          core.MessageKindError,
		Sender:        "coordinator",
		Recipient:     req.Sender,
		CorrelationID: req.ID,
		Payload:       payload,
		Priority:      req.Priority,
		CreatedAt:     time.Now(),
	}
	c.ctxMgr.AddToHistory(errMsg)
	atomic.AddInt64(&c.counters.errored, 1)
	return &errMsg
}

// BroadcastMessage delivers partial to every registered agent except its
// own sender and collects non-nil responses in arrival (completion) order.
func (c *Coordinator) BroadcastMessage(ctx context.Context, partial core.Message) []*core.Message {
	c.mu.RLock()
	recipients := make([]string, 0, len(c.agents))
	for name := range c.agents {
		if name != partial.Sender {
			recipients = append(recipients, name)
		}
	}
	c.mu.RUnlock()

	ch := make(chan *core.Message, len(recipients))
	var wg sync.WaitGroup
	for _, name := range recipients {
		wg.Add(1)
		c.wg.Add(1)
		go func(recipient string) {
			defer wg.Done()
			defer c.wg.Done()
			msg := partial
			msg.Recipient = recipient
			if resp := c.SendMessage(ctx, msg); resp != nil {
				ch <- resp
			}
		}(name)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	var results []*core.Message
	for msg := range ch {
		results = append(results, msg)
	}
	return results
}

// SubmitTask fills in defaults (id, createdAt, pending status, zero
// retries, default maxRetries/priority), enqueues task, and triggers the
// drain loop. It returns the assigned task id immediately — it never waits
// for the task to run.
func (c *Coordinator) SubmitTask(task core.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	task.Status = core.TaskStatusPending
	task.Retries = 0
	if task.MaxRetries == 0 {
		task.MaxRetries = c.cfg.DefaultMaxRetries
	}
	if task.Priority == 0 {
		task.Priority = core.DefaultPriority
	}

	t := task
	if err := c.queue.Submit(&t); err != nil {
		return "", err
	}
	c.drain()
	return t.ID, nil
}

// drain dequeues and spawns every task the queue currently has capacity
// for. Each spawned execution is tracked in c.wg and re-triggers drain on
// completion, so a burst of retries or completions keeps the queue moving
// without a dedicated polling goroutine.
func (c *Coordinator) drain() {
	for {
		task, ok := c.queue.Dequeue()
		if !ok {
			return
		}
		c.wg.Add(1)
		go c.runTask(task)
	}
}

func (c *Coordinator) runTask(task *core.Task) {
	defer c.wg.Done()
	defer c.drain()

	payload := mergeTaskPayload(task)
	req := core.NewRequest("coordinator", task.AgentName, payload)
	req.Priority = task.Priority

	resp := c.SendMessage(context.Background(), req)

	switch {
	case resp == nil:
		c.failAndMaybeRetry(task.ID, &core.TaskError{Code: core.CodeToolExecutionError, Message: "agent returned no response"})
	case resp.Kind == core.MessageKindResponse:
		if err := c.queue.Complete(task.ID, resp.Payload); err != nil {
			c.logger.Error("coordinator: failed to mark task completed", map[string]interface{}{"task": task.ID, "error": err.Error()})
		}
	case resp.Kind == core.MessageKindError:
		var errPayload core.ToolErrorPayload
		_ = json.Unmarshal(resp.Payload, &errPayload)
		c.failAndMaybeRetry(task.ID, &core.TaskError{Code: errPayload.Code, Message: errPayload.Message})
	default:
		c.failAndMaybeRetry(task.ID, &core.TaskError{Code: core.CodeToolExecutionError, Message: "unexpected message kind " + string(resp.Kind)})
	}
}

func (c *Coordinator) failAndMaybeRetry(taskID string, taskErr *core.TaskError) {
	if err := c.queue.Fail(taskID, taskErr); err != nil {
		c.logger.Error("coordinator: failed to mark task failed", map[string]interface{}{"task": taskID, "error": err.Error()})
		return
	}

	task, ok := c.queue.Get(taskID)
	if !ok || !task.Retryable() {
		return
	}

	delay := retryDelay(task.Retries)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-c.stopCh:
				return
			}
		}
		if err := c.queue.Retry(taskID); err != nil {
			c.logger.Error("coordinator: retry failed", map[string]interface{}{"task": taskID, "error": err.Error()})
			return
		}
		c.drain()
	}()
}

// retryDelay computes the exponential backoff delay before the attempt-th
// retry (0-indexed), using the same curve cenkalti/backoff/v5 computes for
// HTTP-style retries elsewhere in the teacher's dependency graph. The
// retry *count* and state transitions still come entirely from
// taskqueue.Queue — this only decides how long the coordinator waits
// before calling Retry.
func retryDelay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.1

	var delay time.Duration
	for i := 0; i <= attempt; i++ {
		next, err := b.NextBackOff()
		if err != nil {
			break
		}
		delay = next
	}
	return delay
}

func mergeTaskPayload(task *core.Task) json.RawMessage {
	extra := map[string]interface{}{}
	if len(task.Payload) > 0 {
		_ = json.Unmarshal(task.Payload, &extra)
	}
	extra["taskId"] = task.ID
	extra["taskType"] = task.Type
	raw, _ := json.Marshal(extra)
	return raw
}

func (c *Coordinator) healthCheckLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.runHealthChecks()
		}
	}
}

func (c *Coordinator) runHealthChecks() {
	c.mu.RLock()
	entries := make([]*agentEntry, 0, len(c.agents))
	for _, e := range c.agents {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	for _, e := range entries {
		hc, ok := e.agent.(core.HealthCheckable)
		if !ok {
			continue
		}
		if err := hc.HealthCheck(context.Background()); err != nil {
			c.logger.Warn("coordinator: agent health check failed", map[string]interface{}{
				"agent": e.agent.Name(),
				"error": err.Error(),
			})
		}
	}
}

func (c *Coordinator) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			removed := c.queue.Cleanup(DefaultTaskCleanupHorizon)
			if removed > 0 {
				c.logger.Debug("coordinator: cleaned up terminal tasks", map[string]interface{}{"removed": removed})
			}
		}
	}
}

func (c *Coordinator) recordResponseTime(d time.Duration) {
	c.respTimesMu.Lock()
	defer c.respTimesMu.Unlock()
	c.respTimes = append(c.respTimes, d)
	if len(c.respTimes) > responseTimeSamples {
		c.respTimes = c.respTimes[len(c.respTimes)-responseTimeSamples:]
	}
}

func (c *Coordinator) avgResponseTimeMS() float64 {
	c.respTimesMu.Lock()
	defer c.respTimesMu.Unlock()
	if len(c.respTimes) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range c.respTimes {
		sum += d
	}
	return float64(sum.Milliseconds()) / float64(len(c.respTimes))
}

// Stats is a point-in-time snapshot of coordinator activity.
type Stats struct {
	MessagesSent      int64
	MessagesReceived  int64
	MessagesErrored   int64
	TasksRunning      int
	TasksQueued       int
	TasksCompleted    int
	TasksFailed       int
	AvgResponseTimeMS float64
	Uptime            time.Duration
}

// GetStats returns the current statistics snapshot.
func (c *Coordinator) GetStats() Stats {
	qs := c.queue.GetStats()
	c.mu.RLock()
	startedAt := c.startedAt
	c.mu.RUnlock()
	var uptime time.Duration
	if !startedAt.IsZero() {
		uptime = time.Since(startedAt)
	}
	return Stats{
		MessagesSent:      atomic.LoadInt64(&c.counters.sent),
		MessagesReceived:  atomic.LoadInt64(&c.counters.received),
		MessagesErrored:   atomic.LoadInt64(&c.counters.errored),
		TasksRunning:      qs.Running,
		TasksQueued:       qs.Pending,
		TasksCompleted:    qs.Completed,
		TasksFailed:       qs.Failed,
		AvgResponseTimeMS: c.avgResponseTimeMS(),
		Uptime:            uptime,
	}
}
