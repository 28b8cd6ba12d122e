package coordinator_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderift/toolmind/contextmgr"
	"github.com/coderift/toolmind/coordinator"
	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/eventbus"
	"github.com/coderift/toolmind/storage"
)

// stubAgent is a configurable core.Agent used across the coordinator's
// tests in place of a real indexer/git/github agent.
type stubAgent struct {
	name    string
	caps    []string
	handle  func(ctx context.Context, msg *core.Message) (*core.Message, error)
	healthy func(ctx context.Context) error
	initErr error
	mu      sync.Mutex
	calls   int
}

func (a *stubAgent) Name() string            { return a.name }
func (a *stubAgent) Capabilities() []string   { return a.caps }
func (a *stubAgent) Initialize(context.Context, core.AgentContext) error {
	return a.initErr
}
func (a *stubAgent) HandleMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.handle(ctx, msg)
}
func (a *stubAgent) HealthCheck(ctx context.Context) error {
	if a.healthy == nil {
		return nil
	}
	return a.healthy(ctx)
}

func respond(req *core.Message) *core.Message {
	return &core.Message{
		Kind:          core.MessageKindResponse,
		Sender:        req.Recipient,
		Recipient:     req.Sender,
		CorrelationID: req.ID,
		Payload:       json.RawMessage(`{"ok":true}`),
		CreatedAt:     time.Now(),
	}
}

func newCoordinator(t *testing.T, cfg core.Config) *coordinator.Coordinator {
	t.Helper()
	cm := contextmgr.New(storage.NewMemory(), storage.NewMemory(), 100)
	bus := eventbus.New(nil)
	return coordinator.New(cfg, cm, bus, nil)
}

func testConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.DefaultMessageTimeout = 200 * time.Millisecond
	cfg.HealthCheckInterval = 0
	return cfg
}

func TestRegisterUnregisterRoundTrip(t *testing.T) {
	c := newCoordinator(t, testConfig())
	agent := &stubAgent{name: "echo", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		return respond(msg), nil
	}}

	require.NoError(t, c.RegisterAgent(context.Background(), agent))
	_, ok := c.GetAgentDescriptor("echo")
	assert.True(t, ok)

	require.NoError(t, c.UnregisterAgent(context.Background(), "echo", "test"))
	_, ok = c.GetAgentDescriptor("echo")
	assert.False(t, ok)
}

func TestRegisterDuplicateFails(t *testing.T) {
	c := newCoordinator(t, testConfig())
	agent := &stubAgent{name: "dup", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		return respond(msg), nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))
	err := c.RegisterAgent(context.Background(), agent)
	assert.ErrorIs(t, err, core.ErrAgentAlreadyExists)
}

func TestUnregisterUnknownIsIdempotent(t *testing.T) {
	c := newCoordinator(t, testConfig())
	assert.NoError(t, c.UnregisterAgent(context.Background(), "nope", ""))
}

// TestSendMessageCorrelationID covers invariant 2: response.CorrelationID
// == request.ID for every routed message.
func TestSendMessageCorrelationID(t *testing.T) {
	c := newCoordinator(t, testConfig())
	var requestID string
	agent := &stubAgent{name: "echo", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		requestID = msg.ID
		return respond(msg), nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))

	resp := c.SendMessage(context.Background(), core.Message{Sender: "caller", Recipient: "echo"})
	require.NotNil(t, resp)
	assert.Equal(t, core.MessageKindResponse, resp.Kind)
	assert.NotEmpty(t, resp.CorrelationID)
	assert.Equal(t, requestID, resp.CorrelationID)
}

// TestSendMessageUnknownRecipient covers the boundary behavior: sending to
// an unknown recipient returns an error message immediately, never blocks
// until timeout.
func TestSendMessageUnknownRecipient(t *testing.T) {
	c := newCoordinator(t, testConfig())
	start := time.Now()
	resp := c.SendMessage(context.Background(), core.Message{Sender: "caller", Recipient: "ghost"})
	elapsed := time.Since(start)

	require.NotNil(t, resp)
	assert.Equal(t, core.MessageKindError, resp.Kind)
	var payload core.ToolErrorPayload
	require.NoError(t, json.Unmarshal(resp.Payload, &payload))
	assert.Equal(t, core.CodeAgentNotFound, payload.Code)
	assert.Less(t, elapsed, 50*time.Millisecond)
}

// TestSendMessageTimeout is scenario F: a handler that sleeps 100ms with a
// 10ms timeout. The coordinator returns a timeout error, and the later
// real response is discarded.
func TestSendMessageTimeout(t *testing.T) {
	c := newCoordinator(t, testConfig())
	var handled atomic.Bool
	agent := &stubAgent{name: "slow", handle: func(ctx context.Context, msg *core.Message) (*core.Message, error) {
		time.Sleep(100 * time.Millisecond)
		handled.Store(true)
		return respond(msg), nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))

	resp := c.SendMessage(context.Background(), core.Message{
		Sender: "caller", Recipient: "slow", TimeoutMS: 10,
	})
	require.NotNil(t, resp)
	assert.Equal(t, core.MessageKindError, resp.Kind)
	var payload core.ToolErrorPayload
	require.NoError(t, json.Unmarshal(resp.Payload, &payload))
	assert.Equal(t, core.CodeTimeout, payload.Code)

	time.Sleep(150 * time.Millisecond)
	assert.True(t, handled.Load())
}

func TestBroadcastExcludesSenderAndCollectsResponses(t *testing.T) {
	c := newCoordinator(t, testConfig())
	for _, name := range []string{"a", "b", "sender"} {
		n := name
		agent := &stubAgent{name: n, handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
			return respond(msg), nil
		}}
		require.NoError(t, c.RegisterAgent(context.Background(), agent))
	}

	results := c.BroadcastMessage(context.Background(), core.Message{Sender: "sender"})
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "sender", r.Sender)
	}
}

// TestTaskRetryExhaustion is scenario E: maxRetries=2, agent always errors.
// After the third attempt the task is failed with retries=2.
func TestTaskRetryExhaustion(t *testing.T) {
	cfg := testConfig()
	c := newCoordinator(t, cfg)
	var attempts atomic.Int32
	agent := &stubAgent{name: "flaky", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		attempts.Add(1)
		payload, _ := json.Marshal(core.ToolErrorPayload{Code: "BOOM", Message: "nope", Recoverable: true})
		return &core.Message{
			Kind: core.MessageKindError, Sender: msg.Recipient, Recipient: msg.Sender,
			CorrelationID: msg.ID, Payload: payload, CreatedAt: time.Now(),
		}, nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	id, err := c.SubmitTask(core.Task{Type: "work", AgentName: "flaky", MaxRetries: 2})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		return attempts.Load() >= 3
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		stats := c.GetStats()
		return stats.TasksFailed == 1
	}, 3*time.Second, 10*time.Millisecond)

	stats := c.GetStats()
	assert.Equal(t, 0, stats.TasksCompleted)
}

func TestTaskCompletes(t *testing.T) {
	c := newCoordinator(t, testConfig())
	agent := &stubAgent{name: "worker", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		return respond(msg), nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	_, err := c.SubmitTask(core.Task{Type: "work", AgentName: "worker"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.GetStats().TasksCompleted == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMaxConcurrentZeroNeverDispatches(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentTasks = 0
	c := newCoordinator(t, cfg)
	agent := &stubAgent{name: "worker", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		return respond(msg), nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	_, err := c.SubmitTask(core.Task{Type: "work", AgentName: "worker"})
	require.NoError(t, err)

	// maxConcurrent=0 means the running set can never hold a task, so the
	// submitted task stays pending forever (spec.md §8 boundary behavior).
	require.Never(t, func() bool {
		stats := c.GetStats()
		return stats.TasksRunning != 0 || stats.TasksCompleted != 0 || stats.TasksFailed != 0
	}, 200*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 1, c.GetStats().TasksQueued)
}

func TestStopAwaitsInFlightWork(t *testing.T) {
	c := newCoordinator(t, testConfig())
	release := make(chan struct{})
	agent := &stubAgent{name: "blocking", handle: func(_ context.Context, msg *core.Message) (*core.Message, error) {
		<-release
		return respond(msg), nil
	}}
	require.NoError(t, c.RegisterAgent(context.Background(), agent))
	require.NoError(t, c.Start(context.Background()))

	_, err := c.SubmitTask(core.Task{Type: "work", AgentName: "blocking"})
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Stop(ctx)
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before in-flight task finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after in-flight work finished")
	}
}
