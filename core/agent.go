package core

import "context"

// AgentLifecycle tracks where an agent sits in the registration lifecycle.
type AgentLifecycle string

const (
	AgentRegistered   AgentLifecycle = "registered"
	AgentInitialized  AgentLifecycle = "initialized"
	AgentShuttingDown AgentLifecycle = "shutting-down"
	AgentUnregistered AgentLifecycle = "unregistered"
)

// AgentDescriptor is the registry-facing record of an agent: identity,
// declared capabilities, and current lifecycle state.
type AgentDescriptor struct {
	Name         string
	Capabilities []string
	Lifecycle    AgentLifecycle
}

// ContextAccessor is the slice of the context manager's capability an agent
// needs: session/persistent state and the shared RepositoryIndex slot. It is
// declared here (rather than importing the contextmgr package directly) so
// core stays free of a dependency on its own consumers; contextmgr.Manager
// satisfies this interface.
type ContextAccessor interface {
	SessionGet(key string) (interface{}, bool)
	SessionSet(key string, value interface{})
	PersistentGet(ctx context.Context, key string) (interface{}, bool, error)
	PersistentSet(ctx context.Context, key string, value interface{}) error
	GetIndex() (interface{}, error)
	HasIndex() bool
}

// AgentContext is handed to an agent's Initialize so it can reach shared
// substrate (logging, the context manager, its own scoped send/broadcast
// functions, the event bus) without holding a pointer back to the
// coordinator itself — the cyclic agent<->coordinator reference from the
// teacher's discovery-based design is broken by handing out narrow,
// identity-bound closures instead.
type AgentContext struct {
	Logger    Logger
	Context   ContextAccessor
	Send      func(ctx context.Context, msg Message) (*Message, error)
	Broadcast func(ctx context.Context, msg Message) ([]*Message, error)
	Publish   func(topic string, payload interface{})
}

// Agent is the contract every coordinator-managed participant implements.
// HandleMessage must not mutate msg; it returns a response/error message or
// nil when no reply is warranted (e.g. for event-kind messages).
type Agent interface {
	Name() string
	Capabilities() []string
	Initialize(ctx context.Context, actx AgentContext) error
	HandleMessage(ctx context.Context, msg *Message) (*Message, error)
}

// HealthCheckable is an optional Agent capability.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) error
}

// Shutdownable is an optional Agent capability.
type Shutdownable interface {
	Shutdown(ctx context.Context) error
}
