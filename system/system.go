// Package system wires one Coordinator, one Tool Adapter Registry, one
// Context Manager, the three collaborator-backed agents, and the seven
// tool adapters into a single runnable unit. It is the composition root
// the demo command builds against; nothing else in the module imports it.
package system

import (
	"context"
	"fmt"

	"github.com/coderift/toolmind/agents"
	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/contextmgr"
	"github.com/coderift/toolmind/coordinator"
	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/eventbus"
	"github.com/coderift/toolmind/registry"
	"github.com/coderift/toolmind/storage"
	"github.com/coderift/toolmind/telemetryx"
	"github.com/coderift/toolmind/tools"
)

// Collaborators holds the concrete RepositoryIndex/GitSource/GitHubSource
// handles System wires into the indexer/git/github agents, the context
// manager's index slot, and every tool adapter's direct fallback path. A
// nil field disables the corresponding agent; the matching tool still
// registers but reports an error instead of using a fallback.
type Collaborators struct {
	Index  collab.RepositoryIndex
	Git    collab.GitSource
	GitHub collab.GitHubSource
}

// System is the fully wired orchestration substrate.
type System struct {
	Config      core.Config
	Logger      core.Logger
	ContextMgr  *contextmgr.Manager
	EventBus    *eventbus.Bus
	Coordinator *coordinator.Coordinator
	Registry    *registry.Registry
	Telemetry   *telemetryx.Telemetry
}

// New builds a System from cfg, logger, and collaborators, but does not
// start it — call Start to register agents, initialize tools, and begin
// the coordinator's background loops.
func New(cfg core.Config, logger core.Logger, collaborators Collaborators) *System {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	session := storage.NewMemory()
	persistent := storage.NewMemory()
	ctxMgr := contextmgr.New(session, persistent, cfg.HistoryCapacity)
	if collaborators.Index != nil {
		ctxMgr.SetIndex(collaborators.Index)
	}

	bus := eventbus.New(logger)
	tel := telemetryx.New("toolmind")
	coord := coordinator.New(cfg, ctxMgr, bus, logger)
	reg := registry.New(cfg.RateLimit, tel, logger)

	s := &System{
		Config:      cfg,
		Logger:      logger,
		ContextMgr:  ctxMgr,
		EventBus:    bus,
		Coordinator: coord,
		Registry:    reg,
		Telemetry:   tel,
	}
	return s
}

// Start initializes the context manager and starts the coordinator, then
// registers the collaborator-backed agents and tool adapters, and finally
// initializes every tool. Agents are
// registered here rather than in New so a caller that wants a bare System
// for inspection (e.g. GetStats before anything runs) can still build one.
func (s *System) Start(ctx context.Context, collaborators Collaborators) error {
	if err := s.ContextMgr.Initialize(ctx); err != nil {
		return fmt.Errorf("system: context manager initialize: %w", err)
	}
	if err := s.Coordinator.Start(ctx); err != nil {
		return fmt.Errorf("system: coordinator start: %w", err)
	}

	if err := s.registerAgents(ctx, collaborators); err != nil {
		return err
	}
	s.registerTools(collaborators)

	if err := s.Registry.InitializeAll(ctx); err != nil {
		return fmt.Errorf("system: registry initialize: %w", err)
	}
	return nil
}

func (s *System) registerAgents(ctx context.Context, collaborators Collaborators) error {
	if collaborators.Index != nil {
		if err := s.Coordinator.RegisterAgent(ctx, agents.NewIndexerAgent(collaborators.Index)); err != nil {
			return fmt.Errorf("system: register indexer agent: %w", err)
		}
	}
	if collaborators.Git != nil {
		if err := s.Coordinator.RegisterAgent(ctx, agents.NewGitAgent(collaborators.Git)); err != nil {
			return fmt.Errorf("system: register git agent: %w", err)
		}
	}
	if collaborators.GitHub != nil {
		if err := s.Coordinator.RegisterAgent(ctx, agents.NewGitHubAgent(collaborators.GitHub)); err != nil {
			return fmt.Errorf("system: register github agent: %w", err)
		}
	}
	return nil
}

func (s *System) registerTools(collaborators Collaborators) {
	actx := tools.AdapterContext{
		Coordinator: s.Coordinator,
		ContextMgr:  s.ContextMgr,
		History:     s.ContextMgr.GetHistory,
		Logger:      s.Logger,
	}

	_ = s.Registry.Register(tools.NewSearchCodeAdapter(actx, collaborators.Index))
	_ = s.Registry.Register(tools.NewInspectSymbolAdapter(actx, collaborators.Index))
	_ = s.Registry.Register(tools.NewPlanTaskAdapter(actx))
	_ = s.Registry.Register(tools.NewGitHistoryAdapter(actx, collaborators.Git))
	_ = s.Registry.Register(tools.NewGitHubContextAdapter(actx, collaborators.GitHub))
	_ = s.Registry.Register(tools.NewHealthAdapter(s.Coordinator, s.Registry, s.ContextMgr))
	_ = s.Registry.Register(tools.NewStatusAdapter(s.Coordinator, s.Registry))
}

// Stop shuts down every tool adapter, stops the coordinator, and shuts
// down the context manager's backends, in that order, continuing past a
// failed step so every component gets a chance to release its resources.
func (s *System) Stop(ctx context.Context) error {
	var firstErr error
	if err := s.Registry.ShutdownAll(ctx); err != nil {
		s.Logger.Error("system: registry shutdown failed", map[string]interface{}{"error": err.Error()})
		firstErr = err
	}
	if err := s.Coordinator.Stop(ctx); err != nil {
		s.Logger.Error("system: coordinator stop failed", map[string]interface{}{"error": err.Error()})
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := s.ContextMgr.Shutdown(ctx); err != nil {
		s.Logger.Error("system: context manager shutdown failed", map[string]interface{}{"error": err.Error()})
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
