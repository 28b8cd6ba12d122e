// Command toolserverd is a minimal demo entry point: it wires one
// system.System with in-memory collaborator fixtures and drives it from a
// line-delimited-JSON stdio loop. The framing protocol itself is out of
// scope for this module (spec.md §1) — this loop exists only so the
// substrate has somewhere to run; it decodes {tool, args}, calls
// System.Registry.ExecuteTool, and encodes the resulting core.ToolResult.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coderift/toolmind/collab"
	"github.com/coderift/toolmind/collab/mock"
	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/logx"
	"github.com/coderift/toolmind/system"
)

// fileConfig mirrors core.Config but with YAML-friendly field names and
// duration strings; it is never read from the environment, only from an
// optional file named by -config. Loading it is outer-surface wiring, not
// part of the orchestration core (see SPEC_FULL.md §1).
type fileConfig struct {
	MaxConcurrentTasks    int    `yaml:"max_concurrent_tasks"`
	DefaultMessageTimeout string `yaml:"default_message_timeout"`
	DefaultMaxRetries     int    `yaml:"default_max_retries"`
	HealthCheckInterval   string `yaml:"health_check_interval"`
	LogLevel              string `yaml:"log_level"`
	HistoryCapacity       int    `yaml:"history_capacity"`
	RateLimit             struct {
		Enabled         bool    `yaml:"enabled"`
		Capacity        float64 `yaml:"capacity"`
		RefillPerSecond float64 `yaml:"refill_per_second"`
	} `yaml:"rate_limit"`
}

func loadConfig(path string) (core.Config, error) {
	cfg := core.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("toolserverd: read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("toolserverd: parse config: %w", err)
	}

	if fc.MaxConcurrentTasks > 0 {
		cfg.MaxConcurrentTasks = fc.MaxConcurrentTasks
	}
	if fc.DefaultMessageTimeout != "" {
		d, err := time.ParseDuration(fc.DefaultMessageTimeout)
		if err != nil {
			return cfg, fmt.Errorf("toolserverd: default_message_timeout: %w", err)
		}
		cfg.DefaultMessageTimeout = d
	}
	if fc.DefaultMaxRetries > 0 {
		cfg.DefaultMaxRetries = fc.DefaultMaxRetries
	}
	if fc.HealthCheckInterval != "" {
		d, err := time.ParseDuration(fc.HealthCheckInterval)
		if err != nil {
			return cfg, fmt.Errorf("toolserverd: health_check_interval: %w", err)
		}
		cfg.HealthCheckInterval = d
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.HistoryCapacity > 0 {
		cfg.HistoryCapacity = fc.HistoryCapacity
	}
	// rate_limit.enabled has no "unset" state in YAML booleans, so a config
	// file always takes the field literally, including reverting to false.
	cfg.RateLimit.Enabled = fc.RateLimit.Enabled
	if fc.RateLimit.Capacity > 0 {
		cfg.RateLimit.Capacity = fc.RateLimit.Capacity
	}
	if fc.RateLimit.RefillPerSecond > 0 {
		cfg.RateLimit.RefillPerSecond = fc.RateLimit.RefillPerSecond
	}
	return cfg, nil
}

// fixtureCollaborators builds the in-memory RepositoryIndex/GitSource/
// GitHubSource used by the demo. Production collaborator implementations
// (vector search, git log parsing, GitHub API calls) are explicitly out
// of scope (spec.md §1); collab/mock is the only concrete backing these
// interfaces ever get in this module.
func fixtureCollaborators() system.Collaborators {
	index := mock.NewRepositoryIndex([]collab.SearchResult{
		{
			ID:    "toolserverd/main.go",
			Path:  "cmd/toolserverd/main.go",
			Score: 0.92,
			Metadata: map[string]interface{}{
				"path": "cmd/toolserverd/main.go",
				"name": "main",
				"type": "function",
			},
		},
	})
	git := mock.NewGitSource(nil)
	gh := mock.NewGitHubSource(nil)
	return system.Collaborators{Index: index, Git: git, GitHub: gh}
}

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logx.New(logx.Options{Level: cfg.LogLevel, Service: "toolserverd", Format: logx.FormatText})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collaborators := fixtureCollaborators()
	sys := system.New(cfg, logger, collaborators)
	if err := sys.Start(ctx, collaborators); err != nil {
		log.Fatalf("toolserverd: start: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sys.Stop(shutdownCtx); err != nil {
			log.Printf("toolserverd: stop: %v", err)
		}
	}()

	log.Printf("toolserverd: ready, tools: %v", sys.Registry.GetToolNames())
	runLoop(ctx, sys)
}

type toolCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

func runLoop(ctx context.Context, sys *system.System) {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := json.NewEncoder(os.Stdout)

	for in.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := in.Bytes()
		if len(line) == 0 {
			continue
		}
		var call toolCall
		if err := json.Unmarshal(line, &call); err != nil {
			_ = out.Encode(core.ToolResult{
				Success: false,
				Err: &core.ToolError{
					Code:    "INVALID_PARAMS",
					Message: fmt.Sprintf("malformed request line: %v", err),
				},
			})
			continue
		}

		result := sys.Registry.ExecuteTool(call.Tool, call.Args, core.ExecutionContext{
			Context: ctx,
			Caller:  "stdio",
			Logger:  sys.Logger,
		})
		if err := out.Encode(result); err != nil {
			log.Printf("toolserverd: encode result: %v", err)
		}
	}
	if err := in.Err(); err != nil {
		log.Printf("toolserverd: stdin read: %v", err)
	}
}
