package core

import (
	"context"
	"encoding/json"
)

// PropertyType enumerates the JSON-schema-lite types a tool's input schema
// can declare for a property.
type PropertyType string

const (
	PropertyTypeString  PropertyType = "string"
	PropertyTypeNumber  PropertyType = "number"
	PropertyTypeInteger PropertyType = "integer"
	PropertyTypeBoolean PropertyType = "boolean"
	PropertyTypeArray   PropertyType = "array"
	PropertyTypeObject  PropertyType = "object"
)

// PropertySchema describes one field of a tool's input or output schema.
type PropertySchema struct {
	Type        PropertyType   `json:"type"`
	Description string         `json:"description,omitempty"`
	Enum        []string       `json:"enum,omitempty"`
	Minimum     *float64       `json:"minimum,omitempty"`
	Maximum     *float64       `json:"maximum,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"`
}

// Schema is an object schema: named properties plus which are required.
type Schema struct {
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// ToolDefinition is the static description of a tool surfaced to clients.
type ToolDefinition struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	InputSchema  Schema  `json:"input_schema"`
	OutputSchema *Schema `json:"output_schema,omitempty"`
}

// ValidationResult is returned by a ToolAdapter's optional Validate.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ToolError is the structured failure shape carried on a failed ToolResult.
type ToolError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Recoverable bool   `json:"recoverable"`
	Remediation string `json:"remediation,omitempty"`
}

// ToolResultMetadata carries accounting data alongside a successful result.
type ToolResultMetadata struct {
	TokenCount     int   `json:"token_count,omitempty"`
	DurationMS     int64 `json:"duration_ms"`
	TimestampUnix  int64 `json:"timestamp_unix"`
	CacheHit       bool  `json:"cache_hit,omitempty"`
	TotalAvailable int   `json:"total_available,omitempty"`
	Truncated      bool  `json:"truncated,omitempty"`
}

// ToolResult is the outcome of ExecuteTool: exactly one of Payload/Err is set.
type ToolResult struct {
	Success  bool                `json:"success"`
	Payload  json.RawMessage     `json:"payload,omitempty"`
	Metadata ToolResultMetadata  `json:"metadata"`
	Err      *ToolError          `json:"error,omitempty"`
}

// ExecutionContext is handed to a ToolAdapter's Execute call.
type ExecutionContext struct {
	Context context.Context
	Caller  string
	Logger  Logger
}

// ToolAdapter is the contract every registry-managed tool implements.
// Validate, EstimateTokens, Initialize, Shutdown and HealthCheck are all
// optional — implement the corresponding optional interface below
// (ValidatingAdapter, TokenEstimatingAdapter, ...) to opt in.
type ToolAdapter interface {
	Metadata() ToolDefinition
	GetToolDefinition() ToolDefinition
	Execute(args json.RawMessage, execCtx ExecutionContext) ToolResult
}

// ValidatingAdapter is an optional ToolAdapter capability.
type ValidatingAdapter interface {
	Validate(args json.RawMessage) ValidationResult
}

// TokenEstimatingAdapter is an optional ToolAdapter capability.
type TokenEstimatingAdapter interface {
	EstimateTokens(args json.RawMessage) int
}

// InitializableAdapter is an optional ToolAdapter capability.
type InitializableAdapter interface {
	Initialize(ctx context.Context) error
}

// ShutdownableAdapter is an optional ToolAdapter capability.
type ShutdownableAdapter interface {
	Shutdown(ctx context.Context) error
}

// HealthCheckableAdapter is an optional ToolAdapter capability.
type HealthCheckableAdapter interface {
	HealthCheck(ctx context.Context) error
}
