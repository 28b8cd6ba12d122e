// Package logx implements core.Logger/core.ComponentAwareLogger with
// structured, field-based output, grounded on the teacher's
// ProductionLogger (timestamp, level, service, component, message, plus
// caller-supplied fields, JSON or human-readable).
package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/coderift/toolmind/core"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Logger is a structured, component-aware core.Logger. The zero value is
// not usable — construct with New.
type Logger struct {
	level     string
	service   string
	component string
	format    Format
	output    io.Writer
}

// Options configures a new Logger.
type Options struct {
	Level   string // "debug", "info", "warn", "error"
	Service string
	Format  Format
	Output  io.Writer // defaults to os.Stdout
}

// New builds a Logger from opts.
func New(opts Options) *Logger {
	level := strings.ToLower(opts.Level)
	if level == "" {
		level = "info"
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	return &Logger{level: level, service: opts.Service, format: format, output: output}
}

var _ core.ComponentAwareLogger = (*Logger)(nil)

// WithComponent returns a shallow copy tagged with component, so repeated
// calls from one subsystem don't need to pass it through every field map.
func (l *Logger) WithComponent(component string) core.Logger {
	clone := *l
	clone.component = component
	return &clone
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func (l *Logger) enabled(level string) bool {
	return levelRank[level] >= levelRank[l.level]
}

func (l *Logger) Info(msg string, fields map[string]interface{})  { l.log(nil, "INFO", msg, fields) }
func (l *Logger) Error(msg string, fields map[string]interface{}) { l.log(nil, "ERROR", msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]interface{})  { l.log(nil, "WARN", msg, fields) }
func (l *Logger) Debug(msg string, fields map[string]interface{}) { l.log(nil, "DEBUG", msg, fields) }

func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, "INFO", msg, fields)
}
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, "ERROR", msg, fields)
}
func (l *Logger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, "WARN", msg, fields)
}
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, "DEBUG", msg, fields)
}

func (l *Logger) log(_ context.Context, level, msg string, fields map[string]interface{}) {
	if !l.enabled(strings.ToLower(level)) {
		return
	}

	if l.format == FormatJSON {
		entry := map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"level":     level,
			"service":   l.service,
			"component": l.component,
			"message":   msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.output, string(data))
		}
		return
	}

	var fieldStr strings.Builder
	for k, v := range fields {
		fmt.Fprintf(&fieldStr, " %s=%v", k, v)
	}
	fmt.Fprintf(l.output, "%s [%s] [%s/%s] %s%s\n",
		time.Now().Format(time.RFC3339), level, l.service, l.component, msg, fieldStr.String())
}
