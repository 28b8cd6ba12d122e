package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFormatIncludesFieldsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Service: "toolmind", Format: FormatJSON, Output: &buf})
	tagged := l.WithComponent("registry")

	tagged.Info("tool executed", map[string]interface{}{"tool": "search_code"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "toolmind", entry["service"])
	assert.Equal(t, "registry", entry["component"])
	assert.Equal(t, "search_code", entry["tool"])
	assert.Equal(t, "tool executed", entry["message"])
}

func TestLogger_DebugSuppressedBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: FormatJSON, Output: &buf})

	l.Debug("should not appear", nil)
	assert.Empty(t, buf.String())

	l.Info("should appear", nil)
	assert.NotEmpty(t, buf.String())
}

func TestLogger_TextFormatIncludesLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Service: "toolmind", Format: FormatText, Output: &buf}).
		WithComponent("coordinator")

	l.Warn("agent slow to respond", map[string]interface{}{"agent": "git"})

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "toolmind/coordinator")
	assert.Contains(t, out, "agent=git")
}

func TestLogger_WithComponentDoesNotMutateOriginal(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Level: "info", Format: FormatText, Output: &buf})
	_ = base.WithComponent("indexer")

	base.Info("base log", nil)
	assert.False(t, strings.Contains(buf.String(), "indexer"))
}
