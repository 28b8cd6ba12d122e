// Package agents implements the three concrete core.Agent participants
// that sit behind the indexer, git, and github tool adapters. Each agent
// is a thin request/response wrapper around one collab collaborator
// interface, grounded on the teacher's BaseAgent HandleMessage dispatch
// pattern (DESIGN.md).
package agents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/coderift/toolmind/core"
)

func respond(req *core.Message, sender string, payload interface{}) *core.Message {
	raw, _ := json.Marshal(payload)
	return &core.Message{
		ID:            uuid.NewString(),
		Kind:          core.MessageKindResponse,
		Sender:        sender,
		Recipient:     req.Sender,
		CorrelationID: req.ID,
		Payload:       raw,
		Priority:      req.Priority,
		CreatedAt:     time.Now(),
	}
}

func errorMessage(req *core.Message, sender, code, message string, recoverable bool) *core.Message {
	payload, _ := json.Marshal(core.ToolErrorPayload{Code: code, Message: message, Recoverable: recoverable})
	return &core.Message{
		ID:            uuid.NewString(),
		Kind:          core.MessageKindError,
		Sender:        sender,
		Recipient:     req.Sender,
		CorrelationID: req.ID,
		Payload:       payload,
		Priority:      req.Priority,
		CreatedAt:     time.Now(),
	}
}
