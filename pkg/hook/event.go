// Package hook turns one host hook invocation into a sound and a decision.
//
// Protocol: one JSON object on stdin, one JSON object on stdout.
//   - sessionStart, beforeSubmitPrompt:                 {"continue":true}
//   - preToolUse, subagentStart:                        {"decision":"allow"}
//   - beforeShellExecution, beforeMCPExecution,
//     beforeReadFile:                                   {"permission":"allow"}
//   - everything else, and every failure:               {}
//
// Design: fail-open. Nothing in here may stop the host agent; a broken
// payload, a missing sound, or a wedged audio device all end in a normal
// decision.
package hook

import (
	"encoding/json"
	"fmt"

	"eva/pkg/protocol"
	"eva/pkg/soundkey"
)

// Event is the JSON payload sent by the host on stdin. Only the fields EVA
// reads or logs are decoded; everything else is ignored.
type Event struct {
	HookEventName  protocol.EventKind `json:"hook_event_name"`
	ConversationID string             `json:"conversation_id,omitempty"`
	GenerationID   string             `json:"generation_id,omitempty"`
	SessionID      string             `json:"session_id,omitempty"`
	Model          string             `json:"model,omitempty"`
	CursorVersion  string             `json:"cursor_version,omitempty"`
	WorkspaceRoots []string           `json:"workspace_roots,omitempty"`
	UserEmail      *string            `json:"user_email,omitempty"`
	TranscriptPath *string            `json:"transcript_path,omitempty"`

	// Kind-specific fields.
	ToolName    string `json:"tool_name,omitempty"`
	Status      string `json:"status,omitempty"`
	FailureType string `json:"failure_type,omitempty"`
	Command     string `json:"command,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Trigger     string `json:"trigger,omitempty"`
}

// routing holds the fields that pick the decision and the sound.
type routing struct {
	HookEventName protocol.EventKind `json:"hook_event_name"`
	ToolName      string             `json:"tool_name"`
	Status        string             `json:"status"`
}

// ParseEvent decodes a hook payload. Unknown fields are accepted. The routing
// fields must have the right type; fields EVA only logs are dropped when
// their type does not match.
func ParseEvent(data []byte) (Event, error) {
	var r routing
	if err := json.Unmarshal(data, &r); err != nil {
		return Event{}, fmt.Errorf("decode hook payload: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Event{}, fmt.Errorf("decode hook payload: %w", err)
	}

	ev := Event{HookEventName: r.HookEventName, ToolName: r.ToolName, Status: r.Status}
	optional(fields, "conversation_id", &ev.ConversationID)
	optional(fields, "generation_id", &ev.GenerationID)
	optional(fields, "session_id", &ev.SessionID)
	optional(fields, "model", &ev.Model)
	optional(fields, "cursor_version", &ev.CursorVersion)
	optional(fields, "workspace_roots", &ev.WorkspaceRoots)
	optional(fields, "user_email", &ev.UserEmail)
	optional(fields, "transcript_path", &ev.TranscriptPath)
	optional(fields, "failure_type", &ev.FailureType)
	optional(fields, "command", &ev.Command)
	optional(fields, "file_path", &ev.FilePath)
	optional(fields, "trigger", &ev.Trigger)
	return ev, nil
}

// optional decodes fields[name] into dst, leaving dst untouched when the
// field is absent or has another type.
func optional[T any](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

// SoundEvent projects the payload onto the fields sound resolution uses.
func (e Event) SoundEvent() soundkey.Event {
	return soundkey.Event{
		Kind:     e.HookEventName,
		ToolName: e.ToolName,
		Status:   e.Status,
	}
}
