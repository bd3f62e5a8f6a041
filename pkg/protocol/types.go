package protocol

// EventKind is the hook_event_name discriminator sent by the host.
type EventKind string

// Event kinds emitted by the host agent.
const (
	SessionStart         EventKind = "sessionStart"
	SessionEnd           EventKind = "sessionEnd"
	PreToolUse           EventKind = "preToolUse"
	PostToolUse          EventKind = "postToolUse"
	PostToolUseFailure   EventKind = "postToolUseFailure"
	BeforeShellExecution EventKind = "beforeShellExecution"
	AfterShellExecution  EventKind = "afterShellExecution"
	BeforeMCPExecution   EventKind = "beforeMCPExecution"
	AfterMCPExecution    EventKind = "afterMCPExecution"
	BeforeReadFile       EventKind = "beforeReadFile"
	AfterFileEdit        EventKind = "afterFileEdit"
	BeforeSubmitPrompt   EventKind = "beforeSubmitPrompt"
	SubagentStart        EventKind = "subagentStart"
	SubagentStop         EventKind = "subagentStop"
	Stop                 EventKind = "stop"
	PreCompact           EventKind = "preCompact"
	AfterAgentThought    EventKind = "afterAgentThought"
)

// AllEventKinds lists every kind EVA registers for, in hooks.json order.
var AllEventKinds = []EventKind{ //nolint:gochecknoglobals // read-only enumeration
	SessionStart,
	SessionEnd,
	PreToolUse,
	PostToolUse,
	PostToolUseFailure,
	BeforeShellExecution,
	AfterShellExecution,
	BeforeReadFile,
	AfterFileEdit,
	BeforeMCPExecution,
	AfterMCPExecution,
	BeforeSubmitPrompt,
	SubagentStart,
	SubagentStop,
	Stop,
	PreCompact,
	AfterAgentThought,
}

// Known reports whether k is one of the kinds in AllEventKinds.
func (k EventKind) Known() bool {
	for _, kind := range AllEventKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Tool names reported in tool_name for preToolUse/postToolUse events.
const (
	ToolShell      = "Shell"
	ToolRead       = "Read"
	ToolGrep       = "Grep"
	ToolWrite      = "Write"
	ToolStrReplace = "StrReplace"
	ToolDelete     = "Delete"
)

// Stop statuses reported by the stop event.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
	StatusError     = "error"
)
