package hook

import "eva/pkg/protocol"

// continueDecision lets the session or prompt proceed.
type continueDecision struct {
	Continue bool `json:"continue"`
}

// allowDecision approves a tool use or subagent launch.
type allowDecision struct {
	Decision string `json:"decision"`
}

// permissionDecision approves a shell command, MCP call or file read.
type permissionDecision struct {
	Permission string `json:"permission"`
}

// emptyDecision is the observational (and failure) response.
type emptyDecision struct{}

// emptyJSON is the pre-encoded universal response.
var emptyJSON = []byte("{}\n") //nolint:gochecknoglobals // constant response bytes

// Decision returns the response value for kind. Unknown kinds get {}.
func Decision(kind protocol.EventKind) any {
	switch kind {
	case protocol.SessionStart, protocol.BeforeSubmitPrompt:
		return continueDecision{Continue: true}
	case protocol.PreToolUse, protocol.SubagentStart:
		return allowDecision{Decision: "allow"}
	case protocol.BeforeShellExecution, protocol.BeforeMCPExecution, protocol.BeforeReadFile:
		return permissionDecision{Permission: "allow"}
	default:
		return emptyDecision{}
	}
}
