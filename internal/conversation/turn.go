// internal/conversation/turn.go

// Package conversation holds the transcript that is replayed to the completion
// endpoint on every call: an ordered, append-only sequence of turns.
package conversation

import (
	"fmt"

	"github.com/mwiater/mcpchat/internal/apperr"
)

// Role tags the variant a Turn holds.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolInvocationRequest is one tool call emitted by the model.
// Arguments is the raw JSON text the model produced; it is parsed and validated
// at the dispatch boundary, not here.
type ToolInvocationRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolInvocationResult is the outcome of dispatching one request.
// A failed dispatch still produces a result: Kind is set and Content carries
// a human-readable description of the failure.
type ToolInvocationResult struct {
	RequestID string      `json:"request_id"`
	ToolName  string      `json:"tool_name,omitempty"`
	Content   string      `json:"content"`
	Kind      apperr.Kind `json:"error_kind,omitempty"`
}

// IsError reports whether the result describes a failure.
func (r ToolInvocationResult) IsError() bool {
	return r.Kind != ""
}

// Text renders the content the model sees in the tool turn.
func (r ToolInvocationResult) Text() string {
	if !r.IsError() {
		return r.Content
	}
	return fmt.Sprintf("error[%s]: %s", r.Kind, r.Content)
}

// Turn is one transcript entry. Which fields are meaningful depends on Role:
//
//	system, user       Text
//	assistant          Text, or Call (with optional Text) for a tool request
//	tool               Result
type Turn struct {
	Role   Role                   `json:"role"`
	Text   string                 `json:"text,omitempty"`
	Call   *ToolInvocationRequest `json:"call,omitempty"`
	Result *ToolInvocationResult  `json:"result,omitempty"`
}

// SystemTurn seeds the transcript with instructions.
func SystemTurn(text string) Turn { return Turn{Role: RoleSystem, Text: text} }

// UserTurn carries a raw user query.
func UserTurn(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// AssistantText carries a direct answer.
func AssistantText(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }

// AssistantCall carries exactly one tool request.
func AssistantCall(req ToolInvocationRequest) Turn {
	r := req
	return Turn{Role: RoleAssistant, Call: &r}
}

// ToolTurn carries the result matching an earlier AssistantCall.
func ToolTurn(res ToolInvocationResult) Turn {
	r := res
	return Turn{Role: RoleTool, Result: &r}
}

// IsToolRequest reports whether t is an assistant turn holding a tool call.
func (t Turn) IsToolRequest() bool {
	return t.Role == RoleAssistant && t.Call != nil
}
