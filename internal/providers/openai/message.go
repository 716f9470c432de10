package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/providers"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// message is one entry of the request's messages array. Content is a pointer
// so that tool-request turns serialize it as null.
type message struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

// functionCall carries arguments as a JSON-encoded string, as the API expects.
type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type tool struct {
	Type     string                   `json:"type"`
	Function providers.ToolDefinition `json:"function"`
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func toMessages(turns []conversation.Turn) ([]message, error) {
	out := make([]message, 0, len(turns))
	for i, turn := range turns {
		switch turn.Role {
		case conversation.RoleSystem, conversation.RoleUser:
			out = append(out, message{Role: string(turn.Role), Content: ptr(turn.Text)})
		case conversation.RoleAssistant:
			if turn.Call == nil {
				out = append(out, message{Role: "assistant", Content: ptr(turn.Text)})
				continue
			}
			args := strings.TrimSpace(turn.Call.Arguments)
			if args == "" {
				args = "{}"
			}
			var content *string
			if strings.TrimSpace(turn.Text) != "" {
				content = ptr(turn.Text)
			}
			out = append(out, message{
				Role:    "assistant",
				Content: content,
				ToolCalls: []toolCall{{
					ID:       turn.Call.ID,
					Type:     "function",
					Function: functionCall{Name: turn.Call.Name, Arguments: args},
				}},
			})
		case conversation.RoleTool:
			if turn.Result == nil {
				return nil, fmt.Errorf("turn %d: tool turn without result", i)
			}
			out = append(out, message{
				Role:       "tool",
				Content:    ptr(turn.Result.Text()),
				ToolCallID: turn.Result.RequestID,
			})
		default:
			return nil, fmt.Errorf("turn %d: unknown role %q", i, turn.Role)
		}
	}
	return out, nil
}

func toTools(defs []providers.ToolDefinition) []tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, tool{Type: "function", Function: def})
	}
	return out
}

// rawArgs is the arguments field of a response tool call. Compliant endpoints
// send a JSON-encoded string; some send the object itself.
type rawArgs json.RawMessage

func (r *rawArgs) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r rawArgs) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// String returns the arguments as JSON text.
func (r rawArgs) String() string {
	trimmed := strings.TrimSpace(string(r))
	switch {
	case trimmed == "" || trimmed == "null":
		return "{}"
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
		return trimmed
	default:
		return trimmed
	}
}

func ptr(s string) *string {
	return &s
}
