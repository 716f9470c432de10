// internal/providers/provider.go

// Package providers defines the two external collaborators of a chat session:
// the completion endpoint that decides what to say or which tools to call, and
// the tool peer that executes those tools. Concrete implementations live in
// the openai and mcp subpackages.
package providers

import (
	"context"

	"github.com/mwiater/mcpchat/internal/conversation"
)

// ToolDescriptor is a tool as the peer advertises it.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolDefinition is a tool as the completion endpoint sees it, in its
// function-declaration shape.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// PromptArgument describes one argument of a peer prompt template.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptDescriptor is a prompt template as the peer advertises it.
type PromptDescriptor struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

// PromptMessage is one message of a rendered prompt.
type PromptMessage struct {
	Role string
	Text string
}

// ToolOutput is what a peer returned for one tool call.
type ToolOutput struct {
	Text    string
	IsError bool
}

// CompletionRequest is one call to the completion endpoint. A nil Tools slice
// means the model is not offered any tools.
type CompletionRequest struct {
	Model string
	Turns []conversation.Turn
	Tools []ToolDefinition
}

// Usage is the token accounting an endpoint reports, zero when it reports none.
type Usage struct {
	PromptTokens     uint64
	CompletionTokens uint64
}

// CompletionResponse is the first choice of a completion. When ToolCalls is
// non-empty the model is requesting tool execution and Text is usually empty.
type CompletionResponse struct {
	Model        string
	Text         string
	ToolCalls    []conversation.ToolInvocationRequest
	FinishReason string
	Usage        Usage
}

// WantsTools reports whether the model asked for tool execution.
func (r CompletionResponse) WantsTools() bool {
	return len(r.ToolCalls) > 0
}

// CompletionProvider sends a transcript to a model and returns its reply.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// ToolPeer is a connected tool server.
type ToolPeer interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	ListPrompts(ctx context.Context) ([]PromptDescriptor, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) ([]PromptMessage, error)
	CallTool(ctx context.Context, name string, args map[string]any) (ToolOutput, error)
	Close() error
}
