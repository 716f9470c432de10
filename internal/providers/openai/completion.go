package openai

import (
	"context"
	"strings"

	// Packages
	"github.com/google/uuid"
	client "github.com/mutablelogic/go-client"

	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type reqCompletion struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Tools    []tool    `json:"tools,omitempty"`
}

// Response is the subset of a chat completion response the session uses.
type Response struct {
	Id      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   struct {
		PromptTokens     uint64 `json:"prompt_tokens,omitempty"`
		CompletionTokens uint64 `json:"completion_tokens,omitempty"`
		TotalTokens      uint64 `json:"total_tokens,omitempty"`
	} `json:"usage,omitempty"`
}

type choice struct {
	Index   uint64 `json:"index"`
	Message struct {
		Role      string         `json:"role"`
		Content   *string        `json:"content"`
		ToolCalls []respToolCall `json:"tool_calls,omitempty"`
	} `json:"message"`
	Reason string `json:"finish_reason,omitempty"`
}

type respToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string  `json:"name"`
		Arguments rawArgs `json:"arguments"`
	} `json:"function"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Complete sends the transcript and returns the first choice. Every failure,
// including a response without choices, is a completion-endpoint error.
func (c *Client) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	if err := conversation.Validate(req.Turns); err != nil {
		return providers.CompletionResponse{}, apperr.Wrap(apperr.KindCompletionEndpoint, "chat/completions", err)
	}
	messages, err := toMessages(req.Turns)
	if err != nil {
		return providers.CompletionResponse{}, apperr.Wrap(apperr.KindCompletionEndpoint, "chat/completions", err)
	}

	body := reqCompletion{Model: model, Messages: messages, Tools: toTools(req.Tools)}
	payload, err := client.NewJSONRequest(body)
	if err != nil {
		return providers.CompletionResponse{}, apperr.Wrap(apperr.KindCompletionEndpoint, "chat/completions", err)
	}
	logging.LogRequest(logging.ClientToLLM, c.host, model, "", body)

	var response Response
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("chat", "completions")); err != nil {
		logging.LogEvent("[ERROR] Completion failed: host=%s model=%s err=%v", c.host, model, err)
		return providers.CompletionResponse{}, apperr.Wrap(apperr.KindCompletionEndpoint, "chat/completions", err)
	}
	logging.LogRequest(logging.LLMToClient, c.host, model, "", response)

	if len(response.Choices) == 0 {
		return providers.CompletionResponse{}, apperr.New(apperr.KindCompletionEndpoint, "chat/completions", "response has no choices")
	}
	first := response.Choices[0]
	out := providers.CompletionResponse{
		Model:        response.Model,
		FinishReason: first.Reason,
		Usage: providers.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
		},
	}
	if out.Model == "" {
		out.Model = model
	}
	if first.Message.Content != nil {
		out.Text = *first.Message.Content
	}
	for _, call := range first.Message.ToolCalls {
		id := strings.TrimSpace(call.ID)
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, conversation.ToolInvocationRequest{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments.String(),
		})
	}
	return out, nil
}
