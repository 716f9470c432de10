package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

// ListPrompts returns the peer's prompt templates. They are informational and
// never offered to the model.
func (p *Peer) ListPrompts(ctx context.Context) ([]providers.PromptDescriptor, error) {
	session, err := p.current("list_prompts")
	if err != nil {
		return nil, err
	}
	logging.LogRequest(logging.ClientToMCP, p.Label(), "", "prompts/list", nil)
	var prompts []providers.PromptDescriptor
	for prompt, err := range session.Prompts(ctx, nil) {
		if err != nil {
			return nil, apperr.Wrap(apperr.KindToolExecution, "list_prompts", err)
		}
		if prompt == nil {
			continue
		}
		desc := providers.PromptDescriptor{Name: prompt.Name, Description: prompt.Description}
		for _, arg := range prompt.Arguments {
			if arg == nil {
				continue
			}
			desc.Arguments = append(desc.Arguments, providers.PromptArgument{
				Name:        arg.Name,
				Description: arg.Description,
				Required:    arg.Required,
			})
		}
		prompts = append(prompts, desc)
	}
	logging.LogRequest(logging.MCPToClient, p.Label(), "", "prompts/list", len(prompts))
	return prompts, nil
}

// GetPrompt renders a prompt template with the given arguments.
func (p *Peer) GetPrompt(ctx context.Context, name string, args map[string]string) ([]providers.PromptMessage, error) {
	session, err := p.current("get_prompt")
	if err != nil {
		return nil, err
	}
	logging.LogRequest(logging.ClientToMCP, p.Label(), "", "prompts/get "+name, args)
	res, err := session.GetPrompt(ctx, &mcpsdk.GetPromptParams{Name: name, Arguments: args})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindToolExecution, "get_prompt "+name, err)
	}
	var messages []providers.PromptMessage
	for _, m := range res.Messages {
		if m == nil {
			continue
		}
		messages = append(messages, providers.PromptMessage{
			Role: string(m.Role),
			Text: flattenContent([]mcpsdk.Content{m.Content}),
		})
	}
	logging.LogRequest(logging.MCPToClient, p.Label(), "", "prompts/get "+name, len(messages))
	return messages, nil
}
