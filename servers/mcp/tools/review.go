package tools

import (
	"context"
	"errors"
	"strings"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/logging"
)

const reviewPreamble = "Please review the following code:\n\n"

func reviewCodePrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:        ReviewCodeName,
		Description: "Ask the model to review a piece of code.",
		Arguments: []*mcp.PromptArgument{{
			Name:        "code",
			Description: "The code to review",
			Required:    true,
		}},
	}
}

func reviewCodeHandler(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	logging.LogRequest(logging.ClientToMCP, "server", "", "prompts/get "+ReviewCodeName, req.Params.Arguments)
	code := req.Params.Arguments["code"]
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("'code' argument is required")
	}
	return &mcp.GetPromptResult{
		Description: "Code review request",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: reviewPreamble + code},
		}},
	}, nil
}
