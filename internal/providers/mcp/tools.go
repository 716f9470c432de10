// internal/providers/mcp/tools.go
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

// ListTools returns the peer's tools in the order it advertises them.
func (p *Peer) ListTools(ctx context.Context) ([]providers.ToolDescriptor, error) {
	session, err := p.current("list_tools")
	if err != nil {
		return nil, err
	}
	logging.LogRequest(logging.ClientToMCP, p.Label(), "", "tools/list", nil)
	var tools []providers.ToolDescriptor
	var names []string
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, apperr.Wrap(apperr.KindToolExecution, "list_tools", err)
		}
		if tool == nil {
			continue
		}
		tools = append(tools, toToolDescriptor(tool))
		names = append(names, tool.Name)
	}
	logging.LogRequest(logging.MCPToClient, p.Label(), "", "tools/list", names)
	return tools, nil
}

// CallTool invokes one tool. Transport failures and timeouts are returned as
// tool-execution errors; a tool that ran and reported failure comes back as
// output with IsError set.
func (p *Peer) CallTool(ctx context.Context, name string, args map[string]any) (providers.ToolOutput, error) {
	session, err := p.current("call_tool")
	if err != nil {
		return providers.ToolOutput{}, err
	}
	if args == nil {
		args = map[string]any{}
	}
	logging.LogRequest(logging.ClientToMCP, p.Label(), "", name, formatArgs(args))

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.log("[ERROR] Tool timed out: tool=%s peer=%s", name, p.Label())
			return providers.ToolOutput{}, apperr.New(apperr.KindToolExecution, name, "peer did not answer in time")
		}
		p.log("[ERROR] Tool call failed: tool=%s peer=%s reason=%v", name, p.Label(), err)
		return providers.ToolOutput{}, apperr.Wrap(apperr.KindToolExecution, name, err)
	}
	if res == nil {
		return providers.ToolOutput{}, nil
	}

	out := providers.ToolOutput{Text: flattenContent(res.Content), IsError: res.IsError}
	logging.LogRequest(logging.MCPToClient, p.Label(), "", name, map[string]any{
		"is_error": out.IsError,
		"output":   logging.Truncate(out.Text, 500),
	})
	return out, nil
}

func toToolDescriptor(tool *mcpsdk.Tool) providers.ToolDescriptor {
	if tool == nil {
		return providers.ToolDescriptor{}
	}
	return providers.ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schemaMap(tool.InputSchema),
	}
}

// schemaMap normalizes a wire schema into a generic JSON object.
func schemaMap(schema any) map[string]any {
	switch s := schema.(type) {
	case nil:
		return nil
	case map[string]any:
		return s
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// flattenContent joins text parts; other content kinds are rendered as JSON.
func flattenContent(content []mcpsdk.Content) string {
	var parts []string
	for _, c := range content {
		switch v := c.(type) {
		case nil:
			continue
		case *mcpsdk.TextContent:
			parts = append(parts, v.Text)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				parts = append(parts, fmt.Sprintf("%v", v))
				continue
			}
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}
