// Package tools holds the reference server's tools and prompts and registers
// them on an MCP server.
package tools

import (
	"encoding/json"
	"fmt"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/logging"
)

const (
	// QueryWeatherName is the canonical name for the weather tool.
	QueryWeatherName = "query_weather"
	// HostInfoName is the canonical name for the host information tool.
	HostInfoName = "get_host_info"
	// ReviewCodeName is the canonical name for the code review prompt.
	ReviewCodeName = "review_code"
)

// Options configures the registered tools.
type Options struct {
	// Weather answers query_weather. When nil the tool reports that it is not
	// configured.
	Weather *WeatherClient
}

// Register adds every tool and prompt to server.
func Register(server *mcp.Server, opts Options) {
	server.AddTool(queryWeatherTool(), queryWeatherHandler(opts.Weather))
	server.AddTool(hostInfoTool(), hostInfoHandler)
	server.AddPrompt(reviewCodePrompt(), reviewCodeHandler)
}

// textResult wraps text as a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// errorResult reports a tool failure to the caller inside the result, so the
// model sees it as the tool's output.
func errorResult(tool string, err error) *mcp.CallToolResult {
	logging.LogEvent("[ERROR] Tool failed: tool=%s err=%v", tool, err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "⚠️ " + err.Error()}},
	}
}

// decodeArgs unmarshals raw tool arguments into v; absent arguments are an
// empty object.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func logCall(tool string, raw json.RawMessage) {
	logging.LogRequest(logging.ClientToMCP, "server", "", tool, raw)
}
