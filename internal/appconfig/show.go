package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the resolved configuration. The API key is masked.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using environment and defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Base URL:           %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Model:              %s\n", cfg.Model)
	fmt.Fprintf(out, "  API Key:            %s\n", maskSecret(cfg.APIKey))
	fmt.Fprintf(out, "  Request Timeout:    %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  MCP Init Timeout:   %s\n", cfg.MCPInitTimeoutDuration())
	fmt.Fprintf(out, "  MCP Call Timeout:   %s\n", cfg.MCPCallTimeoutDuration())
	fmt.Fprintf(out, "  Max Tool Rounds:    %d\n", cfg.ToolRounds())
	fmt.Fprintf(out, "  Parallel Tools:     %v\n", cfg.ParallelTools)
	fmt.Fprintf(out, "  Validate Arguments: %v\n", cfg.ValidateArguments)
	fmt.Fprintf(out, "  Python Command:     %s\n", cfg.PythonInterpreter())
	fmt.Fprintf(out, "  Node Command:       %s\n", cfg.NodeInterpreter())
	fmt.Fprintf(out, "  Debug:              %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:           %s\n", cfg.LogFilePath())
	if strings.TrimSpace(cfg.SystemPrompt) != "" {
		fmt.Fprintf(out, "  System Prompt:      %s\n", cfg.SystemPrompt)
	}
}

func maskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}
