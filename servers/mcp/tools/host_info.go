package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HostInfo describes the machine the server runs on.
type HostInfo struct {
	System    string `json:"system"`
	Release   string `json:"release"`
	Machine   string `json:"machine"`
	Processor string `json:"processor"`
	CPUModel  string `json:"cpu_model"`
	CPUCount  string `json:"cpu_count"`
	MemoryGB  string `json:"memory_gb"`
	Hostname  string `json:"hostname"`
	LocalTime string `json:"local_time"`
	Timezone  string `json:"timezone"`
}

// CollectHostInfo gathers the host description. Fields the platform cannot
// report are "Unknown".
func CollectHostInfo() HostInfo {
	now := time.Now()
	info := HostInfo{
		System:    runtime.GOOS,
		Release:   "Unknown",
		Machine:   runtime.GOARCH,
		Processor: runtime.GOARCH,
		CPUModel:  "Unknown",
		CPUCount:  strconv.Itoa(runtime.NumCPU()),
		MemoryGB:  "Unknown",
		Hostname:  "Unknown",
		LocalTime: now.Format(time.RFC3339),
		Timezone:  now.Location().String(),
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		info.Hostname = name
	}
	probeHost(&info)
	return info
}

func formatGB(bytes uint64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/(1024*1024*1024))
}

func hostInfoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        HostInfoName,
		Description: "Get information about the host machine: operating system, CPU, memory and local time.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

// hostInfoHandler returns the host description as indented JSON.
func hostInfoHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logCall(HostInfoName, req.Params.Arguments)
	data, err := json.MarshalIndent(CollectHostInfo(), "", "    ")
	if err != nil {
		return errorResult(HostInfoName, fmt.Errorf("error preparing host info: %w", err)), nil
	}
	return textResult(string(data)), nil
}
