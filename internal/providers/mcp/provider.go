// Package mcp connects to a tool peer over the Model Context Protocol.
// The peer is a child process speaking MCP on its standard streams; Peer owns
// that process for the whole session and exposes its tools and prompts.
package mcp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/logging"
)

const (
	clientName    = "mcpchat"
	clientVersion = "dev"
)

// Peer is a session-scoped connection to one MCP tool server.
type Peer struct {
	cfg    appconfig.Config
	client *mcpsdk.Client

	mu      sync.RWMutex
	session *mcpsdk.ClientSession
	label   string
	used    bool

	closeOnce sync.Once
}

// NewPeer returns an unconnected peer. Call Connect before anything else.
func NewPeer(cfg appconfig.Config) *Peer {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: clientName, Version: clientVersion}, nil)
	return &Peer{cfg: cfg, client: impl}
}

func (p *Peer) log(format string, args ...any) {
	logging.LogEvent(format, args...)
}

// Label identifies the peer in log lines.
func (p *Peer) Label() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.label == "" {
		return "local-mcp"
	}
	return p.label
}

// current returns the live session or a NotConnected error naming op.
func (p *Peer) current(op string) (*mcpsdk.ClientSession, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		if p.used {
			return nil, apperr.New(apperr.KindNotConnected, op, "peer connection is closed")
		}
		return nil, apperr.New(apperr.KindNotConnected, op, "peer is not connected")
	}
	return p.session, nil
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

func labelFor(serverPath string) string {
	return filepath.Base(serverPath)
}
