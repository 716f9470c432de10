package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/apperr"
)

// transportBuilder is overridden in tests to connect to an in-process server.
var transportBuilder = buildTransport

// ResolveCommand returns the program and arguments used to launch serverPath.
// Python and JavaScript sources run under the configured interpreter; any
// other path is executed directly.
func ResolveCommand(cfg appconfig.Config, serverPath string) (string, []string, error) {
	path := strings.TrimSpace(serverPath)
	if path == "" {
		return "", nil, errors.New("server path is empty")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return cfg.PythonInterpreter(), []string{path}, nil
	case ".js", ".mjs", ".cjs":
		return cfg.NodeInterpreter(), []string{path}, nil
	default:
		return path, nil, nil
	}
}

func buildTransport(cfg appconfig.Config, serverPath string) (mcpsdk.Transport, error) {
	if _, err := os.Stat(serverPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("server program not found at %q", serverPath)
		}
		return nil, fmt.Errorf("server program %q not accessible: %w", serverPath, err)
	}
	name, args, err := ResolveCommand(cfg, serverPath)
	if err != nil {
		return nil, err
	}
	// The child's lifetime is the session's, not the connect call's, so no
	// context is attached here. Close reaps it.
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr
	return &mcpsdk.CommandTransport{Command: cmd}, nil
}

// Connect launches the peer program and performs the initialize handshake.
// A peer connects at most once; any failure is a connection error.
func (p *Peer) Connect(ctx context.Context, serverPath string) error {
	p.mu.Lock()
	if p.used {
		p.mu.Unlock()
		return apperr.New(apperr.KindConnection, "connect", "peer already connected to %s", p.label)
	}
	p.used = true
	p.label = labelFor(serverPath)
	p.mu.Unlock()

	transport, err := transportBuilder(p.cfg, serverPath)
	if err != nil {
		p.log("MCP server start aborted: %v", err)
		return apperr.Wrap(apperr.KindConnection, "connect", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, p.cfg.MCPInitTimeoutDuration())
	defer cancel()

	session, err := p.client.Connect(initCtx, transport, nil)
	if err != nil {
		p.log("MCP server initialization failed: peer=%s err=%v", p.Label(), err)
		return apperr.Wrap(apperr.KindConnection, "initialize", err)
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()

	if ct, ok := transport.(*mcpsdk.CommandTransport); ok && ct.Command != nil && ct.Command.Process != nil {
		p.log("MCP server started: peer=%s pid=%d", p.Label(), ct.Command.Process.Pid)
	} else {
		p.log("MCP server started: peer=%s", p.Label())
	}
	return nil
}

// Close ends the session and reaps the child process. It is safe to call more
// than once and on a peer that never connected; only the first call can
// report an error.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		session := p.session
		p.session = nil
		p.used = true
		p.mu.Unlock()

		if session == nil {
			return
		}
		err = session.Close()
		if err != nil {
			p.log("MCP server shutdown: peer=%s err=%v", p.Label(), err)
			return
		}
		p.log("MCP server stopped: peer=%s", p.Label())
	})
	return err
}
