// internal/session/session.go

// Package session wires one chat session together: the tool peer, the
// completion client, the tool catalog, the dispatcher and the orchestrator.
// A Session owns the peer process and must be closed on every exit path.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/catalog"
	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/dispatch"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/metrics"
	"github.com/mwiater/mcpchat/internal/orchestrator"
	"github.com/mwiater/mcpchat/internal/providers"
	"github.com/mwiater/mcpchat/internal/providers/mcp"
	"github.com/mwiater/mcpchat/internal/providers/openai"
)

// Hooks receives tool activity as it happens, for console echo.
type Hooks struct {
	OnToolCall   func(conversation.ToolInvocationRequest)
	OnToolResult func(conversation.ToolInvocationResult)
}

type Session struct {
	cfg     appconfig.Config
	peer    providers.ToolPeer
	llm     providers.CompletionProvider
	catalog *catalog.Catalog
	orch    *orchestrator.Orchestrator
	stats   *metrics.Aggregator

	closeOnce sync.Once
	closeErr  error
}

// Open launches the peer program at serverPath, completes the handshake and
// builds the completion client. On any failure nothing is left running.
func Open(ctx context.Context, cfg appconfig.Config, serverPath string, hooks Hooks) (*Session, error) {
	peer := mcp.NewPeer(cfg)
	if err := peer.Connect(ctx, serverPath); err != nil {
		_ = peer.Close()
		return nil, err
	}
	llm, err := openai.New(cfg)
	if err != nil {
		_ = peer.Close()
		return nil, apperr.Wrap(apperr.KindCompletionEndpoint, "client", err)
	}
	logging.LogEvent("Session opened: peer=%s model=%s endpoint=%s", peer.Label(), cfg.Model, cfg.BaseURL)
	return New(cfg, peer, llm, hooks), nil
}

// New assembles a session around an already connected peer. Completions and
// tool calls are timed for Stats.
func New(cfg appconfig.Config, peer providers.ToolPeer, llm providers.CompletionProvider, hooks Hooks) *Session {
	stats := metrics.NewAggregator()
	peer = metrics.NewPeer(peer, stats)
	llm = metrics.NewProvider(llm, stats)
	cat := catalog.New(peer)
	exec := dispatch.New(peer, cat, dispatch.Options{
		Validate:    cfg.ValidateArguments,
		CallTimeout: cfg.MCPCallTimeoutDuration(),
	})
	orch := orchestrator.New(llm, cat, exec, conversation.NewState(cfg.SystemPrompt), orchestrator.Options{
		Model:         cfg.Model,
		MaxToolRounds: cfg.ToolRounds(),
		ParallelTools: cfg.ParallelTools,
		OnToolCall:    hooks.OnToolCall,
		OnToolResult:  hooks.OnToolResult,
	})
	return &Session{cfg: cfg, peer: peer, llm: llm, catalog: cat, orch: orch, stats: stats}
}

// Model is the model identifier queries are sent to.
func (s *Session) Model() string {
	return s.cfg.Model
}

// Tools lists the peer's tools as advertised.
func (s *Session) Tools(ctx context.Context) ([]providers.ToolDescriptor, error) {
	return s.peer.ListTools(ctx)
}

// Prompts lists the peer's prompt templates.
func (s *Session) Prompts(ctx context.Context) ([]providers.PromptDescriptor, error) {
	return s.peer.ListPrompts(ctx)
}

// RenderPrompt renders a peer prompt template and joins its messages into one
// block of text, suitable for use as a query.
func (s *Session) RenderPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	messages, err := s.peer.GetPrompt(ctx, name, args)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("prompt %q rendered no messages", name)
	}
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if text := strings.TrimSpace(m.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// Ask runs one query through the orchestrator.
func (s *Session) Ask(ctx context.Context, query string) (string, error) {
	return s.orch.Ask(ctx, query)
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []conversation.Turn {
	return s.orch.Transcript()
}

// Stats returns the completion and tool call statistics recorded so far.
func (s *Session) Stats() []metrics.Series {
	return s.stats.Snapshot()
}

// Close releases the peer. Further calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.peer.Close()
		logging.LogEvent("Session closed: turns=%d", len(s.orch.Transcript()))
		for _, series := range s.stats.Snapshot() {
			logging.LogEvent("[METRICS] %s", metrics.Format([]metrics.Series{series}))
		}
	})
	return s.closeErr
}
