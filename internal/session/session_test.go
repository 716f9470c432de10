package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/providers"
)

type fakePeer struct {
	calls   []string
	closed  int
	prompts map[string][]providers.PromptMessage
}

func (f *fakePeer) ListTools(ctx context.Context) ([]providers.ToolDescriptor, error) {
	return []providers.ToolDescriptor{{
		Name:        "query_weather",
		Description: "Current weather",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"city": map[string]any{"type": "string"}},
			"required":   []any{"city"},
		},
	}}, nil
}

func (f *fakePeer) ListPrompts(ctx context.Context) ([]providers.PromptDescriptor, error) {
	return []providers.PromptDescriptor{{Name: "review_code"}}, nil
}

func (f *fakePeer) GetPrompt(ctx context.Context, name string, args map[string]string) ([]providers.PromptMessage, error) {
	msgs, ok := f.prompts[name]
	if !ok {
		return nil, errors.New("no such prompt")
	}
	return msgs, nil
}

func (f *fakePeer) CallTool(ctx context.Context, name string, args map[string]any) (providers.ToolOutput, error) {
	f.calls = append(f.calls, name+":"+args["city"].(string))
	return providers.ToolOutput{Text: "25°C"}, nil
}

func (f *fakePeer) Close() error {
	f.closed++
	return nil
}

type fakeLLM struct {
	requests []providers.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if len(f.requests) == 1 {
		return providers.CompletionResponse{ToolCalls: []conversation.ToolInvocationRequest{{
			ID: "c1", Name: "query_weather", Arguments: `{"city":"Beijing"}`,
		}}}, nil
	}
	return providers.CompletionResponse{Text: "sunny"}, nil
}

func testConfig() appconfig.Config {
	return appconfig.Config{Model: "m", SystemPrompt: "be brief", ValidateArguments: true, MCPCallTimeout: 5}
}

func TestSessionAskWiresCatalogAndDispatcher(t *testing.T) {
	peer := &fakePeer{}
	llm := &fakeLLM{}
	var echoed []string
	s := New(testConfig(), peer, llm, Hooks{
		OnToolCall: func(req conversation.ToolInvocationRequest) { echoed = append(echoed, req.Name) },
	})

	answer, err := s.Ask(context.Background(), "weather in Beijing?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "sunny" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(peer.calls) != 1 || peer.calls[0] != "query_weather:Beijing" {
		t.Fatalf("unexpected peer calls %v", peer.calls)
	}
	if len(echoed) != 1 {
		t.Fatalf("expected tool call hook, got %v", echoed)
	}
	if llm.requests[0].Model != "m" || len(llm.requests[0].Tools) != 1 {
		t.Fatalf("unexpected first request: %+v", llm.requests[0])
	}
	if turns := s.Transcript(); turns[0].Role != conversation.RoleSystem || len(turns) != 5 {
		t.Fatalf("unexpected transcript: %+v", turns)
	}

	stats := s.Stats()
	if len(stats) != 2 {
		t.Fatalf("expected completion and tool series, got %+v", stats)
	}
	if stats[0].Name != "completion:m" || stats[0].Requests != 2 {
		t.Fatalf("unexpected completion series: %+v", stats[0])
	}
	if stats[1].Name != "tool:query_weather" || stats[1].Requests != 1 || stats[1].Failures != 0 {
		t.Fatalf("unexpected tool series: %+v", stats[1])
	}
}

func TestSessionRenderPrompt(t *testing.T) {
	peer := &fakePeer{prompts: map[string][]providers.PromptMessage{
		"review_code": {{Role: "user", Text: "Please review:"}, {Role: "user", Text: " "}, {Role: "user", Text: "x := 1"}},
		"empty":       nil,
	}}
	s := New(testConfig(), peer, &fakeLLM{}, Hooks{})

	text, err := s.RenderPrompt(context.Background(), "review_code", map[string]string{"code": "x := 1"})
	if err != nil {
		t.Fatalf("RenderPrompt failed: %v", err)
	}
	if text != "Please review:\n\nx := 1" {
		t.Fatalf("unexpected rendering %q", text)
	}
	if _, err := s.RenderPrompt(context.Background(), "empty", nil); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
	if _, err := s.RenderPrompt(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected error for unknown prompt")
	}
}

func TestSessionCloseOnce(t *testing.T) {
	peer := &fakePeer{}
	s := New(testConfig(), peer, &fakeLLM{}, Hooks{})
	_ = s.Close()
	_ = s.Close()
	if peer.closed != 1 {
		t.Fatalf("expected one peer close, got %d", peer.closed)
	}
}

func TestOpenMissingProgram(t *testing.T) {
	cfg := testConfig()
	cfg.MCPInitTimeout = 1
	_, err := Open(context.Background(), cfg, filepath.Join(t.TempDir(), "absent.py"), Hooks{})
	if !apperr.IsKind(err, apperr.KindConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !apperr.IsFatal(err) {
		t.Fatalf("connection errors must be fatal")
	}
}
