package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/metrics"
	"github.com/mwiater/mcpchat/internal/providers"
	"github.com/mwiater/mcpchat/internal/session"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

// resetFlags restores every persistent flag and isolates the test from the
// caller's environment and any .env file in the working directory.
func resetFlags(t *testing.T) {
	t.Helper()
	for name := range flagKeys {
		resetFlag(name)
	}
	resetFlag("config")
	_ = rootCmd.PersistentFlags().Set("envFile", filepath.Join(t.TempDir(), "absent.env"))
	for _, env := range []string{"BASE_URL", "MODEL", "API_KEY", "SYSTEM_PROMPT", "MCPCHAT_MAX_TOOL_ROUNDS", "MCPCHAT_DEBUG", "MCPCHAT_LOG_FILE"} {
		t.Setenv(env, "")
		_ = os.Unsetenv(env)
	}
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "mcpchat.log"))
	t.Cleanup(func() {
		for name := range flagKeys {
			resetFlag(name)
		}
		resetFlag("config")
		resetFlag("envFile")
		currentConfig = nil
		_ = logging.Close()
	})
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcpchat.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	resetFlags(t)
	configPath := writeTempConfig(t, "model: file-model\nmaxToolRounds: 2\nbaseURL: http://file.example/v1\n")
	_ = rootCmd.PersistentFlags().Set("config", configPath)
	_ = rootCmd.PersistentFlags().Set("model", "flag-model")

	cfg, err := loadConfig(rootCmd, true)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Model != "flag-model" {
		t.Fatalf("expected flag to win, got %q", cfg.Model)
	}
	if cfg.ToolRounds() != 2 || cfg.BaseURL != "http://file.example/v1" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.ConfigPath != configPath {
		t.Fatalf("expected config path %s, got %s", configPath, cfg.ConfigPath)
	}
	if !cfg.ValidateArguments {
		t.Fatalf("expected validateArguments default to survive")
	}
}

func TestPersistentPreRunERequiresModel(t *testing.T) {
	resetFlags(t)
	if err := rootCmd.PersistentPreRunE(rootCmd, []string{"server.py"}); err == nil || !strings.Contains(err.Error(), "model is required") {
		t.Fatalf("expected missing model error, got %v", err)
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	resetFlags(t)
	t.Setenv("API_KEY", "sk-1234567890abcd")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"show", "config", "--maxToolRounds", "3"})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Max Tool Rounds:    3") {
		t.Fatalf("expected flag value in output, got %s", out)
	}
	if strings.Contains(out, "sk-1234567890abcd") {
		t.Fatalf("api key leaked: %s", out)
	}
}

type stubSession struct {
	queries []string
	closed  bool
}

func (s *stubSession) Ask(ctx context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return "answer to " + query, nil
}

func (s *stubSession) Tools(ctx context.Context) ([]providers.ToolDescriptor, error) {
	return []providers.ToolDescriptor{{Name: "query_weather"}}, nil
}

func (s *stubSession) Prompts(ctx context.Context) ([]providers.PromptDescriptor, error) {
	return nil, nil
}

func (s *stubSession) RenderPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	return name, nil
}

func (s *stubSession) Transcript() []conversation.Turn { return nil }

func (s *stubSession) Stats() []metrics.Series { return nil }

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func stubOpen(t *testing.T) *stubSession {
	t.Helper()
	stub := &stubSession{}
	original := openSession
	openSession = func(ctx context.Context, cfg appconfig.Config, serverPath string, hooks session.Hooks) (chatSession, error) {
		if serverPath != "weather.py" {
			t.Fatalf("unexpected server path %q", serverPath)
		}
		return stub, nil
	}
	t.Cleanup(func() { openSession = original })
	return stub
}

func TestRootRunsChatLoop(t *testing.T) {
	resetFlags(t)
	stub := stubOpen(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader("hello\nquit\n"))
	rootCmd.SetArgs([]string{"weather.py", "--model", "m"})
	t.Cleanup(func() {
		rootCmd.SetArgs([]string{})
		rootCmd.SetIn(nil)
	})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	if len(stub.queries) != 1 || stub.queries[0] != "hello" {
		t.Fatalf("unexpected queries %v", stub.queries)
	}
	if !stub.closed {
		t.Fatalf("session must be closed when the loop ends")
	}
	out := buf.String()
	if !strings.Contains(out, "answer to hello") || !strings.Contains(out, "Connected to server with tools: [query_weather]") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestShowToolsCommand(t *testing.T) {
	resetFlags(t)
	stub := stubOpen(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"show", "tools", "weather.py"})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	if !strings.Contains(buf.String(), "query_weather") || !stub.closed {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if len(stub.queries) != 0 {
		t.Fatalf("show tools must not query the model")
	}
}
