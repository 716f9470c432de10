package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const beijingJSON = `{"name":"Beijing","sys":{"country":"CN"},"main":{"temp":25,"humidity":40},"wind":{"speed":3.1},"weather":[{"description":"clear sky"}]}`

func newWeatherServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("appid") != "test-key" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}
		if q.Get("units") != "metric" || q.Get("lang") != "en" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("q") != "Beijing" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(beijingJSON))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newWeatherClient(t *testing.T, key string) *WeatherClient {
	t.Helper()
	ts := newWeatherServer(t)
	c, err := NewWeatherClient(ts.URL+"/data/2.5", key, "en")
	if err != nil {
		t.Fatalf("NewWeatherClient: %v", err)
	}
	return c
}

func TestWeatherCurrent(t *testing.T) {
	c := newWeatherClient(t, "test-key")
	w, err := c.Current(context.Background(), "Beijing")
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	text := FormatWeather(w)
	for _, want := range []string{"Beijing, CN", "25.0°C", "40%", "3.1 m/s", "clear sky"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestWeatherErrors(t *testing.T) {
	if _, err := NewWeatherClient("", " ", ""); err == nil {
		t.Fatalf("expected missing key error")
	}
	c := newWeatherClient(t, "wrong-key")
	if _, err := c.Current(context.Background(), "Beijing"); err == nil {
		t.Fatalf("expected error for rejected key")
	}
}

func TestFormatWeatherMissingFields(t *testing.T) {
	text := FormatWeather(Weather{})
	if !strings.Contains(text, "unknown, unknown") || !strings.Contains(text, "Conditions: unknown") {
		t.Fatalf("unexpected report %q", text)
	}
}

func connect(t *testing.T, opts Options) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "weather-server", Version: "test"}, nil)
	Register(server, opts)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n"), res.IsError
}

func TestRegisteredTools(t *testing.T) {
	cs := connect(t, Options{Weather: newWeatherClient(t, "test-key")})

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	if len(names) != 2 || !names[QueryWeatherName] || !names[HostInfoName] {
		t.Fatalf("unexpected tools %v", names)
	}

	text, isErr := callText(t, cs, QueryWeatherName, map[string]any{"city": "Beijing"})
	if isErr || !strings.Contains(text, "Beijing, CN") {
		t.Fatalf("unexpected weather result %q (error=%v)", text, isErr)
	}

	text, isErr = callText(t, cs, QueryWeatherName, map[string]any{"city": "Atlantis"})
	if !isErr || !strings.HasPrefix(text, "⚠️") {
		t.Fatalf("expected reported failure, got %q", text)
	}

	text, isErr = callText(t, cs, HostInfoName, map[string]any{})
	if isErr {
		t.Fatalf("host info failed: %s", text)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("host info is not JSON: %v", err)
	}
	if info["cpu_count"] == "" || info["system"] == "" || info["local_time"] == "" {
		t.Fatalf("incomplete host info %v", info)
	}
}

func TestWeatherNotConfigured(t *testing.T) {
	cs := connect(t, Options{})
	text, isErr := callText(t, cs, QueryWeatherName, map[string]any{"city": "Beijing"})
	if !isErr || !strings.Contains(text, "OPENWEATHER_API_KEY") {
		t.Fatalf("expected configuration error, got %q", text)
	}
}

func TestReviewCodePrompt(t *testing.T) {
	cs := connect(t, Options{})

	list, err := cs.ListPrompts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(list.Prompts) != 1 || list.Prompts[0].Name != ReviewCodeName {
		t.Fatalf("unexpected prompts %+v", list.Prompts)
	}

	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      ReviewCodeName,
		Arguments: map[string]string{"code": "x := 1"},
	})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(*mcp.TextContent)
	if !ok || tc.Text != reviewPreamble+"x := 1" {
		t.Fatalf("unexpected prompt message %+v", res.Messages[0].Content)
	}

	if _, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: ReviewCodeName}); err == nil {
		t.Fatalf("expected error without code")
	}
}
