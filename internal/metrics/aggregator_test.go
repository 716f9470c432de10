package metrics

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/mcpchat/internal/providers"
)

func TestUpdateRunningStat(t *testing.T) {
	var rs RunningStat
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		updateRunningStat(&rs, v)
	}
	if rs.Count != 8 || rs.Min != 2 || rs.Max != 9 {
		t.Fatalf("unexpected stat: %+v", rs)
	}
	if math.Abs(rs.Mean-5) > 1e-9 {
		t.Fatalf("expected mean 5, got %v", rs.Mean)
	}
	if got := rs.StdDev(); math.Abs(got-2.138) > 0.001 {
		t.Fatalf("expected sample stddev ~2.138, got %v", got)
	}
	if math.Abs(rs.Sum()-40) > 1e-9 {
		t.Fatalf("expected sum 40, got %v", rs.Sum())
	}
}

func TestStdDevNeedsTwoSamples(t *testing.T) {
	var rs RunningStat
	updateRunningStat(&rs, 3)
	if rs.StdDev() != 0 {
		t.Fatalf("expected 0 stddev for one sample, got %v", rs.StdDev())
	}
}

func TestAggregatorRecordAndSnapshot(t *testing.T) {
	a := NewAggregator()
	a.Record("tool:b", 10*time.Millisecond, false, providers.Usage{})
	a.Record("completion:m", 30*time.Millisecond, false, providers.Usage{PromptTokens: 100, CompletionTokens: 20})
	a.Record("tool:b", 20*time.Millisecond, true, providers.Usage{})

	snap := a.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 series, got %d", len(snap))
	}
	if snap[0].Name != "completion:m" || snap[1].Name != "tool:b" {
		t.Fatalf("series not sorted by name: %q, %q", snap[0].Name, snap[1].Name)
	}
	tool := snap[1]
	if tool.Requests != 2 || tool.Failures != 1 {
		t.Fatalf("unexpected tool counts: %+v", tool)
	}
	if tool.DurationMillis.Mean != 15 {
		t.Fatalf("expected mean 15ms, got %v", tool.DurationMillis.Mean)
	}
	if tool.PromptTokens.Count != 0 {
		t.Fatalf("tool series should carry no token stats: %+v", tool.PromptTokens)
	}
	if snap[0].PromptTokens.Sum() != 100 || snap[0].CompletionTokens.Sum() != 20 {
		t.Fatalf("unexpected token stats: %+v", snap[0])
	}

	snap[1].Requests = 99
	if a.Snapshot()[1].Requests != 2 {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "No requests recorded yet." {
		t.Fatalf("unexpected empty format: %q", got)
	}
	a := NewAggregator()
	a.Record("completion:m", 5*time.Millisecond, false, providers.Usage{PromptTokens: 7, CompletionTokens: 2})
	a.Record("tool:t", 5*time.Millisecond, false, providers.Usage{})
	got := Format(a.Snapshot())
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "completion:m requests=1 failures=0") || !strings.Contains(lines[0], "prompt_tokens=7 completion_tokens=2") {
		t.Fatalf("unexpected completion line: %q", lines[0])
	}
	if strings.Contains(lines[1], "prompt_tokens") {
		t.Fatalf("tool line should not report tokens: %q", lines[1])
	}
}

type stubLLM struct {
	resp providers.CompletionResponse
	err  error
}

func (s stubLLM) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	return s.resp, s.err
}

type stubPeer struct {
	providers.ToolPeer
	out providers.ToolOutput
	err error
}

func (s stubPeer) CallTool(ctx context.Context, name string, args map[string]any) (providers.ToolOutput, error) {
	return s.out, s.err
}

func TestProviderRecordsCompletions(t *testing.T) {
	a := NewAggregator()
	ok := NewProvider(stubLLM{resp: providers.CompletionResponse{Model: "served", Usage: providers.Usage{PromptTokens: 3}}}, a)
	if _, err := ok.Complete(context.Background(), providers.CompletionRequest{Model: "asked"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failing := NewProvider(stubLLM{err: errors.New("boom")}, a)
	if _, err := failing.Complete(context.Background(), providers.CompletionRequest{Model: "asked"}); err == nil {
		t.Fatalf("expected the wrapped error")
	}

	snap := a.Snapshot()
	if len(snap) != 2 || snap[0].Name != "completion:asked" || snap[1].Name != "completion:served" {
		t.Fatalf("unexpected series: %+v", snap)
	}
	if snap[0].Failures != 1 || snap[1].Failures != 0 {
		t.Fatalf("unexpected failures: %+v", snap)
	}
}

func TestPeerRecordsToolCalls(t *testing.T) {
	a := NewAggregator()
	ctx := context.Background()
	_, _ = NewPeer(stubPeer{out: providers.ToolOutput{Text: "ok"}}, a).CallTool(ctx, "t", nil)
	_, _ = NewPeer(stubPeer{out: providers.ToolOutput{Text: "bad", IsError: true}}, a).CallTool(ctx, "t", nil)
	_, _ = NewPeer(stubPeer{err: errors.New("gone")}, a).CallTool(ctx, "t", nil)

	snap := a.Snapshot()
	if len(snap) != 1 || snap[0].Name != "tool:t" {
		t.Fatalf("unexpected series: %+v", snap)
	}
	if snap[0].Requests != 3 || snap[0].Failures != 2 {
		t.Fatalf("unexpected counts: %+v", snap[0])
	}
}
