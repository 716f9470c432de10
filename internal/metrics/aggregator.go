// internal/metrics/aggregator.go

// Package metrics keeps per-session timing and token statistics for
// completions and tool calls.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mwiater/mcpchat/internal/providers"
)

// Name prefixes group series by kind.
const (
	CompletionPrefix = "completion:"
	ToolPrefix       = "tool:"
)

// Aggregator collects running statistics keyed by series name. It is safe for
// concurrent use.
type Aggregator struct {
	mutex  sync.Mutex
	series map[string]*Series
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{series: make(map[string]*Series)}
}

// Record adds one observation to the series called name. Token statistics are
// only updated when usage reports any tokens.
func (a *Aggregator) Record(name string, elapsed time.Duration, failed bool, usage providers.Usage) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	s, ok := a.series[name]
	if !ok {
		s = &Series{Name: name}
		a.series[name] = s
	}
	s.Requests++
	if failed {
		s.Failures++
	}
	updateRunningStat(&s.DurationMillis, float64(elapsed.Microseconds())/1000)
	if usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
		updateRunningStat(&s.PromptTokens, float64(usage.PromptTokens))
		updateRunningStat(&s.CompletionTokens, float64(usage.CompletionTokens))
	}
}

// Snapshot returns a copy of every series ordered by name.
func (a *Aggregator) Snapshot() []Series {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]Series, 0, len(a.series))
	for _, s := range a.series {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Format renders series as one line each. An empty slice renders a single
// placeholder line.
func Format(series []Series) string {
	if len(series) == 0 {
		return "No requests recorded yet."
	}
	var b strings.Builder
	for i, s := range series {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s requests=%d failures=%d avg=%.1fms min=%.1fms max=%.1fms sd=%.1fms",
			s.Name, s.Requests, s.Failures,
			s.DurationMillis.Mean, s.DurationMillis.Min, s.DurationMillis.Max, s.DurationMillis.StdDev())
		if s.PromptTokens.Count > 0 {
			fmt.Fprintf(&b, " prompt_tokens=%.0f completion_tokens=%.0f", s.PromptTokens.Sum(), s.CompletionTokens.Sum())
		}
	}
	return b.String()
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}
