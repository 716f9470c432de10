// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/mcpchat/internal/providers"
)

// Provider is a decorator that wraps a CompletionProvider to record metrics.
type Provider struct {
	wrapped    providers.CompletionProvider
	aggregator *Aggregator
}

// NewProvider creates a new metrics-enabled provider that wraps an existing CompletionProvider.
func NewProvider(wrapped providers.CompletionProvider, aggregator *Aggregator) *Provider {
	return &Provider{wrapped: wrapped, aggregator: aggregator}
}

// Complete times the wrapped call and records it under the requested model.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	start := time.Now()
	resp, err := p.wrapped.Complete(ctx, req)
	model := req.Model
	if resp.Model != "" {
		model = resp.Model
	}
	p.aggregator.Record(CompletionPrefix+model, time.Since(start), err != nil, resp.Usage)
	return resp, err
}

// Peer is a decorator that wraps a ToolPeer to record tool call metrics.
// Every other method passes through.
type Peer struct {
	providers.ToolPeer
	aggregator *Aggregator
}

// NewPeer wraps peer.
func NewPeer(peer providers.ToolPeer, aggregator *Aggregator) *Peer {
	return &Peer{ToolPeer: peer, aggregator: aggregator}
}

// CallTool times the wrapped call. A transport error and a result the tool
// flagged as an error both count as failures.
func (p *Peer) CallTool(ctx context.Context, name string, args map[string]any) (providers.ToolOutput, error) {
	start := time.Now()
	out, err := p.ToolPeer.CallTool(ctx, name, args)
	p.aggregator.Record(ToolPrefix+name, time.Since(start), err != nil || out.IsError, providers.Usage{})
	return out, err
}
