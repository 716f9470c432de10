// Package catalog projects the peer's advertised tools into the function
// declarations offered to the completion endpoint.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

// Lister is the part of a tool peer the catalog reads.
type Lister interface {
	ListTools(ctx context.Context) ([]providers.ToolDescriptor, error)
}

// Catalog re-reads the peer on every Snapshot and remembers the latest result
// for name lookups at dispatch time.
type Catalog struct {
	peer Lister

	mu    sync.RWMutex
	defs  []providers.ToolDefinition
	index map[string]providers.ToolDefinition
}

func New(peer Lister) *Catalog {
	return &Catalog{peer: peer, index: map[string]providers.ToolDefinition{}}
}

// Project maps descriptors one-to-one, in order, keeping the input schema
// verbatim as the function parameters.
func Project(descs []providers.ToolDescriptor) []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(descs))
	for _, d := range descs {
		defs = append(defs, providers.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		})
	}
	return defs
}

// Snapshot queries the peer and returns the projected tool list.
func (c *Catalog) Snapshot(ctx context.Context) ([]providers.ToolDefinition, error) {
	descs, err := c.peer.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	defs := Project(descs)

	index := make(map[string]providers.ToolDefinition, len(defs))
	for _, def := range defs {
		index[def.Name] = def
	}
	c.mu.Lock()
	c.defs = defs
	c.index = index
	c.mu.Unlock()

	logging.LogEvent("Tool catalog refreshed: %d tools (%s)", len(defs), strings.Join(names(defs), ", "))
	out := make([]providers.ToolDefinition, len(defs))
	copy(out, defs)
	return out, nil
}

// Lookup finds a tool by exact name in the most recent snapshot.
func (c *Catalog) Lookup(name string) (providers.ToolDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.index[name]
	return def, ok
}

// Names lists the tool names of the most recent snapshot, in catalog order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return names(c.defs)
}

func names(defs []providers.ToolDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}
