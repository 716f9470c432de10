// Package dispatch executes the tool requests a model emits against the tool
// peer. Execute never fails: every problem comes back as a result tagged with
// an error kind, so the caller can always pair a request with its result.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

// Caller is the part of a tool peer the dispatcher uses.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (providers.ToolOutput, error)
}

// Resolver finds a tool definition by name.
type Resolver interface {
	Lookup(name string) (providers.ToolDefinition, bool)
}

// Options tunes a Dispatcher.
type Options struct {
	// Validate enables JSON-schema validation of arguments before the call.
	Validate bool
	// CallTimeout bounds each peer call; zero means no extra bound.
	CallTimeout time.Duration
}

// Invocation is a request bound to its catalog entry with decoded arguments.
type Invocation struct {
	RequestID string
	Tool      providers.ToolDefinition
	Args      map[string]any
}

type Dispatcher struct {
	peer  Caller
	tools Resolver
	opts  Options
}

func New(peer Caller, tools Resolver, opts Options) *Dispatcher {
	return &Dispatcher{peer: peer, tools: tools, opts: opts}
}

// Bind resolves the tool and decodes and validates the arguments.
func (d *Dispatcher) Bind(req conversation.ToolInvocationRequest) (Invocation, error) {
	def, ok := d.tools.Lookup(req.Name)
	if !ok {
		return Invocation{}, apperr.New(apperr.KindUnknownTool, req.Name, "tool %q is not offered by the peer", req.Name)
	}
	args, err := ParseArguments(req.Arguments)
	if err != nil {
		return Invocation{}, apperr.Wrap(apperr.KindArgumentParse, req.Name, err)
	}
	if d.opts.Validate {
		if err := ValidateArguments(def, args); err != nil {
			return Invocation{}, apperr.Wrap(apperr.KindArgumentParse, req.Name, err)
		}
	}
	return Invocation{RequestID: req.ID, Tool: def, Args: args}, nil
}

// Execute runs one request and returns its result.
func (d *Dispatcher) Execute(ctx context.Context, req conversation.ToolInvocationRequest) (res conversation.ToolInvocationResult) {
	res = conversation.ToolInvocationResult{RequestID: req.ID, ToolName: req.Name}
	defer func() {
		if r := recover(); r != nil {
			logging.LogEvent("[ERROR] Tool dispatch panic: tool=%s id=%s panic=%v", req.Name, req.ID, r)
			res.Kind = apperr.KindToolExecution
			res.Content = fmt.Sprintf("tool %q failed unexpectedly: %v", req.Name, r)
		}
	}()

	inv, err := d.Bind(req)
	if err != nil {
		return failed(res, err)
	}

	callCtx := ctx
	if d.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.opts.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := d.peer.CallTool(callCtx, inv.Tool.Name, inv.Args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && apperr.KindOf(err) == "" {
			err = apperr.New(apperr.KindToolExecution, req.Name, "peer did not answer within %s", d.opts.CallTimeout)
		}
		return failed(res, err)
	}
	if out.IsError {
		text := out.Text
		if text == "" {
			text = "tool reported an error without details"
		}
		logging.LogEvent("Tool reported failure: tool=%s id=%s output=%s", req.Name, req.ID, logging.Truncate(text, 160))
		res.Kind = apperr.KindToolExecution
		res.Content = text
		return res
	}

	logging.LogEvent("Tool executed: tool=%s id=%s duration=%s output=%s", req.Name, req.ID, time.Since(start).Round(time.Millisecond), logging.Truncate(out.Text, 160))
	res.Content = out.Text
	return res
}

func failed(res conversation.ToolInvocationResult, err error) conversation.ToolInvocationResult {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindToolExecution
	}
	res.Kind = kind
	res.Content = describe(err)
	logging.LogEvent("[ERROR] Tool bypassed: tool=%s id=%s kind=%s reason=%s", res.ToolName, res.RequestID, kind, res.Content)
	return res
}

// describe renders err without the kind prefix, which the result carries separately.
func describe(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
