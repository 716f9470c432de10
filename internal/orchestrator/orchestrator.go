// Package orchestrator drives one user query through the model, any tool calls
// the model requests, and the follow-up call that produces the final answer.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

// Phase is the orchestrator's position in the query state machine.
type Phase int

const (
	AwaitingQuery Phase = iota
	ModelDeliberation
	ToolDispatch
	DirectAnswer
)

func (p Phase) String() string {
	switch p {
	case AwaitingQuery:
		return "awaiting_query"
	case ModelDeliberation:
		return "model_deliberation"
	case ToolDispatch:
		return "tool_dispatch"
	case DirectAnswer:
		return "direct_answer"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ToolSource supplies the tool list offered to the model.
type ToolSource interface {
	Snapshot(ctx context.Context) ([]providers.ToolDefinition, error)
}

// Executor runs one tool request. It must always return a result.
type Executor interface {
	Execute(ctx context.Context, req conversation.ToolInvocationRequest) conversation.ToolInvocationResult
}

// Options tunes an Orchestrator.
type Options struct {
	// Model overrides the completion provider's default model.
	Model string
	// MaxToolRounds is the number of dispatch rounds per query. One round
	// means the follow-up reply is final and is requested without tools.
	MaxToolRounds int
	// ParallelTools executes the requests of one response concurrently.
	// Results are still appended in request order.
	ParallelTools bool
	// OnToolCall is invoked before each request is executed.
	OnToolCall func(conversation.ToolInvocationRequest)
	// OnToolResult is invoked after each result is appended.
	OnToolResult func(conversation.ToolInvocationResult)
}

type Orchestrator struct {
	llm   providers.CompletionProvider
	tools ToolSource
	exec  Executor
	state *conversation.State
	opts  Options
	phase Phase
}

func New(llm providers.CompletionProvider, tools ToolSource, exec Executor, state *conversation.State, opts Options) *Orchestrator {
	if state == nil {
		state = conversation.NewState("")
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 1
	}
	return &Orchestrator{llm: llm, tools: tools, exec: exec, state: state, opts: opts}
}

// Phase reports the current phase; AwaitingQuery between queries.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Transcript returns a copy of the conversation so far.
func (o *Orchestrator) Transcript() []conversation.Turn {
	return o.state.Turns()
}

func (o *Orchestrator) enter(p Phase) {
	if o.phase != p {
		logging.LogEvent("Orchestrator phase: %s -> %s", o.phase, p)
	}
	o.phase = p
}

// Ask runs one query to completion and returns the model's final text.
// A failed query leaves the transcript exactly as it was before the query.
func (o *Orchestrator) Ask(ctx context.Context, query string) (answer string, err error) {
	checkpoint := o.state.Checkpoint()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query failed unexpectedly: %v", r)
			answer = ""
		}
		if err != nil {
			o.state.Rollback(checkpoint)
			logging.LogEvent("Query rolled back: turns=%d err=%v", checkpoint, err)
		}
		o.enter(AwaitingQuery)
	}()

	if err := o.state.Append(conversation.UserTurn(query)); err != nil {
		return "", err
	}

	o.enter(ModelDeliberation)
	tools, err := o.tools.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("refresh tool catalog: %w", err)
	}
	resp, err := o.complete(ctx, tools)
	if err != nil {
		return "", err
	}

	for round := 1; resp.WantsTools(); round++ {
		if round > o.opts.MaxToolRounds {
			logging.LogEvent("Tool round budget spent: discarding %d further tool requests", len(resp.ToolCalls))
			break
		}
		o.enter(ToolDispatch)
		if err := o.dispatch(ctx, resp.Text, resp.ToolCalls); err != nil {
			return "", err
		}

		o.enter(ModelDeliberation)
		var offer []providers.ToolDefinition
		if round < o.opts.MaxToolRounds {
			offer = tools
		}
		resp, err = o.complete(ctx, offer)
		if err != nil {
			return "", err
		}
	}

	o.enter(DirectAnswer)
	if err := o.state.Append(conversation.AssistantText(resp.Text)); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (o *Orchestrator) complete(ctx context.Context, tools []providers.ToolDefinition) (providers.CompletionResponse, error) {
	if err := o.state.Ready(); err != nil {
		return providers.CompletionResponse{}, err
	}
	return o.llm.Complete(ctx, providers.CompletionRequest{
		Model: o.opts.Model,
		Turns: o.state.Turns(),
		Tools: tools,
	})
}

// dispatch splits a multi-call response into one assistant turn per request,
// each immediately followed by its result. Text the model sent alongside the
// calls rides on the first assistant turn.
func (o *Orchestrator) dispatch(ctx context.Context, text string, calls []conversation.ToolInvocationRequest) error {
	calls = o.assignIDs(calls)
	results := make([]conversation.ToolInvocationResult, len(calls))
	if o.opts.ParallelTools && len(calls) > 1 {
		// Execute reports failures as results, so the group only joins the
		// goroutines; order comes from the results index.
		var g errgroup.Group
		for i, call := range calls {
			o.announce(call)
			g.Go(func() error {
				results[i] = o.exec.Execute(ctx, call)
				return nil
			})
		}
		_ = g.Wait()
		for i, call := range calls {
			if err := o.record(leadText(i, text), call, results[i]); err != nil {
				return err
			}
		}
		return nil
	}

	for i, call := range calls {
		o.announce(call)
		results[i] = o.exec.Execute(ctx, call)
		if err := o.record(leadText(i, text), call, results[i]); err != nil {
			return err
		}
	}
	return nil
}

func leadText(i int, text string) string {
	if i == 0 {
		return text
	}
	return ""
}

func (o *Orchestrator) announce(call conversation.ToolInvocationRequest) {
	if o.opts.OnToolCall != nil {
		o.opts.OnToolCall(call)
	}
}

func (o *Orchestrator) record(text string, call conversation.ToolInvocationRequest, res conversation.ToolInvocationResult) error {
	res.RequestID = call.ID
	if res.ToolName == "" {
		res.ToolName = call.Name
	}
	turn := conversation.AssistantCall(call)
	turn.Text = text
	if err := o.state.Append(turn); err != nil {
		return err
	}
	if err := o.state.Append(conversation.ToolTurn(res)); err != nil {
		return err
	}
	if o.opts.OnToolResult != nil {
		o.opts.OnToolResult(res)
	}
	return nil
}

// assignIDs replaces missing or repeated request ids. Some local servers reuse
// ids such as "call_0" across responses.
func (o *Orchestrator) assignIDs(calls []conversation.ToolInvocationRequest) []conversation.ToolInvocationRequest {
	out := make([]conversation.ToolInvocationRequest, len(calls))
	seen := make(map[string]struct{}, len(calls))
	for i, call := range calls {
		id := strings.TrimSpace(call.ID)
		_, dup := seen[id]
		if id == "" || dup || o.state.Used(id) {
			id = "call_" + uuid.NewString()
		}
		seen[id] = struct{}{}
		call.ID = id
		out[i] = call
	}
	return out
}
