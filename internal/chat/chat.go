// internal/chat/chat.go

// Package chat is the interactive loop: it reads one query per line, hands it
// to the session and prints the answer. A failed query is reported and the
// loop moves on; only a lost peer ends the session early.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"

	"github.com/mwiater/mcpchat/internal/apperr"
	"github.com/mwiater/mcpchat/internal/conversation"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/metrics"
	"github.com/mwiater/mcpchat/internal/session"
)

const (
	promptLabel = "Query: "
	quitCommand = "quit"
)

var (
	errorText   = color.New(color.FgRed).SprintFunc()
	callText    = color.New(color.FgCyan).SprintFunc()
	commandText = color.New(color.FgYellow).SprintFunc()

	promptArgPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)
)

// Session is what the loop needs from a chat session.
type Session interface {
	Lister
	Ask(ctx context.Context, query string) (string, error)
	RenderPrompt(ctx context.Context, name string, args map[string]string) (string, error)
	Transcript() []conversation.Turn
	Stats() []metrics.Series
}

// Options tunes the loop.
type Options struct {
	// Model is shown in the startup banner.
	Model string
	// Peer is shown in the startup banner.
	Peer string
	// Debug receives a pretty-printed transcript after every query; nil disables it.
	Debug io.Writer
}

// Hooks returns session hooks that echo tool activity to out.
func Hooks(out io.Writer) session.Hooks {
	return session.Hooks{
		OnToolCall: func(req conversation.ToolInvocationRequest) {
			fmt.Fprintln(out, callText(fmt.Sprintf("[Calling tool %s with args %s]", req.Name, displayArgs(req.Arguments))))
		},
		OnToolResult: func(res conversation.ToolInvocationResult) {
			if res.IsError() {
				fmt.Fprintln(out, errorText(fmt.Sprintf("[Tool %s failed: %s]", res.ToolName, logging.Truncate(res.Content, 200))))
			}
		},
	}
}

// Run drives the loop until quit, end of input, cancellation of ctx or a
// fatal session error. Only the fatal error is returned. Cancellation is
// checked between queries; a query in flight runs to completion unless its own
// requests observe ctx.
func Run(ctx context.Context, in io.Reader, out io.Writer, s Session, opts Options) error {
	Report(ctx, out, s, opts)
	fmt.Fprintln(out, faintStyle.Render("Type your queries, /tools, /prompts, /prompt NAME key=value, /stats, or 'quit' to exit."))

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)
	for {
		fmt.Fprint(out, "\n"+promptLabel)
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out)
			if err := <-readErr; err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, quitCommand) {
			return nil
		}
		if err := handle(ctx, out, s, opts, line); err != nil {
			return err
		}
	}
}

// readLines feeds in to a channel one line at a time. The channel is closed at
// end of input and the scanner error, if any, is then sent on the second one.
// Closing done stops the reader at its next line.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// handle processes one line. It returns an error only when the session
// cannot continue.
func handle(ctx context.Context, out io.Writer, s Session, opts Options, line string) error {
	defer func() {
		if r := recover(); r != nil {
			logging.LogEvent("[ERROR] Query panic: %v", r)
			fmt.Fprintln(out, errorText(fmt.Sprintf("Error: unexpected failure: %v", r)))
		}
	}()

	var (
		answer string
		err    error
	)
	switch {
	case line == "/tools":
		err = printTools(ctx, out, s)
	case line == "/prompts":
		err = printPrompts(ctx, out, s)
	case line == "/stats":
		fmt.Fprintln(out, metrics.Format(s.Stats()))
		return nil
	case line == "/prompt" || strings.HasPrefix(line, "/prompt "):
		var query string
		query, err = renderPrompt(ctx, s, strings.TrimSpace(strings.TrimPrefix(line, "/prompt")))
		if err == nil {
			fmt.Fprintln(out, commandText(query))
			answer, err = s.Ask(ctx, query)
		}
	default:
		answer, err = s.Ask(ctx, line)
	}

	if opts.Debug != nil {
		pp.Fprintln(opts.Debug, s.Transcript())
	}
	if err != nil {
		fmt.Fprintln(out, errorText("Error: "+err.Error()))
		if apperr.IsFatal(err) {
			return err
		}
		return nil
	}
	if answer != "" {
		fmt.Fprintln(out, "\n"+answer)
	}
	return nil
}

func renderPrompt(ctx context.Context, s Session, rest string) (string, error) {
	name, args, err := ParsePromptCommand(rest)
	if err != nil {
		return "", err
	}
	return s.RenderPrompt(ctx, name, args)
}

// ParsePromptCommand splits "NAME key=value key2=some value" into a prompt
// name and its arguments. A word that does not start a new key=value pair is
// appended to the previous value.
func ParsePromptCommand(rest string) (string, map[string]string, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, errors.New("usage: /prompt NAME [key=value ...]")
	}
	name := fields[0]
	args := map[string]string{}
	key := ""
	for _, f := range fields[1:] {
		if promptArgPattern.MatchString(f) {
			k, v, _ := strings.Cut(f, "=")
			key = k
			args[key] = v
			continue
		}
		if key == "" {
			return "", nil, fmt.Errorf("prompt argument %q is not key=value", f)
		}
		if args[key] == "" {
			args[key] = f
		} else {
			args[key] += " " + f
		}
	}
	return name, args, nil
}

func displayArgs(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "{}"
	}
	return logging.Truncate(raw, 200)
}
