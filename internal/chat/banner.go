package chat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/providers"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	badgeStyle = lipgloss.NewStyle().Background(lipgloss.Color("229")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// Lister reads the peer's catalog.
type Lister interface {
	Tools(ctx context.Context) ([]providers.ToolDescriptor, error)
	Prompts(ctx context.Context) ([]providers.PromptDescriptor, error)
}

// Report prints the startup banner with the peer's tools and prompts. Listing
// failures are shown but do not stop the caller.
func Report(ctx context.Context, out io.Writer, s Lister, opts Options) {
	header := titleStyle.Render("MCP chat")
	if opts.Model != "" {
		header += " " + badgeStyle.Render("Model: "+opts.Model)
	}
	if opts.Peer != "" {
		header += " " + badgeStyle.Render("Peer: "+opts.Peer)
	}
	fmt.Fprintln(out, header)

	if err := printTools(ctx, out, s); err != nil {
		fmt.Fprintln(out, errorText("Error: "+err.Error()))
	}
	if err := printPrompts(ctx, out, s); err != nil {
		fmt.Fprintln(out, errorText("Error: "+err.Error()))
	}
}

func printTools(ctx context.Context, out io.Writer, s Lister) error {
	tools, err := s.Tools(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	fmt.Fprintf(out, "Connected to server with tools: [%s]\n", strings.Join(names, ", "))
	for _, t := range tools {
		line := "  " + nameStyle.Render(t.Name)
		if d := strings.TrimSpace(t.Description); d != "" {
			line += " " + faintStyle.Render(logging.Truncate(firstLine(d), 100))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func printPrompts(ctx context.Context, out io.Writer, s Lister) error {
	prompts, err := s.Prompts(ctx)
	if err != nil {
		return err
	}
	if len(prompts) == 0 {
		fmt.Fprintln(out, "No prompts available.")
		return nil
	}
	fmt.Fprintln(out, "Available prompts:")
	for _, p := range prompts {
		args := make([]string, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			if a.Required {
				args = append(args, a.Name)
			} else {
				args = append(args, "["+a.Name+"]")
			}
		}
		line := "  " + nameStyle.Render(p.Name)
		if len(args) > 0 {
			line += "(" + strings.Join(args, ", ") + ")"
		}
		if d := strings.TrimSpace(p.Description); d != "" {
			line += " " + faintStyle.Render(firstLine(d))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
