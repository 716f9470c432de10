// internal/commands/chat.go
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/chat"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/session"
	"github.com/spf13/cobra"
)

// chatSession is what a command needs from an open session.
type chatSession interface {
	chat.Session
	Close() error
}

// openSession is replaced in tests to avoid spawning a server.
var openSession = func(ctx context.Context, cfg appconfig.Config, serverPath string, hooks session.Hooks) (chatSession, error) {
	return session.Open(ctx, cfg, serverPath, hooks)
}

// runChat connects to the server named by args[0] and runs the query loop.
// The server process is released on every exit path.
func runChat(cmd *cobra.Command, args []string) (err error) {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	s, err := openSession(ctx, *cfg, args[0], chat.Hooks(out))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logging.LogEvent("Session close failed: %v", cerr)
		}
	}()

	var debug io.Writer
	if cfg.Debug {
		debug = cmd.ErrOrStderr()
	}
	return chat.Run(ctx, cmd.InOrStdin(), out, s, chat.Options{
		Model: cfg.Model,
		Peer:  filepath.Base(args[0]),
		Debug: debug,
	})
}
