package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/chat"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/internal/session"
	"github.com/spf13/cobra"
)

// showCmd groups read-only inspection commands. They resolve the
// configuration without requiring a model.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration or a server's catalog",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		currentConfig = &cfg
		return logging.Init(cfg.LogFilePath(), nil)
	},
}

// showConfigCmd implements 'show config', which displays the resolved settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings after the dotenv file, config file, environment and flags have been merged.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		if cfg == nil {
			cfg = &appconfig.Config{}
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), cfg.ConfigPath, *cfg)
	},
}

// showToolsCmd implements 'show tools', which connects to a server and lists
// its tools and prompts without starting a chat.
var showToolsCmd = &cobra.Command{
	Use:   "tools <server-script>",
	Short: "List a server's tools and prompts",
	Args:  serverArg,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := openSession(ctx, *cfg, args[0], session.Hooks{})
		if err != nil {
			return err
		}
		defer s.Close()
		chat.Report(ctx, cmd.OutOrStdout(), s, chat.Options{Peer: filepath.Base(args[0])})
		return nil
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showToolsCmd)
	rootCmd.AddCommand(showCmd)
}
