// internal/commands/root.go
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	envFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"baseURL":           "baseURL",
	"model":             "model",
	"systemPrompt":      "systemPrompt",
	"timeout":           "timeout",
	"mcpInitTimeout":    "mcpInitTimeout",
	"mcpCallTimeout":    "mcpCallTimeout",
	"maxToolRounds":     "maxToolRounds",
	"parallelTools":     "parallelTools",
	"validateArguments": "validateArguments",
	"pythonCommand":     "pythonCommand",
	"nodeCommand":       "nodeCommand",
	"debug":             "debug",
	"logFile":           "logFile",
}

// rootCmd starts a chat session against the tool server given as its argument.
var rootCmd = &cobra.Command{
	Use:   "mcpchat <server-script>",
	Short: "mcpchat: chat with an OpenAI-compatible model that can call MCP tools",
	Long: `mcpchat launches an MCP tool server as a child process, offers its tools to an
OpenAI-compatible chat completion endpoint and runs an interactive query loop.
Python (.py) and JavaScript (.js) servers run under the configured interpreter;
any other path is executed directly.`,
	Args:         serverArg,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		currentConfig = &cfg

		var console io.Writer
		if cfg.Debug {
			console = cmd.ErrOrStderr()
		}
		if err := logging.Init(cfg.LogFilePath(), console); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.LogEvent("mcpchat %s starting: model=%s endpoint=%s", appVersion, cfg.Model, cfg.BaseURL)
		return nil
	},
	RunE: runChat,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		logging.Close()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (any format viper reads, e.g. mcpchat.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "envFile", appconfig.DefaultEnvFile, "dotenv file loaded before the environment is read")

	rootCmd.PersistentFlags().String("baseURL", "", "OpenAI-compatible endpoint base URL (env BASE_URL)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "model identifier (env MODEL)")
	rootCmd.PersistentFlags().String("systemPrompt", "", "system prompt that seeds the conversation")
	rootCmd.PersistentFlags().Int("timeout", 0, "seconds to wait for a completion (0 = default)")
	rootCmd.PersistentFlags().Int("mcpInitTimeout", 0, "seconds to wait for the MCP handshake (0 = default)")
	rootCmd.PersistentFlags().Int("mcpCallTimeout", 0, "seconds to wait for one tool call (0 = default)")
	rootCmd.PersistentFlags().Int("maxToolRounds", 1, "tool dispatch rounds per query (1 = single hop)")
	rootCmd.PersistentFlags().Bool("parallelTools", false, "execute the tool calls of one reply concurrently")
	rootCmd.PersistentFlags().Bool("validateArguments", true, "validate tool arguments against the tool's input schema")
	rootCmd.PersistentFlags().String("pythonCommand", "", "interpreter for .py servers (default python)")
	rootCmd.PersistentFlags().String("nodeCommand", "", "interpreter for .js servers (default node)")
	rootCmd.PersistentFlags().Bool("debug", false, "log to stderr and dump the transcript after each query")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
}

// serverArg requires exactly one server path. Usage is silenced for runtime
// failures, so the error itself carries the usage line.
func serverArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d\nUsage: %s", len(args), cmd.UseLine())
	}
	return nil
}

// loadConfig resolves the configuration for cmd: dotenv first, then defaults,
// the config file, the environment and finally flags the user set.
func loadConfig(cmd *cobra.Command, validate bool) (appconfig.Config, error) {
	if err := appconfig.LoadDotEnv(envFile); err != nil {
		return appconfig.Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	appconfig.SetDefaults(v)
	for flag, key := range flagKeys {
		if f := cmd.Flag(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if validate {
		return appconfig.Load(v)
	}
	return appconfig.Resolve(v)
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
