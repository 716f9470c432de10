// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultBaseURL is the OpenAI-compatible endpoint used when BASE_URL is unset.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultEnvFile is the dotenv file read at startup.
	DefaultEnvFile = ".env"
	// defaultRequestTimeout is the default timeout for completion requests.
	defaultRequestTimeout = 120 * time.Second
	// defaultMCPInitTimeout bounds the peer handshake.
	defaultMCPInitTimeout = 10 * time.Second
	// defaultMCPCallTimeout bounds a single tool call.
	defaultMCPCallTimeout = 30 * time.Second
	defaultMaxToolRounds  = 1
)

// envBindings maps config keys to the environment variables that may set them.
var envBindings = map[string]string{
	"baseURL":           "BASE_URL",
	"model":             "MODEL",
	"apiKey":            "API_KEY",
	"systemPrompt":      "SYSTEM_PROMPT",
	"timeout":           "MCPCHAT_TIMEOUT",
	"mcpInitTimeout":    "MCPCHAT_MCP_INIT_TIMEOUT",
	"mcpCallTimeout":    "MCPCHAT_MCP_CALL_TIMEOUT",
	"maxToolRounds":     "MCPCHAT_MAX_TOOL_ROUNDS",
	"parallelTools":     "MCPCHAT_PARALLEL_TOOLS",
	"validateArguments": "MCPCHAT_VALIDATE_ARGUMENTS",
	"pythonCommand":     "MCPCHAT_PYTHON",
	"nodeCommand":       "MCPCHAT_NODE",
	"debug":             "MCPCHAT_DEBUG",
	"logFile":           "MCPCHAT_LOG_FILE",
}

// Config represents the resolved application configuration.
type Config struct {
	BaseURL           string `mapstructure:"baseURL"`
	Model             string `mapstructure:"model"`
	APIKey            string `mapstructure:"apiKey"`
	SystemPrompt      string `mapstructure:"systemPrompt"`
	TimeoutSeconds    int    `mapstructure:"timeout"`
	MCPInitTimeout    int    `mapstructure:"mcpInitTimeout"`
	MCPCallTimeout    int    `mapstructure:"mcpCallTimeout"`
	MaxToolRounds     int    `mapstructure:"maxToolRounds"`
	ParallelTools     bool   `mapstructure:"parallelTools"`
	ValidateArguments bool   `mapstructure:"validateArguments"`
	PythonCommand     string `mapstructure:"pythonCommand"`
	NodeCommand       string `mapstructure:"nodeCommand"`
	Debug             bool   `mapstructure:"debug"`
	LogFile           string `mapstructure:"logFile"`
	ConfigPath        string `mapstructure:"-"`
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("baseURL", DefaultBaseURL)
	v.SetDefault("timeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("mcpInitTimeout", int(defaultMCPInitTimeout.Seconds()))
	v.SetDefault("mcpCallTimeout", int(defaultMCPCallTimeout.Seconds()))
	v.SetDefault("maxToolRounds", defaultMaxToolRounds)
	v.SetDefault("parallelTools", false)
	v.SetDefault("validateArguments", true)
	v.SetDefault("pythonCommand", "python")
	v.SetDefault("nodeCommand", "node")
	v.SetDefault("logFile", "mcpchat.log")
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg, err := Resolve(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve reads the config file set on v, if any, and unmarshals the merged
// settings without validating them. A missing file is an error, since it was
// asked for explicitly.
func Resolve(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("appconfig: nil viper instance")
	}
	path := v.ConfigFileUsed()
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found at %q", path)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = path
	return cfg, nil
}

// Validate reports configuration errors that must stop startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model is required (set MODEL or --model)")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("baseURL must not be empty")
	}
	return nil
}

// RequestTimeout returns the timeout for completion requests.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MCPInitTimeoutDuration returns the timeout for the peer handshake.
func (c Config) MCPInitTimeoutDuration() time.Duration {
	if c.MCPInitTimeout <= 0 {
		return defaultMCPInitTimeout
	}
	return time.Duration(c.MCPInitTimeout) * time.Second
}

// MCPCallTimeoutDuration returns the timeout for one tool call.
func (c Config) MCPCallTimeoutDuration() time.Duration {
	if c.MCPCallTimeout <= 0 {
		return defaultMCPCallTimeout
	}
	return time.Duration(c.MCPCallTimeout) * time.Second
}

// ToolRounds returns how many tool-dispatch rounds a single query may run.
func (c Config) ToolRounds() int {
	if c.MaxToolRounds <= 0 {
		return defaultMaxToolRounds
	}
	return c.MaxToolRounds
}

// PythonInterpreter returns the command used to run .py peers.
func (c Config) PythonInterpreter() string {
	if p := strings.TrimSpace(c.PythonCommand); p != "" {
		return p
	}
	return "python"
}

// NodeInterpreter returns the command used to run .js peers.
func (c Config) NodeInterpreter() string {
	if n := strings.TrimSpace(c.NodeCommand); n != "" {
		return n
	}
	return "node"
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "mcpchat.log"
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables already present in the environment are left untouched. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("dotenv %q: %w", path, err)
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("dotenv %q: %w", path, err)
	}
	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("dotenv set %s: %w", name, err)
		}
	}
	return nil
}
