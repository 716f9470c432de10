// servers/mcp/main.go
// Reference MCP tool server over stdio.
// Tools: query_weather, get_host_info. Prompts: review_code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/logging"
	"github.com/mwiater/mcpchat/servers/mcp/tools"
)

const (
	serverName    = "WeatherServer"
	serverVersion = "0.1.0"
)

var (
	envFile         string
	logFile         string
	weatherEndpoint string
	weatherLang     string
)

func init() {
	flag.StringVar(&envFile, "envFile", appconfig.DefaultEnvFile, "dotenv file holding OPENWEATHER_API_KEY")
	flag.StringVar(&logFile, "logFile", "", "path to the log file (stdout is reserved for the protocol)")
	flag.StringVar(&weatherEndpoint, "weatherEndpoint", tools.WeatherEndpoint, "OpenWeather API base URL")
	flag.StringVar(&weatherLang, "weatherLang", "en", "language of weather descriptions")
}

// newServer builds the server with every tool registered. Without an API key
// query_weather stays listed and reports that it is not configured.
func newServer(apiKey string) *mcp.Server {
	var opts tools.Options
	if apiKey != "" {
		weather, err := tools.NewWeatherClient(weatherEndpoint, apiKey, weatherLang)
		if err != nil {
			logging.LogEvent("[ERROR] Weather client unavailable: %v", err)
		} else {
			opts.Weather = weather
		}
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	tools.Register(server, opts)
	return server
}

func main() {
	flag.Parse()
	if err := appconfig.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envFile, err)
		os.Exit(1)
	}
	if err := logging.Init(logFile, nil); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer(os.Getenv("OPENWEATHER_API_KEY"))
	logging.LogEvent("%s %s serving on stdio", serverName, serverVersion)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logging.LogEvent("[ERROR] Server stopped: %v", err)
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		stop()
		logging.Close()
		os.Exit(1)
	}
}
