package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	// Packages
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// WeatherClient queries the OpenWeather current weather API.
type WeatherClient struct {
	*client.Client
	key  string
	lang string
}

// Weather holds the fields of an OpenWeather response the tool reports.
type Weather struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Conditions []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type weatherArgs struct {
	City string `json:"city"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// WeatherEndpoint is the OpenWeather API base.
	WeatherEndpoint = "https://api.openweathermap.org/data/2.5"
	weatherAgent    = "weather-app/1.0"
	weatherTimeout  = 30 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewWeatherClient returns a client for endpoint using apiKey. An empty lang
// leaves the API's default language.
func NewWeatherClient(endpoint, apiKey, lang string, opts ...client.ClientOpt) (*WeatherClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing OpenWeather API key")
	}
	if endpoint == "" {
		endpoint = WeatherEndpoint
	}
	opts = append(opts,
		client.OptEndpoint(endpoint),
		client.OptUserAgent(weatherAgent),
		client.OptTimeout(weatherTimeout),
	)
	c, err := client.New(opts...)
	if err != nil {
		return nil, err
	}
	return &WeatherClient{Client: c, key: apiKey, lang: lang}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Current returns the current weather for city, which should be an English
// city name such as "Beijing".
func (c *WeatherClient) Current(ctx context.Context, city string) (Weather, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.key)
	query.Set("units", "metric")
	if c.lang != "" {
		query.Set("lang", c.lang)
	}

	var response Weather
	if err := c.DoWithContext(ctx, nil, &response, client.OptPath("weather"), client.OptQuery(query)); err != nil {
		return Weather{}, fmt.Errorf("weather request failed: %w", err)
	}
	return response, nil
}

// FormatWeather renders w as a short multi-line report.
func FormatWeather(w Weather) string {
	city := orUnknown(w.Name)
	country := orUnknown(w.Sys.Country)
	description := "unknown"
	if len(w.Conditions) > 0 && w.Conditions[0].Description != "" {
		description = w.Conditions[0].Description
	}
	return fmt.Sprintf("🌍 %s, %s\n🌡️ Temperature: %.1f°C\n💧 Humidity: %d%%\n🍃 Wind: %.1f m/s\n☀️ Conditions: %s\n",
		city, country, w.Main.Temp, w.Main.Humidity, w.Wind.Speed, description)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func queryWeatherTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        QueryWeatherName,
		Description: "Get today's weather for a city. Pass the city name in English, e.g. Beijing.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "City name in English",
				},
			},
			"required": []any{"city"},
		},
	}
}

func queryWeatherHandler(weather *WeatherClient) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logCall(QueryWeatherName, req.Params.Arguments)
		var args weatherArgs
		if err := decodeArgs(req.Params.Arguments, &args); err != nil {
			return errorResult(QueryWeatherName, err), nil
		}
		city := strings.TrimSpace(args.City)
		if city == "" {
			return errorResult(QueryWeatherName, errors.New("'city' argument is required")), nil
		}
		if weather == nil {
			return errorResult(QueryWeatherName, errors.New("weather lookups are not configured (set OPENWEATHER_API_KEY)")), nil
		}
		w, err := weather.Current(ctx, city)
		if err != nil {
			return errorResult(QueryWeatherName, err), nil
		}
		return textResult(FormatWeather(w)), nil
	}
}

