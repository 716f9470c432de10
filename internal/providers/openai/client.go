/*
openai implements a client for OpenAI-compatible chat completion endpoints.
Any server exposing POST {baseURL}/chat/completions with function tools works:
OpenAI itself, vLLM, llama.cpp server, Ollama's /v1 surface and similar.
*/
package openai

import (
	"net/url"
	"os"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"

	"github.com/mwiater/mcpchat/internal/appconfig"
	"github.com/mwiater/mcpchat/internal/providers"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
	model string
	host  string
}

var _ providers.CompletionProvider = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const userAgent = "mcpchat/dev"

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a completion client from the resolved configuration. The bearer
// credential is only sent when an API key is configured.
func New(cfg appconfig.Config, opts ...client.ClientOpt) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if endpoint == "" {
		endpoint = appconfig.DefaultBaseURL
	}
	opts = append(opts,
		client.OptEndpoint(endpoint),
		client.OptTimeout(cfg.RequestTimeout()),
		client.OptUserAgent(userAgent),
	)
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, client.OptReqToken(client.Token{
			Scheme: client.Bearer,
			Value:  key,
		}))
	}
	if cfg.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, false))
	}
	c, err := client.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Client: c, model: cfg.Model, host: hostOf(endpoint)}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Model returns the default model identifier.
func (c *Client) Model() string {
	return c.model
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
