// Package huggingface calls the Hugging Face hosted inference API for text
// generation.
package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"portfolio-chat/internal/integrations/upstream"
)

const (
	defaultBaseURL     = "https://api-inference.huggingface.co/models"
	defaultModel       = "microsoft/DialoGPT-medium"
	defaultMaxLength   = 100
	defaultTemperature = 0.7
)

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
}

// generation is one element of the inference API's array response. The
// pointer distinguishes a missing field from an empty string.
type generation struct {
	GeneratedText *string `json:"generated_text"`
}

type Client struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	apiKey      string
	maxLength   int
	temperature float64
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model = strings.Trim(strings.TrimSpace(model), "/"); model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("huggingface: api key must not be empty")
	}
	c := &Client{
		baseURL:     defaultBaseURL,
		model:       defaultModel,
		httpClient:  &http.Client{Timeout: upstream.DefaultTimeout},
		apiKey:      apiKey,
		maxLength:   defaultMaxLength,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func modelURL(baseURL, model string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/" + model
}

// Generate sends input to the model and returns the generated_text of the
// first result.
func (c *Client) Generate(ctx context.Context, input string) (string, error) {
	url := modelURL(c.baseURL, c.model)

	raw, err := upstream.PostJSON(ctx, c.httpClient, url, c.apiKey, generateRequest{
		Inputs: input,
		Parameters: generateParameters{
			MaxLength:   c.maxLength,
			Temperature: c.temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("huggingface: request failed: %w", err)
	}

	var results []generation
	if err := json.Unmarshal(raw, &results); err != nil {
		return "", fmt.Errorf("huggingface: decode response: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("huggingface: empty result array")
	}
	if results[0].GeneratedText == nil {
		return "", errors.New("huggingface: result missing generated_text")
	}
	return *results[0].GeneratedText, nil
}
