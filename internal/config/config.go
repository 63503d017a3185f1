// Package config reads the process-wide configuration once at startup.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Placeholder values shipped in the sample .env file. A key equal to its
// placeholder counts as not configured.
const (
	OpenAIKeyPlaceholder      = "your_openai_api_key_here"
	HuggingFaceKeyPlaceholder = "your_hugging_face_api_key_here"
)

const (
	defaultPort               = 5000
	defaultOpenAIModel        = "gpt-3.5-turbo"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultHuggingFaceModel   = "microsoft/DialoGPT-medium"
	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co/models"
	defaultUpstreamTimeout    = 10 * time.Second
)

// Config is immutable after Load returns; methods take value receivers and
// return copies.
type Config struct {
	Port  int
	Debug bool

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	HuggingFaceAPIKey  string
	HuggingFaceModel   string
	HuggingFaceBaseURL string

	UpstreamTimeout time.Duration

	ParamPrefix   string
	TrackingTable string
	OTLPEndpoint  string
}

// Load reads the given dotenv files (".env" when none are given) into the
// process environment without overriding variables that are already set, then
// builds a Config from the environment. Missing dotenv files are ignored.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load dotenv: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current process environment.
func FromEnv() Config {
	return Config{
		Port:               envInt("PORT", defaultPort),
		Debug:              envBool("DEBUG", true),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        envString("OPENAI_MODEL", defaultOpenAIModel),
		OpenAIBaseURL:      envString("OPENAI_BASE_URL", defaultOpenAIBaseURL),
		HuggingFaceAPIKey:  strings.TrimSpace(os.Getenv("HUGGING_FACE_API_KEY")),
		HuggingFaceModel:   envString("HUGGING_FACE_MODEL", defaultHuggingFaceModel),
		HuggingFaceBaseURL: envString("HUGGING_FACE_BASE_URL", defaultHuggingFaceBaseURL),
		UpstreamTimeout:    envDuration("UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
		ParamPrefix:        strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		TrackingTable:      strings.TrimSpace(os.Getenv("TRACKING_TABLE")),
		OTLPEndpoint:       strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}
}

// PrimaryEnabled reports whether the primary completion API has a usable key.
func (c Config) PrimaryEnabled() bool {
	return keyConfigured(c.OpenAIAPIKey, OpenAIKeyPlaceholder)
}

// SecondaryEnabled reports whether the secondary completion API has a usable key.
func (c Config) SecondaryEnabled() bool {
	return keyConfigured(c.HuggingFaceAPIKey, HuggingFaceKeyPlaceholder)
}

// NeedsAWS reports whether any configured feature talks to AWS.
func (c Config) NeedsAWS() bool {
	return c.ParamPrefix != "" || c.TrackingTable != ""
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func keyConfigured(key, placeholder string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholder
}

// TokenGetter fetches an API token stored under a parameter name.
type TokenGetter interface {
	GetToken(ctx context.Context, name string) (string, error)
}

// WithParamStoreKeys returns a copy of c with API keys that are missing from
// the environment filled in from the parameter store under ParamPrefix.
// Lookup failures leave the key empty, which disables that tier.
func (c Config) WithParamStoreKeys(ctx context.Context, tokens TokenGetter) Config {
	if c.ParamPrefix == "" || tokens == nil {
		return c
	}
	if !c.PrimaryEnabled() {
		c.OpenAIAPIKey = lookupToken(ctx, tokens, c.ParamPrefix+"/open-ai-token")
	}
	if !c.SecondaryEnabled() {
		c.HuggingFaceAPIKey = lookupToken(ctx, tokens, c.ParamPrefix+"/hugging-face-token")
	}
	return c
}

func lookupToken(ctx context.Context, tokens TokenGetter, name string) string {
	token, err := tokens.GetToken(ctx, name)
	if err != nil {
		slog.Warn("api token unavailable in parameter store", "name", name, "err", err)
		return ""
	}
	return token
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
