package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "DEBUG",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"HUGGING_FACE_API_KEY", "HUGGING_FACE_MODEL", "HUGGING_FACE_BASE_URL",
	"UPSTREAM_TIMEOUT", "PARAM_PREFIX", "TRACKING_TABLE", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	require.Equal(t, 5000, cfg.Port)
	require.True(t, cfg.Debug)
	require.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	require.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	require.Equal(t, "microsoft/DialoGPT-medium", cfg.HuggingFaceModel)
	require.Equal(t, "https://api-inference.huggingface.co/models", cfg.HuggingFaceBaseURL)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	require.False(t, cfg.PrimaryEnabled())
	require.False(t, cfg.SecondaryEnabled())
	require.False(t, cfg.NeedsAWS())
	require.Equal(t, ":5000", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("DEBUG", "False")
	t.Setenv("OPENAI_API_KEY", " sk-live ")
	t.Setenv("HUGGING_FACE_API_KEY", "hf-live")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("PARAM_PREFIX", "/portfolio-chat/")
	t.Setenv("TRACKING_TABLE", "visitors")

	cfg := FromEnv()
	require.Equal(t, 8081, cfg.Port)
	require.False(t, cfg.Debug)
	require.Equal(t, "sk-live", cfg.OpenAIAPIKey)
	require.True(t, cfg.PrimaryEnabled())
	require.True(t, cfg.SecondaryEnabled())
	require.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, "/portfolio-chat", cfg.ParamPrefix)
	require.Equal(t, "visitors", cfg.TrackingTable)
	require.True(t, cfg.NeedsAWS())
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("DEBUG", "maybe")
	t.Setenv("UPSTREAM_TIMEOUT", "-5s")

	cfg := FromEnv()
	require.Equal(t, 5000, cfg.Port)
	require.True(t, cfg.Debug)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
}

func TestPlaceholderKeysDisableTiers(t *testing.T) {
	cfg := Config{OpenAIAPIKey: OpenAIKeyPlaceholder, HuggingFaceAPIKey: HuggingFaceKeyPlaceholder}
	require.False(t, cfg.PrimaryEnabled())
	require.False(t, cfg.SecondaryEnabled())

	cfg = Config{OpenAIAPIKey: "   "}
	require.False(t, cfg.PrimaryEnabled())
}

func TestLoad_ReadsDotenvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("PORT")
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("PORT")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-from-file\nPORT=6000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-from-file", cfg.OpenAIAPIKey)
	require.Equal(t, 6000, cfg.Port)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.Port)
}

type fakeTokens struct {
	vals  map[string]string
	calls []string
}

func (f *fakeTokens) GetToken(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, name)
	v, ok := f.vals[name]
	if !ok {
		return "", errors.New("parameter not found")
	}
	return v, nil
}

func TestWithParamStoreKeys_FillsMissingKeys(t *testing.T) {
	tokens := &fakeTokens{vals: map[string]string{
		"/chat/open-ai-token":      "sk-ssm",
		"/chat/hugging-face-token": "hf-ssm",
	}}
	cfg := Config{ParamPrefix: "/chat"}

	out := cfg.WithParamStoreKeys(context.Background(), tokens)
	require.Equal(t, "sk-ssm", out.OpenAIAPIKey)
	require.Equal(t, "hf-ssm", out.HuggingFaceAPIKey)
	require.Empty(t, cfg.OpenAIAPIKey, "receiver must not change")
}

func TestWithParamStoreKeys_EnvironmentWins(t *testing.T) {
	tokens := &fakeTokens{vals: map[string]string{"/chat/hugging-face-token": "hf-ssm"}}
	cfg := Config{ParamPrefix: "/chat", OpenAIAPIKey: "sk-env"}

	out := cfg.WithParamStoreKeys(context.Background(), tokens)
	require.Equal(t, "sk-env", out.OpenAIAPIKey)
	require.Equal(t, "hf-ssm", out.HuggingFaceAPIKey)
	require.Equal(t, []string{"/chat/hugging-face-token"}, tokens.calls)
}

func TestWithParamStoreKeys_LookupFailureDisablesTier(t *testing.T) {
	tokens := &fakeTokens{vals: map[string]string{}}
	cfg := Config{ParamPrefix: "/chat", OpenAIAPIKey: OpenAIKeyPlaceholder}

	out := cfg.WithParamStoreKeys(context.Background(), tokens)
	require.False(t, out.PrimaryEnabled())
	require.False(t, out.SecondaryEnabled())
}

func TestWithParamStoreKeys_NoPrefix(t *testing.T) {
	tokens := &fakeTokens{}
	out := Config{}.WithParamStoreKeys(context.Background(), tokens)
	require.Empty(t, tokens.calls)
	require.Empty(t, out.OpenAIAPIKey)
}
