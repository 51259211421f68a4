package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/echo_test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "comments", cfg.ChannelName)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 10000, cfg.MaxWSConnections)
	assert.Equal(t, 10, cfg.MaxWSPerIP)
	assert.InDelta(t, 2.0, cfg.SubmitRate, 1e-9)
	assert.Equal(t, 5, cfg.SubmitBurst)
}

func TestLoad_ParsesLimits(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_WS_CONNECTIONS", "500")
	t.Setenv("SUBMIT_RATE_PER_SECOND", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxWSConnections)
	assert.InDelta(t, 0.5, cfg.SubmitRate, 1e-9)
}

func TestLoad_RejectsMalformedLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_WS_PER_IP", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_WS_PER_IP")
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_MissingScoringCredential(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/echo_test")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_ParsesOriginList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://echo.example.com, https://staging.echo.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://echo.example.com", "https://staging.echo.example.com"}, cfg.AllowedOrigins)
}
