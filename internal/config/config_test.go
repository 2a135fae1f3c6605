package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "CORS_ALLOWED_ORIGINS", "CHAT_REPLY_DELAY_MS", "CHAT_SUBMIT_RATE", "CHAT_SUBMIT_BURST", "TELEGRAM_APITOKEN", "ARK_API_KEY", "Model"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 1200*time.Millisecond, cfg.Chat.ReplyDelay)
	assert.Equal(t, 5, cfg.Chat.SubmitBurst)
	assert.False(t, cfg.Telegram.Enabled())
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadServerConfigAcceptsHostPort(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadServerConfigRejectsSpaces(t *testing.T) {
	t.Setenv("PORT", "80 80")

	_, err := loadServerConfig()
	assert.Error(t, err)
}

func TestLoadChatConfigOverrides(t *testing.T) {
	t.Setenv("CHAT_REPLY_DELAY_MS", "0")
	t.Setenv("CHAT_SUBMIT_BURST", "-3")
	t.Setenv("CHAT_LLM_TIMEOUT_SECONDS", "5")

	cfg, err := loadChatConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.ReplyDelay)
	assert.Equal(t, 1, cfg.SubmitBurst)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
}

func TestLoadChatConfigInvalidValues(t *testing.T) {
	t.Setenv("CHAT_REPLY_DELAY_MS", "soon")
	_, err := loadChatConfig()
	assert.ErrorContains(t, err, "CHAT_REPLY_DELAY_MS")

	t.Setenv("CHAT_REPLY_DELAY_MS", "-1")
	_, err = loadChatConfig()
	assert.Error(t, err)
}

func TestAIConfigEnabled(t *testing.T) {
	assert.False(t, AIConfig{APIKey: "k"}.Enabled())
	assert.True(t, AIConfig{APIKey: "k", Model: "m"}.Enabled())
	assert.True(t, AIConfig{AccessKey: "a", SecretKey: "s", Model: "m"}.Enabled())
	assert.False(t, AIConfig{AccessKey: "a", Model: "m"}.Enabled())
}
