package config_test

import (
	"testing"
	"time"

	"github.com/convoflow/engine/internal/assert"
	"github.com/convoflow/engine/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()
	as.ConfigValid(cfg)
	as.Equal(config.DefaultAPIHost, cfg.APIHost)
	as.Equal(config.DefaultAPIPort, cfg.APIPort)
	as.Equal(config.DefaultRedisAddr, cfg.Store.Addr)
	as.Equal(config.DefaultRedisPrefix, cfg.Store.Prefix)
	as.Equal(config.DefaultDeliveryEndpoint, cfg.Delivery.Endpoint)
	as.Equal(config.DefaultEventChannel, cfg.EventChannel)
	as.Equal("info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	as := assert.New(t)

	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "9090")
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_PREFIX", "staging")
	t.Setenv("DELIVERY_ENDPOINT", "https://example.com/v1")
	t.Setenv("DELIVERY_TOKEN", "bearer-token")
	t.Setenv("DELIVERY_FALLBACK_TEXT", "Nothing here")
	t.Setenv("DELIVERY_TIMEOUT", "2500")
	t.Setenv("EVENT_CHANNEL", "staging:events")
	t.Setenv("ARCHIVE_BUCKET_URL", "file:///tmp/archive")
	t.Setenv("ARCHIVE_PREFIX", "staging/")

	cfg := config.NewDefaultConfig()
	as.Require.NoError(cfg.LoadFromEnv())
	as.ConfigValid(cfg)

	as.Equal("127.0.0.1", cfg.APIHost)
	as.Equal(9090, cfg.APIPort)
	as.Equal("secret", cfg.VerifyToken)
	as.Equal("debug", cfg.LogLevel)
	as.Equal("redis:6379", cfg.Store.Addr)
	as.Equal("hunter2", cfg.Store.Password)
	as.Equal(3, cfg.Store.DB)
	as.Equal("staging", cfg.Store.Prefix)
	as.Equal("https://example.com/v1", cfg.Delivery.Endpoint)
	as.Equal("bearer-token", cfg.Delivery.Token)
	as.Equal("Nothing here", cfg.Delivery.FallbackText)
	as.Equal(int64(2500), cfg.Delivery.TimeoutMs)
	as.Equal("staging:events", cfg.EventChannel)
	as.Equal("file:///tmp/archive", cfg.ArchiveBucketURL)
	as.Equal("staging/", cfg.ArchivePrefix)

	as.Equal(2500*time.Millisecond, cfg.DeliveryTimeout())
}

func TestLoadFromEnvErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port_not_numeric", key: "API_PORT", value: "http"},
		{name: "port_out_of_range", key: "API_PORT", value: "70000"},
		{name: "port_zero", key: "API_PORT", value: "0"},
		{name: "db_not_numeric", key: "REDIS_DB", value: "primary"},
		{name: "timeout_not_numeric", key: "DELIVERY_TIMEOUT", value: "10s"},
		{name: "timeout_negative", key: "DELIVERY_TIMEOUT", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := assert.New(t)
			t.Setenv(tt.key, tt.value)

			cfg := config.NewDefaultConfig()
			as.Error(cfg.LoadFromEnv())
		})
	}
}

func TestConfigValidation(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()
	cfg.APIPort = 0
	as.ConfigInvalid(cfg, "invalid API port")

	cfg = config.NewDefaultConfig()
	cfg.Store.Prefix = ""
	as.ConfigInvalid(cfg, "prefix empty")

	cfg = config.NewDefaultConfig()
	cfg.Delivery.Endpoint = ""
	as.ConfigInvalid(cfg, "endpoint empty")

	cfg = config.NewDefaultConfig()
	cfg.Delivery.TimeoutMs = 0
	as.ConfigInvalid(cfg, "timeout must be positive")

	cfg = config.NewDefaultConfig()
	cfg.EventChannel = ""
	as.ConfigInvalid(cfg, "event channel empty")
}
