// Package config holds service configuration loaded from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds configuration settings for the service
	Config struct {
		// API server
		APIHost     string
		APIPort     int
		VerifyToken string
		LogLevel    string

		// Store
		Store StoreConfig

		// Delivery
		Delivery DeliveryConfig

		// Events & archiving
		EventChannel     string
		ArchiveBucketURL string
		ArchivePrefix    string

		ShutdownTimeout time.Duration
	}

	// StoreConfig holds Redis connection settings
	StoreConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	// DeliveryConfig holds the outbound messaging endpoint settings
	DeliveryConfig struct {
		Endpoint     string
		Token        string
		FallbackText string
		TimeoutMs    int64
	}
)

const (
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 8080
	MaxTCPPort     = 65535

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisDB     = 0
	DefaultRedisPrefix = "convoflow"

	DefaultDeliveryEndpoint  = "https://graph.facebook.com/v19.0"
	DefaultDeliveryTimeoutMs = 10_000
	MaxDeliveryTimeoutMs     = 5 * 60 * 1000

	DefaultEventChannel    = "convoflow:events"
	DefaultShutdownTimeout = 10 * time.Second
)

var (
	ErrInvalidAPIPort         = errors.New("invalid API port")
	ErrInvalidDeliveryTimeout = errors.New(
		"delivery timeout must be positive",
	)
	ErrDeliveryEndpointEmpty = errors.New("delivery endpoint empty")
	ErrEventChannelEmpty     = errors.New("event channel empty")
	ErrStorePrefixEmpty      = errors.New("store prefix empty")
)

// NewDefaultConfig creates a configuration with sensible defaults for all
// service settings
func NewDefaultConfig() *Config {
	return &Config{
		APIHost: DefaultAPIHost,
		APIPort: DefaultAPIPort,
		Store: StoreConfig{
			Addr:   DefaultRedisAddr,
			DB:     DefaultRedisDB,
			Prefix: DefaultRedisPrefix,
		},
		Delivery: DeliveryConfig{
			Endpoint:  DefaultDeliveryEndpoint,
			TimeoutMs: DefaultDeliveryTimeoutMs,
		},
		EventChannel:    DefaultEventChannel,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        "info",
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("API_HOST"); host != "" {
		c.APIHost = host
	}
	if token := os.Getenv("WEBHOOK_VERIFY_TOKEN"); token != "" {
		c.VerifyToken = token
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Store.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Store.Password = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.Store.Prefix = prefix
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %q", dbStr)
		}
		c.Store.DB = db
	}

	if endpoint := os.Getenv("DELIVERY_ENDPOINT"); endpoint != "" {
		c.Delivery.Endpoint = endpoint
	}
	if token := os.Getenv("DELIVERY_TOKEN"); token != "" {
		c.Delivery.Token = token
	}
	if fallback := os.Getenv("DELIVERY_FALLBACK_TEXT"); fallback != "" {
		c.Delivery.FallbackText = fallback
	}

	if channel := os.Getenv("EVENT_CHANNEL"); channel != "" {
		c.EventChannel = channel
	}
	if bucketURL := os.Getenv("ARCHIVE_BUCKET_URL"); bucketURL != "" {
		c.ArchiveBucketURL = bucketURL
	}
	if prefix := os.Getenv("ARCHIVE_PREFIX"); prefix != "" {
		c.ArchivePrefix = prefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	return loadEnvInt(
		"DELIVERY_TIMEOUT", &c.Delivery.TimeoutMs, 0, MaxDeliveryTimeoutMs,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.Store.Prefix == "" {
		return ErrStorePrefixEmpty
	}
	if c.Delivery.Endpoint == "" {
		return ErrDeliveryEndpointEmpty
	}
	if c.Delivery.TimeoutMs <= 0 {
		return ErrInvalidDeliveryTimeout
	}
	if c.EventChannel == "" {
		return ErrEventChannelEmpty
	}
	return nil
}

// DeliveryTimeout returns the delivery timeout as a duration
func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.Delivery.TimeoutMs) * time.Millisecond
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
