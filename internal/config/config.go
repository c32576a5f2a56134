package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	GCSBucket              string
	GCSCredentialsFile     string
	SignedURLTTL           time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	DashboardCacheTTL      time.Duration
	CommunityCacheTTL      time.Duration
	RateLimitMax           int
	RateLimitWindow        time.Duration
	EventChannelBase       string
	CleanupSubject         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PEERMARK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PeerMark API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "peermark/avatars")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("community.cache_ttl", "1m")
	v.SetDefault("signed_url.ttl", "5m")
	v.SetDefault("rate_limit.max", 120)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("events.channel_base", "peermark")
	v.SetDefault("cleanup.subject", "peermark.storage.cleanup")

	dashboardTTL, err := parseTTL(v.GetString("dashboard.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	communityTTL, err := parseTTL(v.GetString("community.cache_ttl"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid community cache ttl: %w", err)
	}

	signedURLTTL, err := parseTTL(v.GetString("signed_url.ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid signed url ttl: %w", err)
	}

	rateLimitWindow, err := parseTTL(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		GCSBucket:              v.GetString("gcs.bucket"),
		GCSCredentialsFile:     v.GetString("gcs.credentials_file"),
		SignedURLTTL:           signedURLTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		DashboardCacheTTL:      dashboardTTL,
		CommunityCacheTTL:      communityTTL,
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        rateLimitWindow,
		EventChannelBase:       v.GetString("events.channel_base"),
		CleanupSubject:         v.GetString("cleanup.subject"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.GCSBucket == "" {
		return Config{}, fmt.Errorf("gcs bucket must be provided")
	}

	return cfg, nil
}

func parseTTL(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}

	ttl, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	return ttl, nil
}
