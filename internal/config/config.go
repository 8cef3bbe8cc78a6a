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
	AllowOrigins           string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	RealtimeChannel        string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AIProvider             string
	AIAPIKey               string
	AIModel                string
	AIBaseURL              string
	AITimeout              time.Duration
	AIMaxRetries           int
	AITemperature          float32
	AIMaxTokens            int
	AIEnforceWordLimits    bool
	EvaluationDailyQuota   int
	EvaluationRateLimit    int
	RecordingMaxSizeMB     int
	ProgressCacheTTL       time.Duration
	SeedEnabled            bool
	SeedToken              string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
// A missing AI credential is not an error here; evaluation calls report it.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EnglishMastery API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("http.allow_origins", "*")
	v.SetDefault("realtime.channel", "englishmastery")
	v.SetDefault("cloudinary.folder", "englishmastery/recordings")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.enforce_word_limits", false)
	v.SetDefault("evaluation.daily_quota", 20)
	v.SetDefault("evaluation.rate_limit", 5)
	v.SetDefault("recording.max_size_mb", 50)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("progress.cache_ttl", "5m")

	if err := v.BindEnv("ai.api_key", "EM_AI_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind ai api key: %w", err)
	}

	timeout, err := time.ParseDuration(v.GetString("ai.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	progressTTL, err := time.ParseDuration(v.GetString("progress.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AllowOrigins:           v.GetString("http.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		RealtimeChannel:        v.GetString("realtime.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AIProvider:             strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		AIAPIKey:               strings.TrimSpace(v.GetString("ai.api_key")),
		AIModel:                v.GetString("ai.model"),
		AIBaseURL:              v.GetString("ai.base_url"),
		AITimeout:              timeout,
		AIMaxRetries:           v.GetInt("ai.max_retries"),
		AITemperature:          float32(v.GetFloat64("ai.temperature")),
		AIMaxTokens:            v.GetInt("ai.max_tokens"),
		AIEnforceWordLimits:    v.GetBool("ai.enforce_word_limits"),
		EvaluationDailyQuota:   v.GetInt("evaluation.daily_quota"),
		EvaluationRateLimit:    v.GetInt("evaluation.rate_limit"),
		RecordingMaxSizeMB:     v.GetInt("recording.max_size_mb"),
		ProgressCacheTTL:       progressTTL,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AIMaxRetries < 0 {
		cfg.AIMaxRetries = 0
	}

	if cfg.RecordingMaxSizeMB <= 0 {
		cfg.RecordingMaxSizeMB = 50
	}

	return cfg, nil
}
