package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultMaxFileSize is the upload ceiling for a single drawing.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Session  SessionConfig
	Uploads  UploadsConfig
	Previews PreviewsConfig
	Reports  ReportsConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig controls wizard session tokens and idle expiry.
type SessionConfig struct {
	Secret          string
	TTL             time.Duration
	MaxAge          time.Duration
	CleanupInterval time.Duration
	CookieName      string
	JanitorWorkers  int
}

// UploadsConfig bounds accepted drawings.
type UploadsConfig struct {
	MaxFileSizeBytes int64
}

// PreviewsConfig governs preview URLs and thumbnails.
type PreviewsConfig struct {
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxWidth         int
	EnableThumbnails bool
}

// ReportsConfig toggles the redis-backed report cache.
type ReportsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Session = SessionConfig{
		Secret:          v.GetString("SESSION_SECRET"),
		TTL:             parseDuration(v.GetString("SESSION_TTL"), 2*time.Hour),
		MaxAge:          parseDuration(v.GetString("SESSION_MAX_AGE"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SESSION_CLEANUP_INTERVAL"), 5*time.Minute),
		CookieName:      v.GetString("SESSION_COOKIE_NAME"),
		JanitorWorkers:  v.GetInt("JANITOR_WORKERS"),
	}

	maxFileSize := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	cfg.Uploads = UploadsConfig{MaxFileSizeBytes: maxFileSize}

	cfg.Previews = PreviewsConfig{
		SignedURLSecret:  v.GetString("PREVIEW_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("PREVIEW_SIGNED_URL_TTL"), 2*time.Hour),
		MaxWidth:         v.GetInt("PREVIEW_MAX_WIDTH"),
		EnableThumbnails: v.GetBool("ENABLE_THUMBNAILS"),
	}

	cfg.Reports = ReportsConfig{
		CacheEnabled: v.GetBool("ENABLE_REPORT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("REPORT_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("SESSION_MAX_AGE", "24h")
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "5m")
	v.SetDefault("SESSION_COOKIE_NAME", "wizard_session")
	v.SetDefault("JANITOR_WORKERS", 1)

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", DefaultMaxFileSize)

	v.SetDefault("PREVIEW_SIGNED_URL_SECRET", "dev_preview_secret")
	v.SetDefault("PREVIEW_SIGNED_URL_TTL", "2h")
	v.SetDefault("PREVIEW_MAX_WIDTH", 640)
	v.SetDefault("ENABLE_THUMBNAILS", true)

	v.SetDefault("ENABLE_REPORT_CACHE", false)
	v.SetDefault("REPORT_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
