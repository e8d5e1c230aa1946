package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string

	LogLevel string
	Debug    bool

	PreferIPv4 bool
	WebAddr    string

	PreviewDebounce    time.Duration
	MediaGroupDebounce time.Duration
	MaxConcurrent      int
	RequestTimeout     time.Duration
	HTTPTimeout        time.Duration
	SessionTTL         time.Duration

	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiTextModel  string
	GeminiImageModel string
	ImagenModel      string
	GeminiMaxRetries int

	MaxImageDimension int
	JPEGQuality       int
}

// Load reads the environment. Only the Gemini key is required here; front
// ends check their own credentials with RequireTelegram.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		PreviewDebounce:    time.Duration(getEnvInt("PREVIEW_DEBOUNCE_MS", 1500)) * time.Millisecond,
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		GeminiBaseURL:      strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/")),
		GeminiAPIVersion:   strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		GeminiTextModel:    getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		ImagenModel:        getEnv("IMAGEN_MODEL", "imagen-4.0-generate-001"),
		GeminiMaxRetries:   getEnvInt("GEMINI_MAX_RETRIES", 3),
		MaxImageDimension:  getEnvInt("MAX_IMAGE_DIMENSION", 1024),
		JPEGQuality:        getEnvInt("JPEG_QUALITY", 90),
	}

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.PreviewDebounce <= 0 {
		cfg.PreviewDebounce = 1500 * time.Millisecond
	}
	if cfg.MediaGroupDebounce <= 0 {
		cfg.MediaGroupDebounce = 1200 * time.Millisecond
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.GeminiMaxRetries < 1 {
		cfg.GeminiMaxRetries = 1
	}
	if cfg.MaxImageDimension < 1 {
		cfg.MaxImageDimension = 1024
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}

	return cfg, nil
}

func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
