package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	ProjectsDir        string
	XAIAPIKey          string
	XAIBaseURL         string
	ChatModel          string
	ImageModel         string
	VideoModel         string
	FFmpegPath         string
	MaxUploadBytes     int64
	ImageRetryAttempts int
	ImageRetryDelay    time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. XAI_API_KEY may be empty; a manifest-level key takes
// precedence at phase start and the phase fails when neither is set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		ProjectsDir:        getEnv("PROJECTS_DIR", "./projects"),
		XAIAPIKey:          os.Getenv("XAI_API_KEY"),
		XAIBaseURL:         getEnv("XAI_BASE_URL", "https://api.x.ai/v1"),
		ChatModel:          getEnv("XAI_CHAT_MODEL", "grok-4"),
		ImageModel:         getEnv("XAI_IMAGE_MODEL", "grok-imagine-image"),
		VideoModel:         getEnv("XAI_VIDEO_MODEL", "grok-imagine-video"),
		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 25)) << 20,
		ImageRetryAttempts: getEnvInt("IMAGE_RETRY_ATTEMPTS", 3),
		ImageRetryDelay:    time.Second * time.Duration(getEnvInt("IMAGE_RETRY_DELAY_SECONDS", 2)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.ProjectsDir == "" {
		return nil, fmt.Errorf("PROJECTS_DIR is required")
	}

	if cfg.ImageRetryAttempts < 1 {
		return nil, fmt.Errorf("IMAGE_RETRY_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
