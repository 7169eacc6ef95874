package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	ListenAddr    string
	LogLevel      string
	CatalogFile   string
	RemoteTimeout time.Duration
	SessionIdle   time.Duration
	CookieSecure  bool

	Google  OAuthClient
	Outlook OAuthClient

	TelegramToken  string
	TelegramChatID int64
	AIAPIKey       string
	AIBaseURL      string
	AIModel        string
}

// OAuthClient is one provider's app registration. TenantID is only used by
// Outlook.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TenantID     string
}

func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	return &Config{
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		ListenAddr:    getEnvOrDefault("LISTEN_ADDR", "127.0.0.1:8080"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		CatalogFile:   os.Getenv("CATALOG_FILE"),
		RemoteTimeout: getDurationOrDefault("REMOTE_TIMEOUT", 10*time.Second),
		SessionIdle:   getDurationOrDefault("SESSION_IDLE", 12*time.Hour),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",
		Google: OAuthClient{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  getEnvOrDefault("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/google/callback"),
		},
		Outlook: OAuthClient{
			ClientID:     os.Getenv("OUTLOOK_CLIENT_ID"),
			ClientSecret: os.Getenv("OUTLOOK_CLIENT_SECRET"),
			RedirectURL:  getEnvOrDefault("OUTLOOK_REDIRECT_URI", "http://localhost:8080/auth/outlook/callback"),
			TenantID:     getEnvOrDefault("OUTLOOK_TENANT_ID", "common"),
		},
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: getInt64OrDefault("TELEGRAM_CHAT_ID", 0),
		AIAPIKey:       os.Getenv("AI_API_KEY"),
		AIBaseURL:      getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:        getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return defaultValue
}
