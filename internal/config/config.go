package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	API          APIConfig
	Session      SessionConfig
	Database     DatabaseConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Search       SearchConfig
	Export       ExportConfig
	Log          LogConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// APIConfig describes the remote billing API
type APIConfig struct {
	BaseURL   string
	Prefix    string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// SessionConfig controls where the session survives restarts
type SessionConfig struct {
	Store           string // file, postgres or memory
	File            string
	Passphrase      string
	Profile         string
	StepUpUsernames []string
	RefreshLeeway   time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type SearchConfig struct {
	Debounce time.Duration
}

type ExportConfig struct {
	Dir string
}

type LogConfig struct {
	Level string
}

type NotificationConfig struct {
	FeedSize int
}

// Load reads configuration from envFile (if present) and the environment
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = ".env"
	}
	// Values already in the environment win over the file.
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: %s not found, using environment variables: %v", envFile, err)
	}

	// Set defaults
	v.SetDefault("APP_NAME", "billdesk")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8090")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("API_TIMEOUT_SECONDS", 0)
	v.SetDefault("API_RATE_LIMIT_RPS", 10)
	v.SetDefault("API_RATE_LIMIT_BURST", 20)
	v.SetDefault("SESSION_STORE", "file")
	v.SetDefault("SESSION_FILE", ".billdesk/session.json")
	v.SetDefault("SESSION_PASSPHRASE", "")
	v.SetDefault("SESSION_PROFILE", "default")
	v.SetDefault("SESSION_STEP_UP_USERNAMES", "admin")
	v.SetDefault("SESSION_REFRESH_LEEWAY_SECONDS", 30)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "billdesk")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("SEARCH_DEBOUNCE_MS", 500)
	v.SetDefault("EXPORT_DIR", "exports")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("NOTIFICATION_FEED_SIZE", 50)

	return &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		API: APIConfig{
			BaseURL:   strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			Prefix:    "/" + strings.Trim(v.GetString("API_PREFIX"), "/"),
			Timeout:   time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
			RateLimit: v.GetFloat64("API_RATE_LIMIT_RPS"),
			Burst:     v.GetInt("API_RATE_LIMIT_BURST"),
		},
		Session: SessionConfig{
			Store:           strings.ToLower(v.GetString("SESSION_STORE")),
			File:            v.GetString("SESSION_FILE"),
			Passphrase:      v.GetString("SESSION_PASSPHRASE"),
			Profile:         v.GetString("SESSION_PROFILE"),
			StepUpUsernames: splitList(v.GetString("SESSION_STEP_UP_USERNAMES")),
			RefreshLeeway:   time.Duration(v.GetInt("SESSION_REFRESH_LEEWAY_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
			Timezone: v.GetString("DB_TIMEZONE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: v.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Search: SearchConfig{
			Debounce: time.Duration(v.GetInt("SEARCH_DEBOUNCE_MS")) * time.Millisecond,
		},
		Export: ExportConfig{
			Dir: v.GetString("EXPORT_DIR"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Notification: NotificationConfig{
			FeedSize: v.GetInt("NOTIFICATION_FEED_SIZE"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
