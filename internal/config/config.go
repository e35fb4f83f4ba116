package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// StoreDriver selects the request store: "memory" (default) or "postgres".
	StoreDriver string
	// IDStrategy is "sequence" or "uuid".
	IDStrategy string

	AdminUsername string
	AdminPassword string
	// GoogleEmail is the placeholder identity of the "Continue with Gmail" shortcut.
	GoogleEmail string

	SessionCookie string
	SecureCookie  bool
	// SessionIdleTTL drops sessions unused for this long.
	SessionIdleTTL time.Duration
	// CORSAllowed is a comma-separated origin list. Empty means same-origin
	// only; "*" allows every origin but never with credentials.
	CORSAllowed string

	// SearchServiceURL: when set, requests are sent to search-service for indexing (POST /search/index/ticket).
	SearchServiceURL string

	KafkaBrokers     []string
	KafkaTopicTicket string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		StoreDriver:      getEnv("STORE_DRIVER", StoreMemory),
		IDStrategy:       getEnv("ID_STRATEGY", "sequence"),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "admin123"),
		GoogleEmail:      getEnv("GOOGLE_PLACEHOLDER_EMAIL", "user@gmail.com"),
		SessionCookie:    getEnv("SESSION_COOKIE", "work_buddy_session"),
		SecureCookie:     getEnv("SESSION_SECURE", "false") == "true",
		CORSAllowed:      getEnv("CORS_ALLOWED_ORIGINS", ""),
		SearchServiceURL: getEnv("SEARCH_SERVICE_URL", ""),
		KafkaBrokers:     ParseList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", "work-buddy.requests"),
	}
	ttl, err := time.ParseDuration(getEnv("SESSION_IDLE_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("config: SESSION_IDLE_TTL: %w", err)
	}
	cfg.SessionIdleTTL = ttl
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "work_buddy")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			return errors.New("config: DB_HOST and DB_DATABASE are required for STORE_DRIVER=postgres")
		}
		if c.AppEnv == "production" && c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return errors.New("config: ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}
	if c.SessionCookie == "" {
		return errors.New("config: SESSION_COOKIE must not be empty")
	}
	for _, o := range ParseList(c.CORSAllowed) {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("config: CORS_ALLOWED_ORIGINS entry %q needs an http:// or https:// scheme", o)
		}
	}
	if c.SessionIdleTTL < 0 {
		return errors.New("config: SESSION_IDLE_TTL must not be negative")
	}
	return nil
}

func (c *Config) UsesPostgres() bool {
	return c.StoreDriver == StorePostgres
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// ParseList splits "a:9092, b:9092" into its non-empty parts.
func ParseList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
