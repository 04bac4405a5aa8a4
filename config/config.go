package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	WebSocket WebSocketConfig
	LiveView  LiveViewConfig
	Ledger    LedgerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Pool sizing. Every reserve and contribute holds a connection for the
	// length of its locked transaction.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig controls the cross-instance change relay. When disabled the
// server fans changes out to its own WebSocket hub only.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

type WebSocketConfig struct {
	WriteWait            time.Duration
	PongWait             time.Duration
	SendBuffer           int
	MaxMessagesPerSecond int
}

// LiveViewConfig holds the reconnect policy of viewer sessions.
type LiveViewConfig struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

type LedgerConfig struct {
	AuditSchedule string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "wishlist"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			Channel:  getEnv("REDIS_CHANNEL", "wishlist:changes"),
		},
		WebSocket: WebSocketConfig{
			WriteWait:            parseDuration(getEnv("WS_WRITE_WAIT", "10s"), 10*time.Second),
			PongWait:             parseDuration(getEnv("WS_PONG_WAIT", "60s"), 60*time.Second),
			SendBuffer:           parseInt(getEnv("WS_SEND_BUFFER", "16"), 16),
			MaxMessagesPerSecond: parseInt(getEnv("WS_MAX_MESSAGES_PER_SECOND", "10"), 10),
		},
		LiveView: loadLiveView(),
		Ledger: LedgerConfig{
			AuditSchedule: getEnv("LEDGER_AUDIT_CRON", "@every 1h"),
		},
	}

	if config.Server.Environment == "production" && config.JWT.Secret == "your-secret-key" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return config, nil
}

// LoadLiveView reads only the viewer reconnect policy. Viewer tools use it
// without needing the server's settings.
func LoadLiveView() LiveViewConfig {
	_ = godotenv.Load()
	return loadLiveView()
}

func loadLiveView() LiveViewConfig {
	return LiveViewConfig{
		BaseDelay:   parseDuration(getEnv("LIVEVIEW_BASE_DELAY", "3s"), 3*time.Second),
		MaxAttempts: parseInt(getEnv("LIVEVIEW_MAX_ATTEMPTS", "10"), 10),
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
