package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Cache     CacheConfig     `json:"cache"`
	Sheets    SheetsConfig    `json:"sheets"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type AuthConfig struct {
	JWTSecret          string `json:"jwt_secret"`
	JWTExpiryHours     int    `json:"jwt_expiry_hours"`
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	GoogleRedirectURL  string `json:"google_redirect_url"`
	SeaTalkAppID       string `json:"seatalk_app_id"`
	SeaTalkSecret      string `json:"seatalk_secret"`
	QRSessionTTLSec    int    `json:"qr_session_ttl_seconds"`
}

type RateLimitConfig struct {
	WindowMs   int `json:"window_ms"`
	Limit      int `json:"limit"`
	IPWindowMs int `json:"ip_window_ms"`
	IPLimit    int `json:"ip_limit"`
}

type CacheConfig struct {
	MaxEntries int `json:"max_entries"`
}

type SheetsConfig struct {
	APIKey        string `json:"api_key"`
	SpreadsheetID string `json:"spreadsheet_id"`
	Range         string `json:"range"`
	TimeoutSec    int    `json:"timeout_seconds"`
	WebhookSecret string `json:"webhook_secret"`
}

// Loads config from a JSON file, then applies environment overrides.
// Env always wins so deployments can keep secrets out of the file.
func Load(path string) (*Config, error) {
	config := defaults()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := json.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config)

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required (JWT_SECRET)")
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Auth: AuthConfig{
			JWTExpiryHours:  24,
			QRSessionTTLSec: 300,
		},
		RateLimit: RateLimitConfig{
			WindowMs:   60000,
			Limit:      60,
			IPWindowMs: 60000,
			IPLimit:    30,
		},
		Cache: CacheConfig{
			MaxEntries: 5000,
		},
		Sheets: SheetsConfig{
			Range:      "Dispatch!A1:Z",
			TimeoutSec: 15,
		},
	}
}

func applyEnv(config *Config) {
	setString(&config.Server.Port, "PORT")
	setString(&config.Server.Environment, "ENVIRONMENT")
	setString(&config.Database.DSN, "DATABASE_DSN")
	setString(&config.Redis.Host, "REDIS_HOST")
	setString(&config.Redis.Port, "REDIS_PORT")
	setString(&config.Redis.Password, "REDIS_PASSWORD")
	setInt(&config.Redis.DB, "REDIS_DB")
	setString(&config.Auth.JWTSecret, "JWT_SECRET")
	setInt(&config.Auth.JWTExpiryHours, "JWT_EXPIRY_HOURS")
	setString(&config.Auth.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&config.Auth.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&config.Auth.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&config.Auth.SeaTalkAppID, "SEATALK_APP_ID")
	setString(&config.Auth.SeaTalkSecret, "SEATALK_SECRET")
	setInt(&config.Auth.QRSessionTTLSec, "QR_SESSION_TTL_SECONDS")
	setInt(&config.RateLimit.WindowMs, "RATE_LIMIT_WINDOW_MS")
	setInt(&config.RateLimit.Limit, "RATE_LIMIT_MAX")
	setInt(&config.RateLimit.IPWindowMs, "IP_RATE_LIMIT_WINDOW_MS")
	setInt(&config.RateLimit.IPLimit, "IP_RATE_LIMIT_MAX")
	setInt(&config.Cache.MaxEntries, "CACHE_MAX_ENTRIES")
	setString(&config.Sheets.APIKey, "SHEETS_API_KEY")
	setString(&config.Sheets.SpreadsheetID, "SHEETS_SPREADSHEET_ID")
	setString(&config.Sheets.Range, "SHEETS_RANGE")
	setInt(&config.Sheets.TimeoutSec, "SHEETS_TIMEOUT_SECONDS")
	setString(&config.Sheets.WebhookSecret, "SYNC_WEBHOOK_SECRET")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMs) * time.Millisecond
}

func (c *Config) IPRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.IPWindowMs) * time.Millisecond
}

func (c *Config) SheetsTimeout() time.Duration {
	return time.Duration(c.Sheets.TimeoutSec) * time.Second
}

func (c *Config) QRSessionTTL() time.Duration {
	return time.Duration(c.Auth.QRSessionTTLSec) * time.Second
}
