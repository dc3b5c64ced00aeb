// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Database DatabaseConfig `mapstructure:"database"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	PollTimeout int    `mapstructure:"poll_timeout"` // seconds
}

// GeminiConfig holds the remote understanding service settings.
// APIKeys is ordered; rotation follows slice order.
type GeminiConfig struct {
	BaseURL       string   `mapstructure:"base_url"`
	Model         string   `mapstructure:"model"`
	APIKeys       []string `mapstructure:"api_keys"`
	Timeout       int      `mapstructure:"timeout"` // milliseconds
	QuotaKeywords []string `mapstructure:"quota_keywords"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RatesConfig holds settings for the USD price source.
type RatesConfig struct {
	SourceURL     string `mapstructure:"source_url"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	FallbackPrice int64  `mapstructure:"fallback_price"`
}

// DefaultsConfig holds per-user defaults applied on first contact.
type DefaultsConfig struct {
	Language string `mapstructure:"language"` // fa | en
	Currency string `mapstructure:"currency"` // toman | dollar
	Calendar string `mapstructure:"calendar"` // jalali | gregorian
}

// AdminConfig restricts admin operations to listed user IDs.
type AdminConfig struct {
	UserIDs []int64 `mapstructure:"user_ids"`
}

// IsAdmin reports whether the given user is an administrator.
func (a AdminConfig) IsAdmin(userID int64) bool {
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type ServerConfig struct {
	MetricsPort int `mapstructure:"metrics_port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
