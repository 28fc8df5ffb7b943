// Package config управляет конфигурацией сервера синхронизации.
//
// Источники в порядке приоритета:
//  1. Флаги командной строки
//  2. Переменные окружения
//  3. Значения по умолчанию
//
// Переменные окружения:
//   - LOCLATE_ADDR: адрес HTTP сервера
//   - LOCLATE_DB: путь к файлу SQLite
//   - LOCLATE_JWT_SECRET: секрет подписи токенов (обязателен)
//   - LOCLATE_LOG_LEVEL: debug, info, warn или error
//   - LOCLATE_DEFAULT_LANGUAGE: язык проекта по умолчанию
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/loclate/loclate/internal/validation"
)

// Config holds all server settings.
type Config struct {
	Addr            string
	DBPath          string
	JWTSecret       string
	LogLevel        string
	DefaultLanguage string
}

// NewConfig creates a config with defaults.
// Секрет умолчания не имеет: без него сервер не стартует.
func NewConfig() *Config {
	return &Config{
		Addr:            ":8080",
		DBPath:          "loclate.db",
		LogLevel:        "info",
		DefaultLanguage: "en",
	}
}

// LoadFromEnv перекрывает значения переменными окружения.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("LOCLATE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LOCLATE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("LOCLATE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("LOCLATE_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LOCLATE_DEFAULT_LANGUAGE"); v != "" {
		c.DefaultLanguage = v
	}
}

// RegisterFlags привязывает настройки к флагам командной строки.
// Вызывается до fs.Parse; флаги имеют высший приоритет.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "path to SQLite database file")
	fs.StringVar(&c.JWTSecret, "jwt-secret", c.JWTSecret, "JWT signing secret")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.DefaultLanguage, "default-language", c.DefaultLanguage, "fallback default language")
}

// Validate проверяет полноту и согласованность настроек.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (use --jwt-secret or LOCLATE_JWT_SECRET)")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if err := validation.ValidateLanguage(c.DefaultLanguage); err != nil {
		return fmt.Errorf("default language: %w", err)
	}
	return nil
}

// SlogLevel переводит текстовый уровень в slog.Level.
func (c *Config) SlogLevel() slog.Level {
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
