package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the moderation bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Bot         BotConfig         `mapstructure:"bot" validate:"required"`
	Reports     ReportsConfig     `mapstructure:"reports" validate:"required"`
	Enforcement EnforcementConfig `mapstructure:"enforcement" validate:"required"`
	Admins      AdminsConfig      `mapstructure:"admins"`
	Punishments PunishmentsConfig `mapstructure:"punishments"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Session     SessionConfig     `mapstructure:"session"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	Server      ServerConfig      `mapstructure:"server"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token     string        `mapstructure:"token" validate:"required"`
	Mode      string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ListenURL string        `mapstructure:"listen_url"`
	AppealURL string        `mapstructure:"appeal_url"`
}

// ReportsConfig locates the moderation channel where report cards are posted.
type ReportsConfig struct {
	GroupID int64 `mapstructure:"group_id" validate:"required"`
	TopicID int64 `mapstructure:"topic_id"`
}

// EnforcementConfig locates the managed group where punishments are applied.
type EnforcementConfig struct {
	GroupID int64 `mapstructure:"group_id" validate:"required"`
}

// AdminsConfig is the static admin allow-list seeded at startup.
type AdminsConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// PunishmentsConfig carries display labels and duration bounds.
type PunishmentsConfig struct {
	Labels             map[string]string `mapstructure:"labels"`
	DefaultMuteMinutes int               `mapstructure:"default_mute_minutes"`
	MaxBanDays         int               `mapstructure:"max_ban_days"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`

	MigrationsDir string `mapstructure:"migrations_dir"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// RedisConfig configures the optional Redis backend for sessions and jobs.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig controls the conversation session store.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// JobsConfig controls background maintenance tasks.
type JobsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	MuteSweepSpec     string `mapstructure:"mute_sweep_spec"`
	RedeliverSpec     string `mapstructure:"redeliver_spec"`
	WorkerConcurrency int    `mapstructure:"worker_concurrency"`
}

// ServerConfig configures the metrics/health HTTP listener.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig selects the log output shape.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file"`
}

// SentryConfig enables error reporting to Sentry.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}
