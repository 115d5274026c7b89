// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from YAML files and environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// missing env files are fine outside local development
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

// WatchLogLevel re-reads the config file on change and reports the new log level.
func WatchLogLevel(v *viper.Viper, onChange func(level string)) {
	if v == nil || onChange == nil {
		return
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		onChange(v.GetString("logger.level"))
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.timeout", 10*time.Second)
	v.SetDefault("bot.appeal_url", "")

	v.SetDefault("reports.topic_id", 0)

	v.SetDefault("punishments.labels", map[string]string{
		"mute": "Мут",
		"kick": "Кик",
		"ban":  "Бан",
	})
	v.SetDefault("punishments.default_mute_minutes", 60)
	v.SetDefault("punishments.max_ban_days", 365)

	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_dir", "migrations")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", 5*time.Minute)

	v.SetDefault("jobs.enabled", false)
	v.SetDefault("jobs.mute_sweep_spec", "*/10 * * * *")
	v.SetDefault("jobs.redeliver_spec", "*/5 * * * *")
	v.SetDefault("jobs.worker_concurrency", 4)

	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}
