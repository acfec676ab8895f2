package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string        `mapstructure:"LISTEN_ADDR"`
	Port              string        `mapstructure:"PORT"`
	DatabaseDriver    string        `mapstructure:"DATABASE_DRIVER"`
	DatabasePath      string        `mapstructure:"DATABASE_PATH"`
	DatabaseDSN       string        `mapstructure:"DATABASE_DSN"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	GinMode           string        `mapstructure:"GIN_MODE"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
	PostsPerPage      int           `mapstructure:"POSTS_PER_PAGE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	SuperRootUserName string        `mapstructure:"SUPER_ROOT_USER_NAME"`
	SuperRootPassword string        `mapstructure:"SUPER_ROOT_PASSWORD"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"LISTEN_ADDR",
	"PORT",
	"DATABASE_DRIVER",
	"DATABASE_PATH",
	"DATABASE_DSN",
	"SESSION_SECRET",
	"GIN_MODE",
	"REDIS_URL",
	"CACHE_TTL",
	"POSTS_PER_PAGE",
	"LOG_LEVEL",
	"SUPER_ROOT_USER_NAME",
	"SUPER_ROOT_PASSWORD",
	"SHUTDOWN_TIMEOUT",
}

// Load reads yatube.yml (optional), .env (optional) and the environment,
// filling safe defaults for anything missing.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.String("reason", err.Error()))
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("yatube")
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (AppConfig, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "yatube.db")
	v.SetDefault("SESSION_SECRET", "yatube-dev-secret")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("POSTS_PER_PAGE", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return AppConfig{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.SuperRootUserName = strings.TrimSpace(cfg.SuperRootUserName)
	cfg.SuperRootPassword = strings.TrimSpace(cfg.SuperRootPassword)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)

	if cfg.PostsPerPage <= 0 {
		cfg.PostsPerPage = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return AppConfig{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDriver == "postgres" && strings.TrimSpace(cfg.DatabaseDSN) == "" {
		return AppConfig{}, errors.New("DATABASE_DSN is required for the postgres driver")
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
