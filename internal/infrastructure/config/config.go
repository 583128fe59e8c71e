package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	Matching     MatchingConfig     `koanf:"matching"`
	Notification NotificationConfig `koanf:"notification"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL      string `koanf:"url"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// Enables the distributed sweep lease. Leave off for single-instance
	// deployments.
	SweepLockEnabled bool          `koanf:"sweep_lock_enabled"`
	SweepLockTTL     time.Duration `koanf:"sweep_lock_ttl"`
}

// MatchingConfig groups the tunables of the matching core.
type MatchingConfig struct {
	CandidateCap int                       `koanf:"candidate_cap"`
	Scoring      matching.ScoringConfig    `koanf:"scoring"`
	Dispatcher   matching.DispatcherConfig `koanf:"dispatcher"`
	Scheduler    matching.SchedulerConfig  `koanf:"scheduler"`
}

// NotificationConfig points at the downstream notification service that
// renders and delivers per-donor messages.
type NotificationConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:           0,
			SweepLockTTL: 90 * time.Second,
		},
		Matching: MatchingConfig{
			CandidateCap: matching.DefaultCandidateCap,
			Scoring:      matching.DefaultScoringConfig(),
			Dispatcher:   matching.DefaultDispatcherConfig(),
			Scheduler:    matching.DefaultSchedulerConfig(),
		},
		Notification: NotificationConfig{
			Timeout: 10 * time.Second,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional; environment variables still apply.
	if err := k.Load(file.Provider("configs/config.yaml"), yaml.Parser()); err != nil {
		// ignore: deployments without a config file are fine
	}

	if err := k.Load(env.Provider("BDM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "BDM_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
