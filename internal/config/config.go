package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// mongo
	MongoURI    string `toml:"mongo_uri"`
	MongoDBName string `toml:"mongo_db_name"`
	// redis (login rate limiting)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`
	// auth token lifetime, in days
	TokenTTLDays int `toml:"token_ttl_days"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not found in %s", env, path)
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	return cfg, nil
}
