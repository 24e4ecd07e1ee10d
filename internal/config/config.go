package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageBackendMemory = "memory"
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
)

type Config struct {
	ListenAddr      string         `yaml:"listen_addr"`
	MetricsAddr     string         `yaml:"metrics_addr"`
	DefaultCurrency string         `yaml:"default_currency"`
	SigningSecret   string         `yaml:"signing_secret"`
	Storage         StorageConfig  `yaml:"storage"`
	Interest        InterestConfig `yaml:"interest"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Dir       string `yaml:"dir"`
	RedisAddr string `yaml:"redis_addr"`
}

type InterestConfig struct {
	Enabled           bool     `yaml:"enabled"`
	AnnualRatePercent float64  `yaml:"annual_rate_percent"`
	Interval          Duration `yaml:"interval"`
}

// Duration lets YAML carry values like "30m" or "720h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func defaults() Config {
	return Config{
		ListenAddr:      ":8080",
		MetricsAddr:     ":9090",
		DefaultCurrency: "SEK",
		Storage: StorageConfig{
			Backend: StorageBackendFile,
			Dir:     "data",
		},
		Interest: InterestConfig{
			Enabled:           false,
			AnnualRatePercent: 2.0,
			Interval:          Duration(30 * 24 * time.Hour),
		},
	}
}

// Load reads the YAML config at path, falling back to defaults when the file
// is absent, then applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	switch cfg.Storage.Backend {
	case StorageBackendMemory, StorageBackendFile, StorageBackendRedis:
	default:
		return cfg, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BANKAPP_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BANKAPP_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("BANKAPP_DEFAULT_CURRENCY"); v != "" {
		cfg.DefaultCurrency = v
	}
	if v := os.Getenv("BANKAPP_SIGNING_SECRET"); v != "" {
		cfg.SigningSecret = v
	}
	if v := os.Getenv("BANKAPP_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("BANKAPP_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("BANKAPP_REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("BANKAPP_INTEREST_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Interest.Enabled = enabled
		}
	}
	if v := os.Getenv("BANKAPP_INTEREST_ANNUAL_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Interest.AnnualRatePercent = rate
		}
	}
	if v := os.Getenv("BANKAPP_INTEREST_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			cfg.Interest.Interval = Duration(interval)
		}
	}
}
