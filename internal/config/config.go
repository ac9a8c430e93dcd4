package config

import (
	"courier-dispatch-service/internal/services"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	DBPath      string
	SeedPath    string
	DatabaseURL string
	RedisURL    string
	RedisTTL    time.Duration

	ORSKey           string
	ORSRatePerMinute int

	Workers    int
	Thresholds services.Thresholds
}

// fileConfig is the optional YAML tuning file named by DISPATCH_CONFIG.
type fileConfig struct {
	Workers    int         `yaml:"workers"`
	Thresholds map[int]int `yaml:"thresholds"`
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// Load reads the service configuration from the environment. DISPATCH_WORKERS
// takes precedence over the workers value of the DISPATCH_CONFIG file.
func Load() (Config, error) {
	cfg := Config{
		Port:        Get("PORT", "8080"),
		DBPath:      Get("DB_PATH", "data/app.db"),
		SeedPath:    Get("SEED_PATH", "data/seeds/shops.json"),
		DatabaseURL: Get("DATABASE_URL", ""),
		RedisURL:    Get("REDIS_URL", ""),
		ORSKey:      Get("ORS_API_KEY", ""),
		Thresholds:  services.DefaultThresholds(),
	}

	var err error
	if cfg.RedisTTL, err = GetDuration("REDIS_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ORSRatePerMinute, err = GetInt("ORS_RATE_PER_MIN", 40); err != nil {
		return Config{}, err
	}

	if path := Get("DISPATCH_CONFIG", ""); path != "" {
		fc, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Workers = fc.Workers
		if cfg.Thresholds, err = cfg.Thresholds.WithOverrides(fc.Thresholds); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if cfg.Workers, err = GetInt("DISPATCH_WORKERS", cfg.Workers); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("config: DISPATCH_WORKERS must not be negative, got %d", cfg.Workers)
	}

	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return fc, nil
}
