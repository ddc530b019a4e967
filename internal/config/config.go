package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baaakgun4543/unlurk/internal/provider"
)

// Config holds all application configuration.
type Config struct {
	Port         int           `yaml:"port"`
	Provider     string        `yaml:"provider"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"base_url"`
	TemplatePath string        `yaml:"template_path"`
	ServerAPIKey string        `yaml:"server_api_key"`
	CORSOrigin   string        `yaml:"cors_origin"`
	RateLimit    int           `yaml:"rate_limit"`
	RateWindow   time.Duration `yaml:"rate_window"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	Timeout      time.Duration `yaml:"request_timeout"`
	AMQPURL      string        `yaml:"amqp_url"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
}

func defaults() Config {
	return Config{
		Port:         8090,
		CORSOrigin:   "*",
		RateLimit:    10,
		RateWindow:   time.Minute,
		MaxBodyBytes: 64 * 1024,
		Timeout:      65 * time.Second,
		LogLevel:     "info",
		LogFormat:    "auto",
	}
}

// Load reads configuration from a YAML file (if path is non-empty), then
// applies UNLURK_* environment overrides. An empty path returns defaults
// plus env overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"UNLURK_PROVIDER":       &cfg.Provider,
		"UNLURK_API_KEY":        &cfg.APIKey,
		"UNLURK_MODEL":          &cfg.Model,
		"UNLURK_BASE_URL":       &cfg.BaseURL,
		"UNLURK_TEMPLATE_PATH":  &cfg.TemplatePath,
		"UNLURK_SERVER_API_KEY": &cfg.ServerAPIKey,
		"UNLURK_CORS_ORIGIN":    &cfg.CORSOrigin,
		"UNLURK_AMQP_URL":       &cfg.AMQPURL,
		"UNLURK_LOG_LEVEL":      &cfg.LogLevel,
		"UNLURK_LOG_FORMAT":     &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"UNLURK_PORT":       &cfg.Port,
		"UNLURK_RATE_LIMIT": &cfg.RateLimit,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("UNLURK_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid UNLURK_MAX_BODY_BYTES %q: %w", v, err)
		}
		cfg.MaxBodyBytes = n
	}

	durations := map[string]*time.Duration{
		"UNLURK_RATE_WINDOW":     &cfg.RateWindow,
		"UNLURK_REQUEST_TIMEOUT": &cfg.Timeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: invalid %s %q: %w", key, v, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if _, err := provider.ParseBackend(c.Provider); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: rate_limit must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("config: rate_window must be positive, got %s", c.RateWindow)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("config: log_format must be auto, console or json, got %q", c.LogFormat)
	}
	return nil
}

// ProviderConfig maps the file settings onto a dispatcher configuration.
// Validate has already rejected unknown provider tags.
func (c Config) ProviderConfig() provider.Config {
	b, _ := provider.ParseBackend(c.Provider)
	return provider.Config{
		Provider: b,
		APIKey:   c.APIKey,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
	}
}

// Template returns the custom prompt template, or "" when none is configured.
func (c Config) Template() (string, error) {
	if c.TemplatePath == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("config: read template: %w", err)
	}
	return string(data), nil
}
