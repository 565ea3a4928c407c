// Package config loads the formsync service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Form    FormConfig    `yaml:"form"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host" validate:"required"`
	Port         int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxUpload    int64         `yaml:"max_upload" validate:"min=1"`
}

// FormConfig points at the form document and describes how it is read.
type FormConfig struct {
	Document    string `yaml:"document" validate:"required"`
	Title       string `yaml:"title"`
	Section     string `yaml:"section" validate:"required"`
	// MergePolicy decides how GET /values resolves keys two fields share.
	MergePolicy string `yaml:"merge_policy" validate:"omitempty,oneof=last-write-wins lww strict"`
	// TemplatesDir holds page templates that take precedence over the
	// embedded ones.
	TemplatesDir string `yaml:"templates_dir"`
	Sanitize    bool   `yaml:"sanitize"`
	Minify      bool   `yaml:"minify"`
	Watch       bool   `yaml:"watch"`
}

// StoreConfig configures where submissions are kept.
type StoreConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"startswith=/"`
}

var validate = validator.New()

// Load reads configuration from a YAML file, applies FORMSYNC_* environment
// overrides and defaults, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Metrics: MetricsConfig{Enabled: true}, Form: FormConfig{Watch: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(&cfg)
}

// LoadFromEnv builds the configuration from environment variables alone.
//
//	FORMSYNC_FORM_DOCUMENT   - form document path (required)
//	FORMSYNC_FORM_SECTION    - section selector (default: .resmodData)
//	FORMSYNC_SERVER_PORT     - server port (default: 8080)
//	FORMSYNC_STORE_DIR       - submission directory (default: submissions)
//	FORMSYNC_LOG_LEVEL       - debug, info, warn, error (default: info)
//	FORMSYNC_LOG_FORMAT      - json or console (default: json)
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}, Form: FormConfig{Watch: true}}
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists, the environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	if os.Getenv("FORMSYNC_FORM_DOCUMENT") != "" {
		return LoadFromEnv()
	}
	return nil, errors.New("no configuration found: provide a config file or set FORMSYNC_FORM_DOCUMENT")
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMSYNC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FORMSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FORMSYNC_FORM_DOCUMENT"); v != "" {
		cfg.Form.Document = v
	}
	if v := os.Getenv("FORMSYNC_FORM_SECTION"); v != "" {
		cfg.Form.Section = v
	}
	if v := os.Getenv("FORMSYNC_FORM_MERGE_POLICY"); v != "" {
		cfg.Form.MergePolicy = v
	}
	if v := os.Getenv("FORMSYNC_FORM_TEMPLATES_DIR"); v != "" {
		cfg.Form.TemplatesDir = v
	}
	if v := os.Getenv("FORMSYNC_FORM_SANITIZE"); v != "" {
		cfg.Form.Sanitize = parseBool(v)
	}
	if v := os.Getenv("FORMSYNC_FORM_WATCH"); v != "" {
		cfg.Form.Watch = parseBool(v)
	}
	if v := os.Getenv("FORMSYNC_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := os.Getenv("FORMSYNC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMSYNC_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FORMSYNC_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUpload == 0 {
		cfg.Server.MaxUpload = 10 << 20
	}
	if cfg.Form.Section == "" {
		cfg.Form.Section = ".resmodData"
	}
	if cfg.Form.Title == "" {
		cfg.Form.Title = "formsync"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "submissions"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
