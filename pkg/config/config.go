package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessor helpers.
//
// Example (~/.talkitout/config.yaml):
//
// server:
//   host: 127.0.0.1
//   port: 8088
// database:
//   path: /var/lib/talkitout/talkitout.db
// models:
//   mediator:
//     provider: openai
//     model: gpt-4o-mini
//     api_key: sk-...
//   safety:
//     provider: openai
//     model: gpt-4o-mini
// redis:
//   addr: 127.0.0.1:6379
// invite:
//   ttl_hours: 24
//   base_url: http://127.0.0.1:8088
// presence:
//   window_seconds: 120
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
// - TALKITOUT_* environment variables override file values.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Models   ModelsConfig   `yaml:"models"`
	Redis    RedisConfig    `yaml:"redis"`
	Invite   InviteConfig   `yaml:"invite"`
	Presence PresenceConfig `yaml:"presence"`
}

type ServerConfig struct {
	Host *string `yaml:"host"`
	Port *int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path *string `yaml:"path"`
}

// ModelConfig selects a completion provider.
type ModelConfig = models.ModelConfig

type ModelsConfig struct {
	Mediator ModelConfig  `yaml:"mediator"`
	Safety   *ModelConfig `yaml:"safety,omitempty"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

type InviteConfig struct {
	TTLHours *int    `yaml:"ttl_hours"`
	BaseURL  *string `yaml:"base_url"`
}

type PresenceConfig struct {
	WindowSeconds *int `yaml:"window_seconds"`
}

// envOverrides are applied on top of the YAML file.
type envOverrides struct {
	Port          *int    `env:"TALKITOUT_PORT"`
	DBPath        *string `env:"TALKITOUT_DB_PATH"`
	ModelProvider string  `env:"TALKITOUT_MODEL_PROVIDER"`
	Model         string  `env:"TALKITOUT_MODEL"`
	ModelAPIKey   string  `env:"TALKITOUT_MODEL_API_KEY"`
	ModelBaseURL  string  `env:"TALKITOUT_MODEL_BASE_URL"`
	RedisAddr     string  `env:"TALKITOUT_REDIS_ADDR"`
}

const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 8088
	DefaultDatabaseFile      = "talkitout.db"
	DefaultProvider          = "openai"
	DefaultModel             = "gpt-4o-mini"
	DefaultInviteTTLHours    = 24
	MaxInviteTTLHours        = 168
	DefaultPresenceWindowSec = 120
)

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".talkitout")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// Load reads ~/.talkitout/config.yaml and applies environment overrides.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", err
	}

	if strings.TrimSpace(cfg.Host()) == "" {
		return nil, "", fmt.Errorf("invalid server.host (empty) in %s", configFile)
	}
	if port := cfg.Port(); port < 1 || port > 65535 {
		return nil, "", fmt.Errorf("invalid server.port %d in %s", port, configFile)
	}
	if cfg.Invite.TTLHours != nil && (*cfg.Invite.TTLHours < 1 || *cfg.Invite.TTLHours > MaxInviteTTLHours) {
		return nil, "", fmt.Errorf("invalid invite.ttl_hours %d in %s", *cfg.Invite.TTLHours, configFile)
	}

	return cfg, configFile, nil
}

func (c *AppConfig) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if o.Port != nil {
		c.Server.Port = o.Port
	}
	if o.DBPath != nil {
		c.Database.Path = o.DBPath
	}
	if o.ModelProvider != "" {
		c.Models.Mediator.Provider = o.ModelProvider
	}
	if o.Model != "" {
		c.Models.Mediator.Model = o.Model
	}
	if o.ModelAPIKey != "" {
		c.Models.Mediator.ApiKey = o.ModelAPIKey
	}
	if o.ModelBaseURL != "" {
		c.Models.Mediator.BaseUrl = o.ModelBaseURL
	}
	if o.RedisAddr != "" {
		c.Redis.Addr = o.RedisAddr
	}
	return nil
}

// EnsureDefaultConfig writes a default config file if it doesn't already exist.
// It is safe to call on startup.
func EnsureDefaultConfig() (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configFile); err == nil {
		return configFile, nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}

	defaultCfg := AppConfig{
		Server:   ServerConfig{Host: ptr(DefaultHost), Port: ptr(DefaultPort)},
		Database: DatabaseConfig{Path: ptr(filepath.Join(configDir, DefaultDatabaseFile))},
		Models: ModelsConfig{
			Mediator: ModelConfig{Provider: DefaultProvider, Model: DefaultModel},
		},
		Invite:   InviteConfig{TTLHours: ptr(DefaultInviteTTLHours)},
		Presence: PresenceConfig{WindowSeconds: ptr(DefaultPresenceWindowSec)},
	}
	b, err := yaml.Marshal(&defaultCfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	// Holds API keys once edited.
	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write default config file %s: %w", configFile, err)
	}

	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil || c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil || c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

// DatabasePath defaults to talkitout.db next to the config file.
func (c *AppConfig) DatabasePath() string {
	if c != nil && c.Database.Path != nil && strings.TrimSpace(*c.Database.Path) != "" {
		return *c.Database.Path
	}
	configDir, _, err := DefaultPaths()
	if err != nil {
		return DefaultDatabaseFile
	}
	return filepath.Join(configDir, DefaultDatabaseFile)
}

// MediatorModel returns the model used for mediated replies.
func (c *AppConfig) MediatorModel() ModelConfig {
	if c == nil {
		return ModelConfig{Provider: DefaultProvider, Model: DefaultModel}
	}
	m := c.Models.Mediator
	if m.Provider == "" {
		m.Provider = DefaultProvider
	}
	if m.Model == "" {
		m.Model = DefaultModel
	}
	return m
}

// SafetyModel returns the classifier model, falling back to the mediator model.
func (c *AppConfig) SafetyModel() ModelConfig {
	if c == nil || c.Models.Safety == nil || c.Models.Safety.Provider == "" {
		return c.MediatorModel()
	}
	m := *c.Models.Safety
	if m.Model == "" {
		m.Model = c.MediatorModel().Model
	}
	return m
}

func (c *AppConfig) RedisEnabled() bool {
	return c != nil && strings.TrimSpace(c.Redis.Addr) != ""
}

func (c *AppConfig) InviteTTL() time.Duration {
	hours := DefaultInviteTTLHours
	if c != nil && c.Invite.TTLHours != nil {
		hours = *c.Invite.TTLHours
	}
	return time.Duration(hours) * time.Hour
}

// InviteBaseURL is the public origin used to build invite links.
func (c *AppConfig) InviteBaseURL() string {
	if c != nil && c.Invite.BaseURL != nil && strings.TrimSpace(*c.Invite.BaseURL) != "" {
		return strings.TrimRight(strings.TrimSpace(*c.Invite.BaseURL), "/")
	}
	return fmt.Sprintf("http://%s:%d", c.Host(), c.Port())
}

func (c *AppConfig) PresenceWindow() time.Duration {
	secs := DefaultPresenceWindowSec
	if c != nil && c.Presence.WindowSeconds != nil && *c.Presence.WindowSeconds > 0 {
		secs = *c.Presence.WindowSeconds
	}
	return time.Duration(secs) * time.Second
}

func ptr[T any](v T) *T { return &v }
