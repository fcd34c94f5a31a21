package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rglonek/logger"
	"gopkg.in/yaml.v3"
)

// EnvPath overrides the config file location.
const EnvPath = "NAT_CONVERT_CONFIG"

const (
	defaultPollInterval   = 5 * time.Second
	minPollInterval       = 1 * time.Second
	defaultMaxSelections  = 3
	defaultGatewayPrefix  = "nat-convert"
	defaultLogLevelString = "info"
)

// Config holds optional defaults loaded from ~/.config/nat-convert/config.yaml.
type Config struct {
	DefaultProfile string `yaml:"default_profile"`
	DefaultRegion  string `yaml:"default_region"`

	// PollIntervalSeconds is the gap between NAT gateway readiness checks.
	PollIntervalSeconds int `yaml:"poll_interval"`
	// WaitTimeoutSeconds bounds the readiness wait; 0 waits indefinitely.
	WaitTimeoutSeconds int `yaml:"wait_timeout"`

	LogLevelName              string `yaml:"log_level"`
	MaxSelectionAttempts      int    `yaml:"max_selection_attempts"`
	SkipCreateOnDeleteFailure bool   `yaml:"skip_create_on_delete_failure"`
	GatewayNamePrefix         string `yaml:"gateway_name_prefix"`
}

// Path returns the config file location, honouring NAT_CONVERT_CONFIG.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nat-convert", "config.yaml"), nil
}

// Load reads the config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, err := ParseLogLevel(cfg.LogLevelName); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// PollInterval returns the configured poll interval, falling back to 5s and
// never going below 1s.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds == 0 {
		return defaultPollInterval
	}
	d := time.Duration(c.PollIntervalSeconds) * time.Second
	if d < minPollInterval {
		return minPollInterval
	}
	return d
}

func (c *Config) WaitTimeout() time.Duration {
	if c.WaitTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

func (c *Config) MaxSelections() int {
	if c.MaxSelectionAttempts <= 0 {
		return defaultMaxSelections
	}
	return c.MaxSelectionAttempts
}

func (c *Config) GatewayPrefix() string {
	if c.GatewayNamePrefix == "" {
		return defaultGatewayPrefix
	}
	return c.GatewayNamePrefix
}

// LogLevel resolves the level name, with flag taking precedence over the
// config file.
func (c *Config) LogLevel(flag string) (logger.LogLevel, error) {
	name := c.LogLevelName
	if flag != "" {
		name = flag
	}
	return ParseLogLevel(name)
}

// ParseLogLevel maps a level name to a logger level. An empty name is info.
func ParseLogLevel(name string) (logger.LogLevel, error) {
	if name == "" {
		name = defaultLogLevelString
	}
	switch strings.ToLower(name) {
	case "critical":
		return logger.CRITICAL, nil
	case "error":
		return logger.ERROR, nil
	case "warn", "warning":
		return logger.WARNING, nil
	case "info":
		return logger.INFO, nil
	case "debug":
		return logger.DEBUG, nil
	case "detail":
		return logger.DETAIL, nil
	}
	return logger.INFO, fmt.Errorf("unknown log level %q", name)
}
