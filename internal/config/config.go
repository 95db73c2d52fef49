// ABOUTME: Configuration loading and parsing for handoff-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete handoff-gateway configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	DirectLine  DirectLineConfig  `yaml:"directline"`
	ExternalBot ExternalBotConfig `yaml:"externalbot"`
	Omnichannel OmnichannelConfig `yaml:"omnichannel"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds authentication configuration.
// When JWTSecret is empty the inbound API runs unauthenticated.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// DirectLineConfig holds the channel transport configuration.
// The secret is the Direct Line channel secret supplied out-of-band.
type DirectLineConfig struct {
	Secret        string `yaml:"secret"`
	BaseURL       string `yaml:"base_url"`
	DefaultLocale string `yaml:"default_locale"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// ExternalBotConfig holds the downstream bot endpoint configuration
type ExternalBotConfig struct {
	BaseURL string `yaml:"base_url"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// OmnichannelConfig holds the agent-platform configuration.
// Tokens are fetched from TokenURL via OAuth2 client credentials.
type OmnichannelConfig struct {
	OrgURL       string `yaml:"org_url"`
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	ChannelID    string `yaml:"channel_id"`
	Language     string `yaml:"language"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied after parsing when fields are left empty.
const (
	DefaultDirectLineBaseURL = "https://directline.botframework.com/v3/directline"
	DefaultLocale            = "en-US"
	DefaultChannelID         = "external-relay"
	DefaultRemoteTimeout     = 15 * time.Second
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in optional fields that were left empty.
func (c *Config) applyDefaults() {
	if c.DirectLine.BaseURL == "" {
		c.DirectLine.BaseURL = DefaultDirectLineBaseURL
	}
	if c.DirectLine.DefaultLocale == "" {
		c.DirectLine.DefaultLocale = DefaultLocale
	}
	if c.Omnichannel.ChannelID == "" {
		c.Omnichannel.ChannelID = DefaultChannelID
	}
	if c.Omnichannel.Language == "" {
		c.Omnichannel.Language = DefaultLocale
	}
	if c.DirectLine.Timeout == 0 {
		c.DirectLine.Timeout = DefaultRemoteTimeout
	}
	if c.ExternalBot.Timeout == 0 {
		c.ExternalBot.Timeout = DefaultRemoteTimeout
	}
	if c.Omnichannel.Timeout == 0 {
		c.Omnichannel.Timeout = DefaultRemoteTimeout
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.DirectLine.Secret == "" {
		return fmt.Errorf("directline.secret is required")
	}

	if c.ExternalBot.BaseURL == "" {
		return fmt.Errorf("externalbot.base_url is required")
	}

	if c.Omnichannel.OrgURL == "" {
		return fmt.Errorf("omnichannel.org_url is required")
	}
	if c.Omnichannel.TokenURL == "" {
		return fmt.Errorf("omnichannel.token_url is required")
	}
	if c.Omnichannel.ClientID == "" {
		return fmt.Errorf("omnichannel.client_id is required")
	}
	if c.Omnichannel.ClientSecret == "" {
		return fmt.Errorf("omnichannel.client_secret is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.DirectLine.TimeoutRaw != "" {
		cfg.DirectLine.Timeout, err = time.ParseDuration(cfg.DirectLine.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing directline.timeout %q: %w", cfg.DirectLine.TimeoutRaw, err)
		}
	}

	if cfg.ExternalBot.TimeoutRaw != "" {
		cfg.ExternalBot.Timeout, err = time.ParseDuration(cfg.ExternalBot.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing externalbot.timeout %q: %w", cfg.ExternalBot.TimeoutRaw, err)
		}
	}

	if cfg.Omnichannel.TimeoutRaw != "" {
		cfg.Omnichannel.Timeout, err = time.ParseDuration(cfg.Omnichannel.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing omnichannel.timeout %q: %w", cfg.Omnichannel.TimeoutRaw, err)
		}
	}

	return nil
}
