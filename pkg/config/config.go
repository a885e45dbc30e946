package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultDeveloperMessage = "You are a helpful Bitcoin and NYDIG assistant. Maintain context based on the conversation history provided."
	DefaultWelcomeMessage   = "Welcome to the NYDIG Bitcoin Chat! Ask me anything about Bitcoin, NYDIG, or the API."
	DefaultModel            = "gpt-4.1-mini"
	DefaultEndpointPath     = "/api/chat"
)

// Config represents the application configuration
type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EndpointConfig describes the chat endpoint the client posts to
type EndpointConfig struct {
	URL        string        `mapstructure:"url"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	APIKeyFile string        `mapstructure:"api_key_file"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ChatConfig holds the conversation defaults
type ChatConfig struct {
	Title            string `mapstructure:"title"`
	Model            string `mapstructure:"model"`
	DeveloperMessage string `mapstructure:"developer_message"`
	WelcomeMessage   string `mapstructure:"welcome_message"`
	Markdown         bool   `mapstructure:"markdown"`
}

// RelayConfig holds the settings of the development relay server
type RelayConfig struct {
	Addr        string        `mapstructure:"addr"`
	Generator   string        `mapstructure:"generator"` // echo, openai, langchain
	Backend     string        `mapstructure:"backend"`   // langchain backend: openai, ollama
	UpstreamURL string        `mapstructure:"upstream_url"`
	APIKey      string        `mapstructure:"api_key"`
	EchoDelay   time.Duration `mapstructure:"echo_delay"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile string `mapstructure:"log_file"`
	Persist bool   `mapstructure:"persist"`
	Level   string `mapstructure:"level"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.oracle")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "oracle"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("ORACLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvironmentVariables()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := loaded.validate(); err != nil {
		return nil, err
	}

	cfg = loaded
	return cfg, nil
}

// SetDefaults registers every default configuration value
func SetDefaults() {
	viper.SetDefault("endpoint.url", DefaultEndpointPath)
	viper.SetDefault("endpoint.base_url", "http://localhost:8000")
	viper.SetDefault("endpoint.api_key", "")
	viper.SetDefault("endpoint.api_key_file", "")
	viper.SetDefault("endpoint.timeout", "0s")

	viper.SetDefault("chat.title", "Oracle of Satoshi")
	viper.SetDefault("chat.model", DefaultModel)
	viper.SetDefault("chat.developer_message", DefaultDeveloperMessage)
	viper.SetDefault("chat.welcome_message", DefaultWelcomeMessage)
	viper.SetDefault("chat.markdown", true)

	viper.SetDefault("relay.addr", ":8000")
	viper.SetDefault("relay.generator", "echo")
	viper.SetDefault("relay.backend", "openai")
	viper.SetDefault("relay.upstream_url", "")
	viper.SetDefault("relay.api_key", "")
	viper.SetDefault("relay.echo_delay", "20ms")

	viper.SetDefault("logging.log_file", "./.oracle/system.log")
	viper.SetDefault("logging.persist", false)
	viper.SetDefault("logging.level", "info")
}

// bindEnvironmentVariables maps the well known variables onto config keys.
// The first variable that is set wins.
func bindEnvironmentVariables() {
	viper.BindEnv("endpoint.url", "ORACLE_API_URL", "NEXT_PUBLIC_API_URL")
	viper.BindEnv("endpoint.api_key", "ORACLE_API_KEY", "OPENAI_API_KEY")
	viper.BindEnv("relay.api_key", "ORACLE_RELAY_API_KEY", "OPENAI_API_KEY")
	viper.BindEnv("logging.level", "ORACLE_LOG_LEVEL")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Chat.Model) == "" {
		return fmt.Errorf("chat.model must not be empty")
	}
	if c.Endpoint.Timeout < 0 {
		return fmt.Errorf("endpoint.timeout must not be negative")
	}
	if _, err := c.Endpoint.ResolveURL(); err != nil {
		return err
	}
	switch c.Relay.Generator {
	case "echo", "openai", "langchain":
	default:
		return fmt.Errorf("unknown relay.generator %q", c.Relay.Generator)
	}
	return nil
}

// ResolveURL returns the absolute endpoint URL. A relative URL such as the
// default "/api/chat" is resolved against BaseURL.
func (e EndpointConfig) ResolveURL() (string, error) {
	raw := strings.TrimSpace(e.URL)
	if raw == "" {
		raw = DefaultEndpointPath
	}

	target, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint.url: %w", err)
	}
	if target.IsAbs() {
		return target.String(), nil
	}

	base, err := url.Parse(e.BaseURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("endpoint.url %q is relative and endpoint.base_url %q is not an absolute URL", raw, e.BaseURL)
	}
	return base.ResolveReference(target).String(), nil
}

// ResolveAPIKey returns the credential to send with each request. An inline
// key wins over a key file; neither is required. A relative key file is
// looked up next to the settings file.
func (e EndpointConfig) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(e.APIKey); key != "" {
		return key, nil
	}
	if e.APIKeyFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(ResolvePath(e.APIKeyFile))
	if err != nil {
		return "", fmt.Errorf("failed to read endpoint.api_key_file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
