// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Pixel   PixelConfig   `mapstructure:"pixel" yaml:"pixel"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the structural (DOM) backend.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ElementTimeout bounds the visibility wait before a click or type.
	ElementTimeout time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	// ProbeTimeout bounds the per-element visibility probe during extraction.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	// MaxElements caps how many interactive elements a scan collects.
	MaxElements int `mapstructure:"max_elements" yaml:"max_elements"`
}

// PixelConfig holds settings for the pixel (OS screen) backend.
type PixelConfig struct {
	// TemplateDir is where target template PNGs live. Supports ~ expansion.
	TemplateDir string `mapstructure:"template_dir" yaml:"template_dir"`
	// Confidence is the minimum template-match similarity in [0,1].
	Confidence float64 `mapstructure:"confidence" yaml:"confidence"`
	// FindTimeout bounds the whole locate loop for one target.
	FindTimeout  time.Duration `mapstructure:"find_timeout" yaml:"find_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// ActionDelay is the settle pause after each injected input.
	ActionDelay time.Duration `mapstructure:"action_delay" yaml:"action_delay"`
	// LoadDelay is the fixed wait after a pixel-level navigation.
	LoadDelay   time.Duration `mapstructure:"load_delay" yaml:"load_delay"`
	ScrollTicks int           `mapstructure:"scroll_ticks" yaml:"scroll_ticks"`
	// MatchDownscale is an integer shrink factor applied before template
	// matching. 1 disables downscaling.
	MatchDownscale int `mapstructure:"match_downscale" yaml:"match_downscale"`
	// WindowHints are lowercase substrings that mark a browser window title.
	WindowHints []string `mapstructure:"window_hints" yaml:"window_hints"`
}

// LLMProvider defines the supported interpreter providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderGroq   LLMProvider = "groq"
)

// LLMConfig defines the external command interpreter.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	// RatePerSecond and Burst feed the limiter in front of translation calls.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
}

// AgentConfig holds orchestrator-level settings.
type AgentConfig struct {
	// ElementLimit caps how many elements are serialized into a prompt.
	ElementLimit int `mapstructure:"element_limit" yaml:"element_limit"`
	// VisibleTextLimit caps the OCR text length serialized into a prompt.
	VisibleTextLimit int `mapstructure:"visible_text_limit" yaml:"visible_text_limit"`
	// TranslateTimeout is the hard ceiling on one translation round trip.
	TranslateTimeout time.Duration `mapstructure:"translate_timeout" yaml:"translate_timeout"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uipilot")
	v.SetDefault("logger.log_file", "uipilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.element_timeout", "10s")
	v.SetDefault("browser.probe_timeout", "500ms")
	v.SetDefault("browser.max_elements", 30)

	// -- Pixel --
	v.SetDefault("pixel.template_dir", "~/.uipilot/templates")
	v.SetDefault("pixel.confidence", 0.8)
	v.SetDefault("pixel.find_timeout", "7s")
	v.SetDefault("pixel.poll_interval", "500ms")
	v.SetDefault("pixel.action_delay", "500ms")
	v.SetDefault("pixel.load_delay", "3s")
	v.SetDefault("pixel.scroll_ticks", 10)
	v.SetDefault("pixel.match_downscale", 2)
	v.SetDefault("pixel.window_hints", []string{"chrome", "chromium", "firefox", "edge", "safari", "brave"})

	// -- LLM --
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_timeout", "90s")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.rate_per_second", 1.0)
	v.SetDefault("llm.burst", 2)

	// -- Agent --
	v.SetDefault("agent.element_limit", 25)
	v.SetDefault("agent.visible_text_limit", 2000)
	v.SetDefault("agent.translate_timeout", "180s")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// API keys come from the environment, never the config file.
	v.BindEnv("llm.api_key", "UIPILOT_LLM_API_KEY", "GEMINI_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// normalize expands user-relative paths in place.
func (c *Config) normalize() error {
	expanded, err := homedir.Expand(c.Pixel.TemplateDir)
	if err != nil {
		return fmt.Errorf("expanding pixel.template_dir: %w", err)
	}
	c.Pixel.TemplateDir = expanded

	if c.Logger.LogFile != "" {
		expanded, err = homedir.Expand(c.Logger.LogFile)
		if err != nil {
			return fmt.Errorf("expanding logger.log_file: %w", err)
		}
		c.Logger.LogFile = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderGroq:
	default:
		return fmt.Errorf("llm.provider must be one of gemini, openai, groq; got %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is a required configuration field")
	}
	if c.Pixel.Confidence < 0.0 || c.Pixel.Confidence > 1.0 {
		return fmt.Errorf("pixel.confidence must be between 0.0 and 1.0")
	}
	if c.Pixel.FindTimeout <= 0 {
		return fmt.Errorf("pixel.find_timeout must be a positive duration")
	}
	if c.Pixel.PollInterval <= 0 {
		return fmt.Errorf("pixel.poll_interval must be a positive duration")
	}
	if c.Pixel.MatchDownscale < 1 {
		return fmt.Errorf("pixel.match_downscale must be at least 1")
	}
	if c.Browser.MaxElements <= 0 {
		return fmt.Errorf("browser.max_elements must be a positive integer")
	}
	if c.Agent.ElementLimit <= 0 || c.Agent.ElementLimit > c.Browser.MaxElements {
		return fmt.Errorf("agent.element_limit must be in 1..browser.max_elements")
	}
	if c.Agent.VisibleTextLimit <= 0 {
		return fmt.Errorf("agent.visible_text_limit must be a positive integer")
	}
	if c.Agent.TranslateTimeout <= 0 {
		return fmt.Errorf("agent.translate_timeout must be a positive duration")
	}
	return nil
}
