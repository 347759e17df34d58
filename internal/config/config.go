package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Crawl configuration
	Crawl CrawlConfig `mapstructure:"crawl"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlConfig holds crawl-specific configuration
type CrawlConfig struct {
	MaxPages        int           `mapstructure:"max_pages"`
	MaxDepth        int           `mapstructure:"max_depth"`
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	Delay           time.Duration `mapstructure:"delay"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	UserAgent       string        `mapstructure:"user_agent"`
	URLPattern      string        `mapstructure:"url_pattern"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
	AllowSubdomains bool          `mapstructure:"allow_subdomains"`
}

// OutputConfig holds output destination configuration
type OutputConfig struct {
	Path      string `mapstructure:"path"`
	Resume    bool   `mapstructure:"resume"`
	Timestamp bool   `mapstructure:"timestamp"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.corpusmith")
	}

	setDefaults(v)

	v.SetEnvPrefix("CORPUSMITH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath == "" {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_pages", 100)
	v.SetDefault("crawl.max_depth", 3)
	v.SetDefault("crawl.max_concurrent", 5)
	v.SetDefault("crawl.delay", "1s")
	v.SetDefault("crawl.timeout", "10s")
	v.SetDefault("crawl.max_retries", 3)
	v.SetDefault("crawl.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("crawl.url_pattern", "")
	v.SetDefault("crawl.respect_robots", true)
	v.SetDefault("crawl.allow_subdomains", false)

	v.SetDefault("output.path", "output.jsonl")
	v.SetDefault("output.resume", false)
	v.SetDefault("output.timestamp", false)

	v.SetDefault("logging.verbose", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be positive")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must not be negative")
	}
	if c.Crawl.MaxConcurrent <= 0 {
		return fmt.Errorf("crawl.max_concurrent must be positive")
	}
	if c.Crawl.Delay < 0 {
		return fmt.Errorf("crawl.delay must not be negative")
	}
	if c.Crawl.Timeout <= 0 {
		return fmt.Errorf("crawl.timeout must be positive")
	}
	if c.Crawl.MaxRetries < 0 {
		return fmt.Errorf("crawl.max_retries must not be negative")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	if c.Crawl.URLPattern != "" {
		if _, err := regexp.Compile(c.Crawl.URLPattern); err != nil {
			return fmt.Errorf("invalid crawl.url_pattern: %w", err)
		}
	}
	return nil
}
