package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the externally loaded service settings. It is constructed once
// at startup and passed into the pipeline explicitly; there is no package
// level state.
type Config struct {
	StagingDir   string `mapstructure:"staging_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	KeywordsPath string `mapstructure:"keywords_path"`
	SinksPath    string `mapstructure:"sinks_path"`
	SessionDB    string `mapstructure:"session_db"`

	LogLevel string `mapstructure:"log_level"`
	LogDir   string `mapstructure:"log_dir"`

	// Workers overrides the pool size; 0 means max(1, NumCPU/2).
	Workers int `mapstructure:"workers"`

	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig tunes the shared fetch client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	UserAgent      string `mapstructure:"user_agent"`
}

// Timeout returns the configured base request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// Load reads the config file at path (YAML), applying EXTRACTOR_* environment
// overrides and defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("extractor")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("staging_dir", "./staging")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("keywords_path", "./keywords.yaml")
	v.SetDefault("session_db", "./sessions.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("workers", 0)
	v.SetDefault("http.timeout_seconds", 3)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.user_agent", "news-feed-extractor/1.0")

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ensureDirs(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ensureDirs creates the writable directories the pipeline relies on.
func (c *Config) ensureDirs() error {
	for _, dir := range []string{c.StagingDir, c.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}
