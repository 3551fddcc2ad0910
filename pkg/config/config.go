// Package config loads the service configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the service configuration. Every key can be overridden by the
// upper-cased environment variable of the same name, e.g. MAX_CHUNK_SIZE.
type Config struct {
	ListenAddress    string  `mapstructure:"listen_address"`
	MaxChunkSize     int     `mapstructure:"max_chunk_size"`
	OverlapSize      int     `mapstructure:"overlap_size"`
	TolerancePercent float64 `mapstructure:"tolerance_percent"`
	Concurrency      int     `mapstructure:"concurrency"`

	MaxFiles    int   `mapstructure:"max_files"`
	MaxFileSize int64 `mapstructure:"max_file_size"`
	MinWords    int   `mapstructure:"min_words"`
	MaxWords    int   `mapstructure:"max_words"`
}

// Load reads the configuration. When CONFIG_FILE is set, that file is read
// first and the environment still takes precedence over it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.MaxChunkSize <= 0:
		return fmt.Errorf("max_chunk_size must be greater than 0, got %d", c.MaxChunkSize)
	case c.OverlapSize < 0:
		return fmt.Errorf("overlap_size must not be negative, got %d", c.OverlapSize)
	case c.Concurrency <= 0:
		return fmt.Errorf("concurrency must be greater than 0, got %d", c.Concurrency)
	case c.MinWords > c.MaxWords:
		return fmt.Errorf("min_words (%d) is greater than max_words (%d)", c.MinWords, c.MaxWords)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_file", "")
	v.SetDefault("listen_address", ":8080")
	v.SetDefault("max_chunk_size", 75000)
	v.SetDefault("overlap_size", 1000)
	v.SetDefault("tolerance_percent", 10)
	v.SetDefault("concurrency", 4)

	v.SetDefault("max_files", 7)
	v.SetDefault("max_file_size", 50*1024*1024)
	v.SetDefault("min_words", 500)
	v.SetDefault("max_words", 200000)
}
