package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Search   SearchConfig   `mapstructure:"search"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Docs     DocsConfig     `mapstructure:"docs"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type CatalogConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	PageSize int    `mapstructure:"page_size"`
}

type ChartConfig struct {
	RootName string   `mapstructure:"root_name"`
	Kinds    []string `mapstructure:"kinds"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SearchConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type DocsConfig struct {
	Generator  string   `mapstructure:"generator"`
	Publisher  string   `mapstructure:"publisher"`
	Command    string   `mapstructure:"command"`
	Args       []string `mapstructure:"args"`
	PublishDir string   `mapstructure:"publish_dir"`
	SourceRoot string   `mapstructure:"source_root"`
}

type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Catalog.BaseURL == "" {
		warnings = append(warnings, "catalog base_url is empty; entity listing and org charts will fail")
	}
	if c.Catalog.PageSize < 0 {
		warnings = append(warnings, fmt.Sprintf("catalog page_size %d is negative", c.Catalog.PageSize))
	}
	if len(c.Chart.Kinds) == 0 {
		warnings = append(warnings, "chart kinds is empty; defaulting to Group")
	}
	if c.Docs.Generator != "" && c.Docs.Generator != "none" && c.Docs.Command == "" {
		warnings = append(warnings, fmt.Sprintf("docs generator '%s' is configured but command is empty", c.Docs.Generator))
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ORGATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
