package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tokend configuration file
// (~/.config/tokend/config.yaml). Flags set on the command line win
// over file values.
type Config struct {
	TokenizerJSON   string `yaml:"tokenizer_json"`
	TokenizerConfig string `yaml:"tokenizer_config"`

	Workers        *int64 `yaml:"workers"`
	MaxInputLength *int64 `yaml:"max_input_length"`
	PositionOffset *int64 `yaml:"position_offset"`

	DefaultPrompt string            `yaml:"default_prompt"`
	Prompts       map[string]string `yaml:"prompts"`

	ServerAddress string `yaml:"server_address"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tokend", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist or cannot be parsed.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyConfig fills in values the user did not set on the command line.
func applyConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.TokenizerJSON != "" && !c.IsSet("tokenizer-json") {
		tokenizerJSONPath = cfg.TokenizerJSON
	}
	if cfg.TokenizerConfig != "" && !c.IsSet("tokenizer-config") {
		tokenizerConfig = cfg.TokenizerConfig
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.MaxInputLength != nil && !c.IsSet("max-input-length") {
		maxInputLength = *cfg.MaxInputLength
	}
	if cfg.PositionOffset != nil && !c.IsSet("position-offset") {
		positionOffset = *cfg.PositionOffset
	}
	if cfg.DefaultPrompt != "" && !c.IsSet("default-prompt") {
		defaultPrompt = cfg.DefaultPrompt
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if addr != nil && cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
