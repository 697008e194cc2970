// Package config loads API keys and council settings. Environment variables
// take precedence over file configuration under ~/.quorum/.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Keys      APIKeys
	Council   *CouncilConfig
	ConfigDir string
}

// APIKeys holds provider credentials, populated from the environment first
// and the config file second.
type APIKeys struct {
	OpenAI    string `envconfig:"OPENAI_API_KEY"`
	Google    string `envconfig:"GOOGLE_API_KEY"`
	Anthropic string `envconfig:"ANTHROPIC_API_KEY"`
	DeepSeek  string `envconfig:"DEEPSEEK_API_KEY"`
}

// FileConfig represents the structure of ~/.quorum/config.yaml.
type FileConfig struct {
	APIKeys struct {
		OpenAI    string `yaml:"openai"`
		Google    string `yaml:"google"`
		Anthropic string `yaml:"anthropic"`
		DeepSeek  string `yaml:"deepseek"`
	} `yaml:"api_keys"`
}

// Load reads configuration from the config directory and the environment.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return loadFrom(configDir, filepath.Join(configDir, "council.yaml"))
}

// LoadWithCouncilFile loads configuration with an explicit council file.
func LoadWithCouncilFile(councilPath string) (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	cfg, err := loadFrom(configDir, "")
	if err != nil {
		return nil, err
	}
	council, err := LoadCouncilConfig(councilPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load council config from %s: %w", councilPath, err)
	}
	cfg.Council = council
	return cfg, nil
}

func loadFrom(configDir, councilPath string) (*Config, error) {
	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	var keys APIKeys
	if err := envconfig.Process("", &keys); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if keys.OpenAI == "" {
		keys.OpenAI = fileConfig.APIKeys.OpenAI
	}
	if keys.Google == "" {
		keys.Google = fileConfig.APIKeys.Google
	}
	if keys.Anthropic == "" {
		keys.Anthropic = fileConfig.APIKeys.Anthropic
	}
	if keys.DeepSeek == "" {
		keys.DeepSeek = fileConfig.APIKeys.DeepSeek
	}

	cfg := &Config{Keys: keys, ConfigDir: configDir}

	if councilPath != "" {
		if _, err := os.Stat(councilPath); err == nil {
			council, err := LoadCouncilConfig(councilPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load council config: %w", err)
			}
			cfg.Council = council
			return cfg, nil
		}
	}
	cfg.Council = DefaultCouncilConfig()
	return cfg, nil
}

// HasAgent returns true if the API key for the given agent is configured.
func (c *Config) HasAgent(id string) bool {
	switch id {
	case "openai":
		return c.Keys.OpenAI != ""
	case "google":
		return c.Keys.Google != ""
	case "anthropic":
		return c.Keys.Anthropic != ""
	case "deepseek":
		return c.Keys.DeepSeek != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".quorum")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
