package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Flow    Flow    `yaml:"flow"`
	Gather  Gather  `yaml:"gather"`
	LLM     LLM     `yaml:"llm"`
	SMTP    SMTP    `yaml:"smtp"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Flow struct {
	MaxRetries       int `yaml:"max_retries"`
	GuardrailRetries int `yaml:"guardrail_retries"`
}

type Gather struct {
	DaysBack int           `yaml:"days_back"`
	Feeds    []Feed        `yaml:"feeds"`
	NewsAPI  NewsAPIConfig `yaml:"newsapi"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type NewsAPIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Query     string `yaml:"query"`
}

type LLM struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type SMTP struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	From        string `yaml:"from"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for geonews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "geonews")
}

// DataDir returns the XDG data directory for geonews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "geonews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/geonews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'geonews init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Flow: Flow{
			MaxRetries:       3,
			GuardrailRetries: 3,
		},
		Gather: Gather{
			DaysBack: 7,
			NewsAPI: NewsAPIConfig{
				Enabled:   true,
				APIKeyEnv: "NEWS_API_KEY",
				Query:     "India foreign policy diplomacy",
			},
		},
		LLM: LLM{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   2048,
		},
		SMTP: SMTP{
			Host:        "smtp.gmail.com",
			Port:        465,
			UsernameEnv: "GMAIL_USER",
			PasswordEnv: "GMAIL_PASS",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
