package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can say "3s" instead of a
// nanosecond count; yaml.v3 has no native duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"3s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Typing  TypingConfig  `yaml:"typing"`
	History HistoryConfig `yaml:"history"`
	Client  ClientConfig  `yaml:"client"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TypingConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

type HistoryConfig struct {
	URL   string `yaml:"url"`
	Limit int    `yaml:"limit"`
}

type ClientConfig struct {
	ReconnectAttempts int      `yaml:"reconnect_attempts"`
	ReconnectInterval Duration `yaml:"reconnect_interval"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Typing: TypingConfig{
			TTL:           Duration(3 * time.Second),
			SweepInterval: Duration(time.Second),
		},
		History: HistoryConfig{
			Limit: 50,
		},
		Client: ClientConfig{
			ReconnectAttempts: 5,
			ReconnectInterval: Duration(3 * time.Second),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
