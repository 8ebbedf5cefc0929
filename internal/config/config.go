package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Lobby  LobbyConfig  `yaml:"lobby"`
	Auth   AuthConfig   `yaml:"auth"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// APIToken guards the /api/* endpoints when set. The WebSocket protocol
	// has its own in-band login and is not affected.
	APIToken string `yaml:"api_token"`

	// MaxClients caps concurrent WebSocket connections; 0 means unlimited.
	MaxClients int `yaml:"max_clients"`
}

type LobbyConfig struct {
	// SendBuffer is the per-subscriber event queue size.
	SendBuffer int `yaml:"send_buffer"`

	// Seed tables are inserted in order at startup, before the server
	// accepts connections.
	Seed []SeedTable `yaml:"seed"`
}

type SeedTable struct {
	Name         string `yaml:"name"`
	Participants uint64 `yaml:"participants"`
}

type AuthConfig struct {
	Users []UserConfig `yaml:"users"`
}

type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9000,
		},
		Lobby: LobbyConfig{
			SendBuffer: 64,
		},
		Auth: AuthConfig{
			Users: []UserConfig{
				{Username: "admin", Password: "admin", Role: "admin"},
				{Username: "user", Password: "user", Role: "user"},
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault returns the built-in defaults when the config file does not
// exist, and fails only on an unreadable or invalid file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	for _, u := range c.Auth.Users {
		if u.Username == "" {
			return fmt.Errorf("auth user with empty username")
		}
		if u.Role != "user" && u.Role != "admin" {
			return fmt.Errorf("auth user %q: unknown role %q", u.Username, u.Role)
		}
	}
	return nil
}
