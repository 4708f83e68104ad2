package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the settings shared by all subcommands. It can be loaded from a
// JSON file with --config; flags given explicitly on the command line win.
type Config struct {
	LogLevel string `json:"loglevel"`
	LogJson  bool   `json:"logjson"`
	Debug    string `json:"debug"`
	DataDir  string `json:"datadir"`
	Workers  int    `json:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		DataDir:  filepath.Join(os.Getenv("HOME"), ".zktx"),
	}
}

// LoadConfig overlays the JSON file at path onto the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// String method returns the Config as a formatted JSON string
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
