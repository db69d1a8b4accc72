package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for both the chat client and the
// development backend.
type Config struct {
	Client ClientConfig `json:"client"`
	Server ServerConfig `json:"server"`
	Redis  RedisConfig  `json:"redis"`
	Gemini GeminiConfig `json:"gemini"`
}

type ClientConfig struct {
	BackendURL     string `json:"backend_url"`
	RequestTimeout int    `json:"request_timeout_seconds"`
	StateDir       string `json:"state_dir"`
}

type ServerConfig struct {
	ServerAddress string `json:"server_address"`
	DatabasePath  string `json:"database_path"`
	UploadDir     string `json:"upload_dir"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	CacheTTL int    `json:"cache_ttl_minutes"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Client.BackendURL == "" {
		cfg.Client.BackendURL = "http://localhost:8001"
	}
	if cfg.Server.DatabasePath != "" && !filepath.IsAbs(cfg.Server.DatabasePath) {
		cfg.Server.DatabasePath = filepath.Join(filepath.Dir(absPath), cfg.Server.DatabasePath)
	}
	if cfg.Client.StateDir != "" && !filepath.IsAbs(cfg.Client.StateDir) {
		cfg.Client.StateDir = filepath.Join(filepath.Dir(absPath), cfg.Client.StateDir)
	}

	return &cfg, nil
}
