// Package config loads shrike's layered TOML configuration: a required
// config/default.toml plus an optional config/local.toml that overrides any
// field it sets. No environment variables are consumed by the core.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

type RPCConfig struct {
	BaseURL      string `toml:"base_url"`
	PriceBaseURL string `toml:"price_base_url"`
	TimeoutMs    int    `toml:"timeout_ms"`
}

type IndexerConfig struct {
	BatchSize         uint64 `toml:"batch_size"`
	WorkerCount       int    `toml:"worker_count"`
	StartBlock        uint64 `toml:"start_block"`
	KeepAlive         bool   `toml:"keep_alive"`
	KeepAliveInterval int    `toml:"keep_alive_interval_s"`
}

type DatabaseConfig struct {
	Dir string `toml:"dir"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	RPC      RPCConfig      `toml:"rpc"`
	Indexer  IndexerConfig  `toml:"indexer"`
	Database DatabaseConfig `toml:"database"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		RPC: RPCConfig{
			PriceBaseURL: "https://neo-api.b-cdn.net",
		},
		Indexer: IndexerConfig{
			BatchSize:         25,
			WorkerCount:       25,
			KeepAlive:         true,
			KeepAliveInterval: 15,
		},
		Database: DatabaseConfig{
			Dir: "data",
		},
	}
}

// Load reads defaultPath (required) and, if localPath exists, merges its
// fields on top. Missing localPath is not an error.
func Load(defaultPath, localPath string) (*Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(defaultPath, &cfg); err != nil {
		return nil, err
	}

	if localPath != "" {
		if _, err := os.Stat(localPath); err == nil {
			if _, err := toml.DecodeFile(localPath, &cfg); err != nil {
				return nil, err
			}
		}
	}

	return &cfg, nil
}
