// Package config loads the settings an embedding process needs to
// stand up a follow store: where the Pebble database lives, the
// pruning caps, and the optional scheduler's cron expression. Grounded
// on the teacher's pkg/config.Load, trimmed to this store's actual
// knobs — the HTTP/KMS/validation sections it also carried have no
// counterpart here.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"followstore/pkg/followstore"
	"followstore/pkg/scheduler"
)

// Config is the on-disk shape a follow store process is configured
// from.
type Config struct {
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Prune struct {
		SizeLimit *uint   `yaml:"size_limit"`
		TimeLimit *uint32 `yaml:"time_limit_seconds"`
		Compress  bool    `yaml:"compress_blobs"`
	} `yaml:"prune"`
	Scheduler struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"scheduler"`
	Logging struct {
		Level string `yaml:"level"`
		Sink  string `yaml:"sink"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvOverrides applies FOLLOWSTORE_* environment overrides onto cfg
// and reports whether any were applied.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	if v := os.Getenv("FOLLOWSTORE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
		envUsed = true
	}
	if v := os.Getenv("FOLLOWSTORE_PRUNE_SIZE_LIMIT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			limit := uint(n)
			cfg.Prune.SizeLimit = &limit
			envUsed = true
		}
	}
	if v := os.Getenv("FOLLOWSTORE_SCHEDULER_CRON"); v != "" {
		cfg.Scheduler.Cron = v
		cfg.Scheduler.Enabled = true
		envUsed = true
	}
	return envUsed
}

// StoreConfig translates the loaded file into a followstore.Config.
func (c *Config) StoreConfig() followstore.Config {
	return followstore.Config{
		PruneSizeLimit: c.Prune.SizeLimit,
		PruneTimeLimit: c.Prune.TimeLimit,
		CompressBlobs:  c.Prune.Compress,
	}
}

// SchedulerConfig translates the loaded file into a scheduler.Config.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{Cron: c.Scheduler.Cron}
}
