// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/pagewise/discover"
	"github.com/poiesic/pagewise/extract"
	"github.com/poiesic/pagewise/ingestion"
	"gopkg.in/yaml.v3"
)

// Config is the optional pipeline file given with --config.
type Config struct {
	Policy      extract.Policy    `yaml:"policy"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Discover    DiscoverConfig    `yaml:"discover"`
}

// CoordinatorConfig tunes batch runs.
type CoordinatorConfig struct {
	PoolSize    int           `yaml:"pool_size"` // 0 keeps the coordinator default
	MaxUploadMB int           `yaml:"max_upload_mb"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DiscoverConfig tunes discovery.
type DiscoverConfig struct {
	// DailyLimit caps discoveries per user per UTC day. 0 disables the cap.
	DailyLimit int `yaml:"daily_limit"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Policy: extract.DefaultPolicy(),
		Coordinator: CoordinatorConfig{
			MaxUploadMB: ingestion.DefaultMaxUploadSize >> 20,
		},
		Discover: DiscoverConfig{
			DailyLimit: discover.DefaultDailyLimit,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Policy = cfg.Policy.Normalize()
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.Coordinator.PoolSize < 0 {
		return errors.New("coordinator.pool_size must be >= 0")
	}
	if c.Coordinator.MaxUploadMB <= 0 {
		return errors.New("coordinator.max_upload_mb must be > 0")
	}
	if c.Coordinator.Timeout < 0 {
		return errors.New("coordinator.timeout must be >= 0")
	}
	if c.Discover.DailyLimit < 0 {
		return errors.New("discover.daily_limit must be >= 0")
	}
	return nil
}

// CoordinatorOptions converts the file settings to coordinator options.
func (c *Config) CoordinatorOptions() []ingestion.Option {
	opts := []ingestion.Option{
		ingestion.WithMaxUploadSize(int64(c.Coordinator.MaxUploadMB) << 20),
		ingestion.WithTimeout(c.Coordinator.Timeout),
	}
	if c.Coordinator.PoolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(c.Coordinator.PoolSize))
	}
	return opts
}
