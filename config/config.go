// Copyright 2025 The EncGuard Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads guard configuration from an optional .encguard.yaml
// file with ENCGUARD_ environment variable overrides. A repository without
// a config file runs entirely on defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is the conventional config location relative to the
	// repository root.
	DefaultConfigFile = ".encguard.yaml"

	envPrefix = "ENCGUARD"
)

// Config holds everything the guard reads from its config file.
type Config struct {
	// RulesFile is the policy rules file location.
	RulesFile string `mapstructure:"rules-file"`

	// Prefix restricts checking to candidates under this path prefix.
	Prefix string `mapstructure:"prefix"`

	// ProbeLimit is the printable-ratio sample size in bytes.
	ProbeLimit int `mapstructure:"probe-limit"`

	// LeakScan enables secret confirmation scans on plaintext violations.
	LeakScan bool `mapstructure:"leak-scan"`

	// LeakScanConfig points at a custom Gitleaks TOML config.
	LeakScanConfig string `mapstructure:"leak-scan-config"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		RulesFile:  ".gitattributes",
		ProbeLimit: 1000,
	}
}

// Load reads configuration from path, or from DefaultConfigFile when path
// is empty. A missing file is not an error; defaults apply. Environment
// variables prefixed with ENCGUARD_ override file values either way.
func Load(path string) (*Config, error) {
	// A fresh viper instance per load keeps global viper state untouched.
	v := viper.New()

	cfg := Default()
	v.SetDefault("rules-file", cfg.RulesFile)
	v.SetDefault("probe-limit", cfg.ProbeLimit)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		// Only a missing file at the default location is tolerated.
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config from %s: %w", path, err)
	}

	return cfg, nil
}
