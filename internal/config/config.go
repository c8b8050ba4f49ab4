// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for sirseer-publish with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Project-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
//
// Flags are applied by the CLI after loading; this package handles the rest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sirseerhq/sirseer-publish/internal/manifest"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-publish.yaml (current directory)
//   - .sirseer-publish.yml (current directory)
//   - ~/.sirseer/publish.yaml
//   - ~/.sirseer/publish.yml
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		home, _ := os.UserHomeDir()
		defaultPaths := []string{
			".sirseer-publish.yaml",
			".sirseer-publish.yml",
		}
		if home != "" {
			defaultPaths = append(defaultPaths,
				filepath.Join(home, ".sirseer", "publish.yaml"),
				filepath.Join(home, ".sirseer", "publish.yml"),
			)
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Projects == nil {
		cfg.Projects = make(map[string]ProjectConfig)
	}

	return cfg, nil
}

// LoadConfigForProject loads configuration and applies the overrides
// registered for the given project slug.
func LoadConfigForProject(configPath, slug string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if project, ok := cfg.Projects[slug]; ok {
		if project.Subfolder != "" {
			cfg.Defaults.Subfolder = project.Subfolder
		}
		if project.ReleaseType != "" {
			cfg.Defaults.ReleaseType = project.ReleaseType
		}
	}

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if apiURL := os.Getenv("HUB01_API_URL"); apiURL != "" {
		cfg.Hub.APIURL = apiURL
	}
	if timeout := os.Getenv("HUB01_TIMEOUT_SECONDS"); timeout != "" {
		if seconds, err := parsePositiveInt(timeout); err == nil {
			cfg.Hub.TimeoutSeconds = seconds
		}
	}
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}
	if releaseType := os.Getenv("SIRSEER_RELEASE_TYPE"); releaseType != "" {
		cfg.Defaults.ReleaseType = strings.ToLower(strings.TrimSpace(releaseType))
	}
	if retries := os.Getenv("SIRSEER_RETRY_MAX"); retries != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(retries)); err == nil && n >= 0 {
			cfg.Retry.MaxRetries = n
		}
	}
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// HubToken returns the hosting service token from the configured
// environment variable.
func (c *Config) HubToken() string {
	return os.Getenv(c.Hub.TokenEnv)
}

// GitHubToken returns the GitHub token from the configured environment
// variable.
func (c *Config) GitHubToken() string {
	return os.Getenv(c.GitHub.TokenEnv)
}

// ProjectTags returns the default labels configured for a project slug.
func (c *Config) ProjectTags(slug string) []string {
	if project, ok := c.Projects[slug]; ok {
		return project.Tags
	}
	return nil
}

// Validate checks if the configuration contains valid values. This should
// be called after loading configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if _, err := manifest.ParseReleaseType(c.Defaults.ReleaseType); err != nil {
		return fmt.Errorf("default release type: %w", err)
	}
	for slug, project := range c.Projects {
		if project.ReleaseType == "" {
			continue
		}
		if _, err := manifest.ParseReleaseType(project.ReleaseType); err != nil {
			return fmt.Errorf("project %s release type: %w", slug, err)
		}
	}
	if c.Defaults.Subfolder == "" {
		return fmt.Errorf("default subfolder cannot be empty")
	}
	if c.Defaults.MetadataFile == "" {
		return fmt.Errorf("metadata file name cannot be empty")
	}
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if c.Hub.TimeoutSeconds <= 0 {
		return fmt.Errorf("hub timeout must be positive, got: %d", c.Hub.TimeoutSeconds)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry max_retries cannot be negative, got: %d", c.Retry.MaxRetries)
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	return nil
}
