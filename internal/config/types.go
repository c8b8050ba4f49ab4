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

// Package config types define the configuration structures used throughout
// sirseer-publish. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for sirseer-publish.
type Config struct {
	Hub      HubConfig                `yaml:"hub"`
	GitHub   GitHubConfig             `yaml:"github"`
	Defaults DefaultsConfig           `yaml:"defaults"`
	Projects map[string]ProjectConfig `yaml:"projects"`
	Retry    RetryConfig              `yaml:"retry"`
}

// HubConfig points at the package-hosting service. Credentials are never
// stored in the file; TokenEnv names the environment variable holding them.
type HubConfig struct {
	APIURL         string `yaml:"api_url"`
	TokenEnv       string `yaml:"token_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GitHubConfig controls the optional upstream release lookup. Setting a
// custom GraphQL endpoint allows GitHub Enterprise deployments.
type GitHubConfig struct {
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// DefaultsConfig contains values used when the matching flag is not given.
type DefaultsConfig struct {
	Subfolder    string `yaml:"subfolder"`
	ReleaseType  string `yaml:"release_type"`
	MetadataFile string `yaml:"metadata_file"`
}

// ProjectConfig contains per-project overrides keyed by project slug.
// Useful when a repository publishes a mod that lives in a subfolder.
type ProjectConfig struct {
	Subfolder   string   `yaml:"subfolder"`
	ReleaseType string   `yaml:"release_type"`
	Tags        []string `yaml:"tags"`
}

// RetryConfig controls how uploads to the hosting service are retried on
// transient failures.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DefaultConfig returns a Config with defaults suitable for the public
// Hub01 instance and github.com.
func DefaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			APIURL:         "",
			TokenEnv:       "HUB01_API_TOKEN",
			TimeoutSeconds: 120,
		},
		GitHub: GitHubConfig{
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Defaults: DefaultsConfig{
			Subfolder:    ".",
			ReleaseType:  "release",
			MetadataFile: "modinfo.json",
		},
		Projects: make(map[string]ProjectConfig),
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
	}
}
