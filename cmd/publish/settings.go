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

package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-publish/internal/config"
	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/github"
	"github.com/sirseerhq/sirseer-publish/internal/hub"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
	"github.com/sirseerhq/sirseer-publish/internal/manifest"
	"github.com/sirseerhq/sirseer-publish/internal/retry"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
)

// releaseFlags are shared by publish and batch.
type releaseFlags struct {
	configPath  string
	verbose     bool
	subfolder   string
	releaseType string
	tags        string
	githubToken string
	projectSlug string
	apiURL      string
	apiToken    string
	overwrite   bool
}

func (f *releaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config file (default: .sirseer-publish.yaml or ~/.sirseer/publish.yaml)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")

	// Release flags
	cmd.Flags().StringVar(&f.subfolder, "subfolder", ".", "Project directory relative to the repository root")
	cmd.Flags().StringVar(&f.releaseType, "release-type", "release", "Release type: release, beta or alpha")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Comma-separated labels attached to the version")
	cmd.Flags().StringVar(&f.githubToken, "github-token", "", "GitHub token for release names and changelogs (overrides GITHUB_TOKEN env var)")

	// Upload flags
	cmd.Flags().StringVar(&f.projectSlug, "project-slug", "", "Hub01 project slug")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "Hub01 API base URL (overrides HUB01_API_URL env var)")
	cmd.Flags().StringVar(&f.apiToken, "api-token", "", "Hub01 API token (overrides HUB01_API_TOKEN env var)")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Replace versions that already exist")
}

// settings are the effective values after applying flags over
// environment over config file over defaults.
type settings struct {
	cfg          *config.Config
	logger       *log.Logger
	subfolder    string
	releaseType  manifest.ReleaseType
	tags         []string
	githubToken  string
	projectSlug  string
	apiURL       string
	apiToken     string
	overwrite    bool
	metadataFile string
}

func (f *releaseFlags) resolve(cmd *cobra.Command) (*settings, error) {
	cfg, err := config.LoadConfigForProject(f.configPath, f.projectSlug)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", puberrors.ErrSetup, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", puberrors.ErrSetup, err)
	}

	s := &settings{
		cfg:          cfg,
		logger:       logging.New(cmd.ErrOrStderr(), logging.Options{Verbose: f.verbose}),
		subfolder:    cfg.Defaults.Subfolder,
		githubToken:  cfg.GitHubToken(),
		projectSlug:  f.projectSlug,
		apiURL:       cfg.Hub.APIURL,
		apiToken:     cfg.HubToken(),
		overwrite:    f.overwrite,
		metadataFile: cfg.Defaults.MetadataFile,
		tags:         cfg.ProjectTags(f.projectSlug),
	}

	flags := cmd.Flags()
	if flags.Changed("subfolder") {
		s.subfolder = f.subfolder
	}
	releaseType := cfg.Defaults.ReleaseType
	if flags.Changed("release-type") {
		releaseType = f.releaseType
	}
	if s.releaseType, err = manifest.ParseReleaseType(releaseType); err != nil {
		return nil, fmt.Errorf("%w: %w", puberrors.ErrSetup, err)
	}
	if flags.Changed("tags") {
		s.tags = manifest.ParseTags(f.tags)
	}
	if f.githubToken != "" {
		s.githubToken = f.githubToken
	}
	if f.apiURL != "" {
		s.apiURL = f.apiURL
	}
	if f.apiToken != "" {
		s.apiToken = f.apiToken
	}

	return s, nil
}

// requireUpload checks the values every upload needs.
func (s *settings) requireUpload() error {
	switch {
	case s.projectSlug == "":
		return fmt.Errorf("%w: --project-slug is required for upload", puberrors.ErrSetup)
	case s.apiURL == "":
		return fmt.Errorf("%w: Hub01 API URL not found. Set HUB01_API_URL or use --api-url flag", puberrors.ErrSetup)
	case s.apiToken == "":
		return fmt.Errorf("%w: Hub01 API token not found. Set %s or use --api-token flag", puberrors.ErrSetup, s.cfg.Hub.TokenEnv)
	}
	return nil
}

func (s *settings) retryConfig() *retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = s.cfg.Retry.MaxRetries
	if s.cfg.Retry.InitialBackoff > 0 {
		rc.InitialBackoff = s.cfg.Retry.InitialBackoff
	}
	if s.cfg.Retry.MaxBackoff > 0 {
		rc.MaxBackoff = s.cfg.Retry.MaxBackoff
	}
	return rc
}

func (s *settings) hubClient() (hub.Client, error) {
	timeout := time.Duration(s.cfg.Hub.TimeoutSeconds) * time.Second
	client, err := hub.NewHTTPClient(s.apiURL, s.apiToken, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", puberrors.ErrSetup, err)
	}
	return hub.NewRetryClient(client, s.retryConfig(), s.logger), nil
}

// releaseSource returns nil when no GitHub token is configured. The nil is
// returned as an untyped interface so the builder sees no source at all.
func (s *settings) releaseSource() manifest.ReleaseSource {
	if s.githubToken == "" {
		s.logger.Debug("No GitHub token, release names and changelogs come from commits")
		return nil
	}
	client := github.NewGraphQLClient(s.githubToken, s.cfg.GitHub.GraphQLEndpoint)
	return github.NewSource(github.NewRetryClient(client, s.retryConfig(), s.logger), s.logger)
}

// openRepository opens a local path or clones a URL. Close the result.
func (s *settings) openRepository(ctx context.Context, target string) (*vcs.Repo, error) {
	repo, err := vcs.Resolve(ctx, target, vcs.Options{
		Token:      s.githubToken,
		TokenHosts: s.githubHosts(),
		Logger:     s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", puberrors.ErrSetup, err)
	}
	return repo, nil
}

// githubHosts returns the clone hosts that may receive the GitHub token:
// github.com and the host serving the configured GraphQL endpoint.
func (s *settings) githubHosts() []string {
	hosts := []string{"github.com"}
	u, err := url.Parse(s.cfg.GitHub.GraphQLEndpoint)
	if err != nil || u.Hostname() == "" {
		return hosts
	}
	host := u.Hostname()
	if host == "api.github.com" {
		return hosts
	}
	return append(hosts, host, strings.TrimPrefix(host, "api."))
}

func closeRepository(repo *vcs.Repo, logger *log.Logger) {
	if err := repo.Close(); err != nil {
		logger.Warn("Failed to remove cloned repository", "dir", repo.Root(), "error", err)
	}
}
