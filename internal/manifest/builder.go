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

package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/github"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
	"github.com/sirseerhq/sirseer-publish/internal/versioning"
)

// Repository is the part of the version-control collaborator the builder
// needs. *vcs.Repo implements it.
type Repository interface {
	Checkout(rev string) error
	Head() (vcs.State, error)
}

// ReleaseSource looks up upstream release metadata. *github.Source
// implements it. A nil release with a nil error means none exists.
type ReleaseSource interface {
	Lookup(ctx context.Context, remoteURL string, tags []string) (*github.Release, error)
}

// BuildOptions selects what to build and where to write it.
type BuildOptions struct {
	// Revision is checked out before reading HEAD when non-empty.
	Revision    string
	Subfolder   string
	ReleaseType ReleaseType
	Tags        []string
	// OutputPath is resolved with ResolvePath.
	OutputPath string
}

// Builder derives manifests from repository states.
type Builder struct {
	repo     Repository
	releases ReleaseSource
	resolver *versioning.Resolver
	logger   *log.Logger
}

// NewBuilder creates a Builder. releases may be nil to skip upstream
// lookups; resolver may be nil for the default metadata file.
func NewBuilder(repo Repository, releases ReleaseSource, resolver *versioning.Resolver, logger *log.Logger) *Builder {
	if resolver == nil {
		resolver = &versioning.Resolver{}
	}
	return &Builder{
		repo:     repo,
		releases: releases,
		resolver: resolver,
		logger:   logging.OrDiscard(logger),
	}
}

// Build checks out opts.Revision if set, derives the manifest of HEAD and
// writes it. It returns the manifest and the path written. The worktree is
// mutated by the checkout, so two builds must not share a Repository
// concurrently.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*Manifest, string, error) {
	m, err := b.Derive(ctx, opts)
	if err != nil {
		return nil, "", err
	}

	path := ResolvePath(opts.OutputPath)
	if err := Save(m, path); err != nil {
		return nil, "", err
	}
	b.logger.Info("Manifest written", "path", path, "version", m.Version)
	return m, path, nil
}

// Derive is Build without writing the manifest.
func (b *Builder) Derive(ctx context.Context, opts BuildOptions) (*Manifest, error) {
	if opts.Revision != "" {
		b.logger.Debug("Checking out revision", "rev", opts.Revision)
		if err := b.repo.Checkout(opts.Revision); err != nil {
			return nil, err
		}
	}

	state, err := b.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", puberrors.ErrCheckout, err)
	}

	releaseType := opts.ReleaseType
	if releaseType == "" {
		releaseType = Release
	}
	if _, err := ParseReleaseType(string(releaseType)); err != nil {
		return nil, err
	}

	subfolder := opts.Subfolder
	if subfolder == "" {
		subfolder = "."
	}
	projectDir := filepath.Join(state.Root, filepath.FromSlash(subfolder))
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project directory %s does not exist at commit %s", subfolder, shortCommit(state.Commit))
	}

	version, source := b.resolver.Explain(state, subfolder)
	b.logger.Info("Detected version", "version", version, "source", source, "commit", shortCommit(state.Commit))

	m := &Manifest{
		Version:       version,
		RepositoryURL: state.RemoteURL,
		Commit:        state.Commit,
		ReleaseType:   releaseType,
		ReleaseDate:   state.Time,
		Subfolder:     subfolder,
		Tags:          append([]string(nil), opts.Tags...),
		Name:          version,
		Changelog:     strings.TrimSpace(state.Message),
	}

	if release := b.lookupRelease(ctx, state); release != nil {
		if release.Name != "" {
			m.Name = release.Name
		}
		m.Changelog = release.Description
	}

	return m, nil
}

// lookupRelease returns the upstream release or nil. Failures are
// warnings, never errors.
func (b *Builder) lookupRelease(ctx context.Context, state vcs.State) *github.Release {
	if b.releases == nil || state.RemoteURL == "" {
		return nil
	}
	release, err := b.releases.Lookup(ctx, state.RemoteURL, state.Tags)
	if err != nil {
		b.logger.Warn("Upstream release metadata unavailable, using defaults", "error", err)
		return nil
	}
	return release
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
