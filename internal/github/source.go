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

package github

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/sirseerhq/sirseer-publish/internal/logging"
)

// Source resolves the upstream release for a repository state.
type Source struct {
	client Client
	logger *log.Logger
}

// NewSource creates a Source backed by client.
func NewSource(client Client, logger *log.Logger) *Source {
	return &Source{client: client, logger: logging.OrDiscard(logger)}
}

// Lookup returns the release for the first of tags that has one, falling
// back to the repository's latest release. It returns nil without error
// when remoteURL is not a GitHub URL or no release exists.
func (s *Source) Lookup(ctx context.Context, remoteURL string, tags []string) (*Release, error) {
	owner, repo, ok := ParseRemoteURL(remoteURL)
	if !ok {
		s.logger.Debug("Remote is not hosted on GitHub, skipping release lookup", "remote", remoteURL)
		return nil, nil
	}

	for _, tag := range tags {
		release, err := s.client.ReleaseByTag(ctx, owner, repo, tag)
		if err != nil {
			return nil, fmt.Errorf("release for tag %s: %w", tag, err)
		}
		if release != nil {
			s.logger.Debug("Found release for tag", "tag", tag, "name", release.Name)
			return release, nil
		}
	}

	release, err := s.client.LatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("latest release: %w", err)
	}
	if release != nil {
		s.logger.Debug("Using latest release", "tag", release.TagName, "name", release.Name)
	}
	return release, nil
}
