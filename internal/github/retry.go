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

	"github.com/charmbracelet/log"

	"github.com/sirseerhq/sirseer-publish/internal/retry"
)

// RetryClient wraps a GitHub client with automatic retry logic for
// rate limits and transient network errors using exponential backoff.
type RetryClient struct {
	client  Client
	retrier *retry.Retrier
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *retry.Config, logger *log.Logger) Client {
	return &RetryClient{
		client:  client,
		retrier: retry.New(config, logger),
	}
}

// LatestRelease implements the Client interface with retry logic
func (r *RetryClient) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	var release *Release
	err := r.retrier.Do(ctx, "github latest release", func(ctx context.Context) error {
		var err error
		release, err = r.client.LatestRelease(ctx, owner, repo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return release, nil
}

// ReleaseByTag implements the Client interface with retry logic
func (r *RetryClient) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	var release *Release
	err := r.retrier.Do(ctx, "github release by tag", func(ctx context.Context) error {
		var err error
		release, err = r.client.ReleaseByTag(ctx, owner, repo, tag)
		return err
	})
	if err != nil {
		return nil, err
	}
	return release, nil
}
