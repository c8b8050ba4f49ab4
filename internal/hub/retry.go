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

package hub

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sirseerhq/sirseer-publish/internal/logging"
	"github.com/sirseerhq/sirseer-publish/internal/retry"
)

// RetryClient wraps a hub client with automatic retry logic for rate
// limits, gateway errors and network failures.
type RetryClient struct {
	client  Client
	retrier *retry.Retrier
	logger  *log.Logger
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *retry.Config, logger *log.Logger) Client {
	return &RetryClient{
		client:  client,
		retrier: retry.New(config, logger),
		logger:  logging.OrDiscard(logger),
	}
}

// GetVersion implements the Client interface with retry logic. A missing
// version is a permanent answer and is returned immediately.
func (r *RetryClient) GetVersion(ctx context.Context, slug, version string) (*Version, error) {
	var out *Version
	err := r.retrier.Do(ctx, "hub get version", func(ctx context.Context) error {
		var err error
		out, err = r.client.GetVersion(ctx, slug, version)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVersion implements the Client interface with retry logic. A failed
// upload may still have been stored by the service, so before each retry
// of a non-overwriting upload the version is looked up and an existing
// record counts as success.
func (r *RetryClient) CreateVersion(ctx context.Context, slug string, req CreateVersionRequest) (*Version, error) {
	var out *Version
	attempt := 0
	err := r.retrier.Do(ctx, "hub create version", func(ctx context.Context) error {
		attempt++
		if attempt > 1 && !req.Overwrite {
			existing, err := r.client.GetVersion(ctx, slug, req.Version)
			switch {
			case err == nil:
				r.logger.Info("Upload was stored before the failure, not retrying",
					"slug", slug, "version", req.Version)
				out = existing
				return nil
			case !IsNotFound(err):
				return err
			}
		}

		var err error
		out, err = r.client.CreateVersion(ctx, slug, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
