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

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
)

// MockClient is a mock implementation of the GitHub Client interface for testing.
type MockClient struct {
	// Latest is returned by LatestRelease.
	Latest *Release

	// ByTag maps tag names to releases returned by ReleaseByTag.
	ByTag map[string]*Release

	// Error to return
	Error error

	// Behavior flags
	ShouldFailAuth    bool
	ShouldFailNetwork bool

	// Track calls for verification
	CallCount int
	LastOwner string
	LastRepo  string
	LastTag   string
}

// NewMockClient creates a new mock client with a default latest release.
func NewMockClient() *MockClient {
	return &MockClient{
		Latest: &Release{
			Name:        "Latest Release",
			Description: "Latest release notes",
			TagName:     "v9.9.9",
		},
		ByTag: make(map[string]*Release),
	}
}

func (m *MockClient) track(ctx context.Context, owner, repo, tag string) error {
	m.CallCount++
	m.LastOwner = owner
	m.LastRepo = repo
	m.LastTag = tag

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", puberrors.ErrInvalidToken)
	}
	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", puberrors.ErrNetworkFailure)
	}
	return m.Error
}

// LatestRelease implements the Client interface
func (m *MockClient) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	if err := m.track(ctx, owner, repo, ""); err != nil {
		return nil, err
	}
	return m.Latest, nil
}

// ReleaseByTag implements the Client interface
func (m *MockClient) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	if err := m.track(ctx, owner, repo, tag); err != nil {
		return nil, err
	}
	return m.ByTag[tag], nil
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithLatest sets the release returned by LatestRelease
func WithLatest(release *Release) MockClientOption {
	return func(m *MockClient) {
		m.Latest = release
	}
}

// WithTagRelease registers a release for a tag
func WithTagRelease(tag string, release *Release) MockClientOption {
	return func(m *MockClient) {
		m.ByTag[tag] = release
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
