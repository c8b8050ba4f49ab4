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
	"fmt"
	"os"
	"sync"
)

// Upload records one CreateVersion call on the MockClient.
type Upload struct {
	Slug    string
	Request CreateVersionRequest
	// Archive holds the archive bytes read during the call.
	Archive []byte
}

// MockClient is an in-memory hosting service for testing.
type MockClient struct {
	mu sync.Mutex

	// Versions maps "slug/version" to existing records.
	Versions map[string]*Version

	// GetError is returned by every GetVersion call when set.
	GetError error
	// CreateErrors maps a version number to the error its upload returns.
	CreateErrors map[string]error

	// Track calls for verification
	GetCalls int
	Uploads  []Upload
}

// NewMockClient creates an empty mock service.
func NewMockClient() *MockClient {
	return &MockClient{
		Versions:     make(map[string]*Version),
		CreateErrors: make(map[string]error),
	}
}

func key(slug, version string) string {
	return slug + "/" + version
}

// GetVersion implements the Client interface
func (m *MockClient) GetVersion(ctx context.Context, slug, version string) (*Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.GetError != nil {
		return nil, m.GetError
	}
	v, ok := m.Versions[key(slug, version)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", slug, version, ErrNotFound)
	}
	return v, nil
}

// CreateVersion implements the Client interface. Successful uploads are
// stored so later GetVersion calls see them.
func (m *MockClient) CreateVersion(ctx context.Context, slug string, req CreateVersionRequest) (*Version, error) {
	archive, readErr := os.ReadFile(req.ArchivePath)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Uploads = append(m.Uploads, Upload{Slug: slug, Request: req, Archive: archive})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("read archive: %w", readErr)
	}
	if err := m.CreateErrors[req.Version]; err != nil {
		return nil, err
	}

	v := &Version{
		Name:        req.Name,
		Version:     req.Version,
		ReleaseType: req.ReleaseType,
		ReleaseDate: req.ReleaseDate,
		Changelog:   req.Changelog,
		Tags:        req.Tags,
	}
	m.Versions[key(slug, req.Version)] = v
	return v, nil
}

// Seed registers an existing version.
func (m *MockClient) Seed(slug, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Versions[key(slug, version)] = &Version{Name: version, Version: version}
}

// UploadCount returns the number of CreateVersion calls.
func (m *MockClient) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Uploads)
}
