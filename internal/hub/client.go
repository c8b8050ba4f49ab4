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

// Package hub is the client of the Hub01 package-hosting service. It
// checks whether a project version exists and creates versions by
// uploading an archive with the manifest's metadata.
//
// The REST surface used:
//
//	GET  {api}/v1/projects/{slug}/versions/{version}   200 version, 404 absent
//	POST {api}/v1/projects/{slug}/versions             multipart/form-data
//
// Every request carries "Authorization: Bearer <token>".
package hub

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by GetVersion when the version does not exist.
var ErrNotFound = errors.New("version not found")

// Version is a version record on the hosting service.
type Version struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	ReleaseType string    `json:"release_type"`
	ReleaseDate time.Time `json:"release_date"`
	Changelog   string    `json:"changelog"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url,omitempty"`
}

// CreateVersionRequest carries the fields of a new version.
type CreateVersionRequest struct {
	Name        string
	Version     string
	ReleaseType string
	ReleaseDate time.Time
	Changelog   string
	Tags        []string
	// ArchivePath is the zip uploaded as the version's file.
	ArchivePath string
	// Overwrite replaces an existing version with the same number.
	Overwrite bool
}

// Client defines the interface for the hosting service.
// This interface allows for easy mocking in tests.
type Client interface {
	// GetVersion returns the version record, or an error wrapping
	// ErrNotFound when it does not exist.
	GetVersion(ctx context.Context, slug, version string) (*Version, error)

	// CreateVersion uploads a new version of the project.
	CreateVersion(ctx context.Context, slug string, req CreateVersionRequest) (*Version, error)
}
