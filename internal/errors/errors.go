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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support,
// and let the batch orchestrator tell setup failures from per-candidate failures.
package errors

import "errors"

// Setup errors abort the whole run before anything is attempted.
// They map to exit code 2.
var (
	// ErrSetup is the umbrella for every unrecoverable setup failure.
	ErrSetup = errors.New("setup failed")

	// ErrRepoNotFound indicates the repository path does not exist or the clone failed.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrNotRepository indicates the path exists but is not inside a git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrInvalidPattern indicates the tag pattern is not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid tag pattern")

	// ErrInvalidToken indicates the hosting service rejected the credentials.
	ErrInvalidToken = errors.New("invalid api token")
)

// Candidate errors are fatal for one publish operation only.
var (
	// ErrCheckout indicates the requested commit or tag does not exist
	// or could not be checked out.
	ErrCheckout = errors.New("checkout failed")

	// ErrManifestNotFound indicates an upload-only run found no manifest file.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrUpload indicates packaging or the hosting service rejected the version.
	ErrUpload = errors.New("upload failed")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3 when it ends a single publish.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRateLimit indicates an API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
)

// Batch errors.
var (
	// ErrNoManifests indicates no matched tag produced a manifest.
	ErrNoManifests = errors.New("no manifests were generated")

	// ErrBatchIncomplete indicates at least one candidate failed.
	ErrBatchIncomplete = errors.New("batch finished with failures")
)
