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

// Package github looks up upstream release metadata on GitHub through the
// GraphQL API. sirseer-publish uses a release's name and description as the
// display name and changelog of a manifest when one exists.
//
// The package includes:
//   - A Client interface for fetching releases by tag or the latest one
//   - A GraphQL implementation using the shurcooL/graphql library
//   - A RetryClient that retries rate limits and network errors
//   - A Source that maps a git remote URL to a release, never failing hard
//   - A mock client for testing
//
// Basic usage:
//
//	client := github.NewGraphQLClient("your-github-token", "https://api.github.com/graphql")
//	source := github.NewSource(client, logger)
//	release, err := source.Lookup(ctx, "git@github.com:owner/mod.git", []string{"v1.2.0"})
//	if err != nil {
//	    // Logged as a warning; the manifest falls back to defaults
//	}
package github
