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

// Package main implements the sirseer-publish command-line interface.
// This tool turns git tags of a mod repository into versions on the Hub01
// package-hosting service.
//
// The CLI supports:
//   - Publishing one repository state (publish)
//   - Publishing every tag matching a pattern with two review gates (batch)
//   - Generating manifests and uploading them in separate runs (--mode)
//   - Upstream release names and changelogs from GitHub when a token is set
//
// Usage:
//
//	sirseer-publish publish <path-or-url> [flags]
//	sirseer-publish batch <path-or-url> --pattern <regex> [flags]
//
// Example:
//
//	export HUB01_API_TOKEN=your_token
//	sirseer-publish batch . --pattern '^v1\.' --project-slug example-mod \
//	    --api-url https://hub01.example.com/api
//
// A .env file in the working directory is loaded before flags are parsed.
// Variables already set in the environment win.
//
// Exit codes:
//   - 0: Success, or a confirmation gate was declined
//   - 1: General error, or a batch finished with failed tags
//   - 2: Setup or authentication error
//   - 3: Network error
package main
