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

// Package vcs is the version-control collaborator of sirseer-publish. It
// opens or clones a git repository with go-git and exposes the handful of
// operations the publish flow needs: listing tags, checking out a
// revision, and reading the HEAD state.
//
// A Repo owns its worktree for the duration of one publish or batch run.
// Checkout mutates that worktree, so callers must not use one Repo from
// several goroutines.
package vcs
