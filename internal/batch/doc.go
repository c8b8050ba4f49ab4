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

// Package batch publishes every tag of a repository that matches a
// pattern. A run passes two human confirmation gates: one after the tag
// scan and one after the generated manifests have been shown for review.
// Failures of one tag never stop its siblings.
//
// All tags share one worktree and are processed sequentially. Each
// manifest build checks out its tag, and each upload checks out the commit
// its manifest records.
package batch
