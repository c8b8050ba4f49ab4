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

// Package manifest defines the release manifest, the artifact that
// decouples deriving what to publish from uploading it.
//
// A manifest is built from a repository state by a Builder, persisted as
// pretty-printed JSON, and later loaded, possibly by another process, as
// the sole input of the upload step. It never travels inside the uploaded
// archive.
package manifest
