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
	"regexp"
	"time"
)

// Release is the upstream release metadata used to name a manifest.
type Release struct {
	Name        string
	Description string
	TagName     string
	URL         string
	PublishedAt *time.Time
}

var remotePattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/.]+)`)

// ParseRemoteURL extracts owner and repository from a GitHub remote URL in
// HTTPS or SSH form. ok is false for non-GitHub remotes.
func ParseRemoteURL(remoteURL string) (owner, repo string, ok bool) {
	m := remotePattern.FindStringSubmatch(remoteURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
