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

package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirseerhq/sirseer-publish/internal/versioning"
)

// ReleaseType classifies a published version.
type ReleaseType string

// Supported release types.
const (
	Release ReleaseType = "release"
	Beta    ReleaseType = "beta"
	Alpha   ReleaseType = "alpha"
)

// ReleaseTypes lists every accepted release type.
var ReleaseTypes = []ReleaseType{Release, Beta, Alpha}

// ParseReleaseType parses a release type, ignoring case and surrounding
// whitespace.
func ParseReleaseType(s string) (ReleaseType, error) {
	rt := ReleaseType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReleaseTypes {
		if rt == known {
			return rt, nil
		}
	}
	return "", fmt.Errorf("invalid release type %q: must be one of release, beta, alpha", s)
}

// Manifest describes one release of one project.
type Manifest struct {
	Version       string      `json:"version"`
	RepositoryURL string      `json:"repository_url"`
	Commit        string      `json:"commit"`
	ReleaseType   ReleaseType `json:"release_type"`
	// ReleaseDate is the commit timestamp, never the publish time.
	ReleaseDate time.Time `json:"release_date"`
	Subfolder   string    `json:"subfolder"`
	Tags        []string  `json:"tags"`
	Name        string    `json:"name"`
	Changelog   string    `json:"changelog"`
}

// MarshalJSON encodes Tags as an empty array rather than null. Text is
// not HTML-escaped so changelogs stay readable.
func (m Manifest) MarshalJSON() ([]byte, error) {
	type plain Manifest
	p := plain(m)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return marshal(p, "")
}

// marshal encodes v without HTML escaping, indenting by indent when set.
// The trailing newline added by the encoder is kept.
func marshal(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the invariants a manifest must hold before upload.
func (m *Manifest) Validate() error {
	if !versioning.Valid(m.Version) {
		return fmt.Errorf("invalid version %q", m.Version)
	}
	if m.Commit == "" {
		return fmt.Errorf("commit is required")
	}
	if _, err := ParseReleaseType(string(m.ReleaseType)); err != nil {
		return err
	}
	if m.ReleaseDate.IsZero() {
		return fmt.Errorf("release_date is required")
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// ParseTags splits a comma-separated label list, trimming whitespace and
// dropping blanks.
func ParseTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
