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

package batch

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
)

// CompilePattern compiles a tag pattern.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", puberrors.ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// MatchTags returns the tags whose name contains a match of re, ordered
// by SortTags.
func MatchTags(tags []vcs.Tag, re *regexp.Regexp) []vcs.Tag {
	var matched []vcs.Tag
	for _, tag := range tags {
		if re.MatchString(tag.Name) {
			matched = append(matched, tag)
		}
	}
	SortTags(matched)
	return matched
}

// SortTags orders tags by semantic version, oldest first. Tags that are
// not versions follow in lexical order.
func SortTags(tags []vcs.Tag) {
	versions := make(map[string]*semver.Version, len(tags))
	for _, tag := range tags {
		if v, err := semver.NewVersion(tag.Name); err == nil {
			versions[tag.Name] = v
		}
	}

	sort.SliceStable(tags, func(i, j int) bool {
		vi, iok := versions[tags[i].Name]
		vj, jok := versions[tags[j].Name]
		switch {
		case iok && jok:
			if c := vi.Compare(vj); c != 0 {
				return c < 0
			}
			return tags[i].Name < tags[j].Name
		case iok != jok:
			return iok
		default:
			return tags[i].Name < tags[j].Name
		}
	})
}

// ManifestDirName maps a tag to its directory below the manifest dir.
func ManifestDirName(tag string) string {
	return strings.ReplaceAll(tag, "/", "_")
}
