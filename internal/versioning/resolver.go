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

// Package versioning derives the canonical version string of a repository
// state. Resolution never fails: an explicitly declared version wins over
// a tag at the commit, which wins over the commit timestamp.
package versioning

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sirseerhq/sirseer-publish/internal/logging"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
)

// DefaultMetadataFile is the project metadata file read from the subfolder.
const DefaultMetadataFile = "modinfo.json"

// TimestampLayout formats the commit time fallback as YYYY.MM.DD.HHMM.
const TimestampLayout = "2006.01.02.1504"

var disallowed = regexp.MustCompile(`[^A-Za-z0-9_.+-]`)

// Sanitize replaces every character outside [A-Za-z0-9_.+-] with '-'.
func Sanitize(version string) string {
	return disallowed.ReplaceAllString(version, "-")
}

// Valid reports whether version is non-empty and uses only allowed characters.
func Valid(version string) bool {
	return version != "" && !disallowed.MatchString(version)
}

// Source tells which rule produced a version.
type Source string

const (
	SourceMetadata  Source = "metadata"
	SourceTag       Source = "tag"
	SourceTimestamp Source = "timestamp"
)

// Resolver resolves versions. The zero value reads DefaultMetadataFile.
type Resolver struct {
	MetadataFile string
	Logger       *log.Logger
}

// Resolve resolves the version of state using the default resolver.
func Resolve(state vcs.State, subfolder string) string {
	v, _ := (&Resolver{}).Explain(state, subfolder)
	return v
}

// Resolve returns the version of state for the project in subfolder.
func (r *Resolver) Resolve(state vcs.State, subfolder string) string {
	v, _ := r.Explain(state, subfolder)
	return v
}

// Explain is Resolve that also reports which rule applied.
func (r *Resolver) Explain(state vcs.State, subfolder string) (string, Source) {
	logger := logging.OrDiscard(r.Logger)

	name := r.MetadataFile
	if name == "" {
		name = DefaultMetadataFile
	}
	path := filepath.Join(state.Root, filepath.FromSlash(subfolder), name)
	if declared, ok := readDeclaredVersion(path, logger); ok {
		return Sanitize(declared), SourceMetadata
	}

	for _, tag := range state.Tags {
		if v := strings.TrimLeft(tag, "v"); v != "" {
			return Sanitize(v), SourceTag
		}
	}

	return state.Time.Format(TimestampLayout), SourceTimestamp
}

// readDeclaredVersion returns the "version" field of a JSON metadata file.
// Strings and numbers are accepted; anything else counts as absent.
func readDeclaredVersion(path string, logger *log.Logger) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("Cannot read project metadata", "path", path, "error", err)
		}
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		logger.Debug("Project metadata is not a JSON object", "path", path, "error", err)
		return "", false
	}

	var version string
	switch v := doc["version"].(type) {
	case string:
		version = v
	case json.Number:
		version = v.String()
	default:
		return "", false
	}
	if version == "" {
		return "", false
	}
	return version, true
}
