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

// Package report types describe the JSON run report written after a batch.
// The report records what was attempted for every matched tag so a failed
// run can be audited and retried.
package report

import (
	"time"
)

// Report is the record of one batch run.
type Report struct {
	ToolVersion string       `json:"tool_version"`
	RunID       string       `json:"run_id"`
	Parameters  Params       `json:"parameters"`
	Candidates  []*Candidate `json:"candidates"`
	Summary     Summary      `json:"summary"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Duration    string       `json:"duration"`
}

// Params captures the inputs of a run.
type Params struct {
	Repository  string   `json:"repository"`
	Pattern     string   `json:"pattern"`
	ProjectSlug string   `json:"project_slug"`
	Subfolder   string   `json:"subfolder"`
	ReleaseType string   `json:"release_type"`
	Tags        []string `json:"tags,omitempty"`
	Overwrite   bool     `json:"overwrite"`
	ManifestDir string   `json:"manifest_dir,omitempty"`
}

// Candidate holds the phase results of one matched tag. Upload is nil when
// the upload phase was never reached for it.
type Candidate struct {
	Tag          string       `json:"tag"`
	Commit       string       `json:"commit,omitempty"`
	Version      string       `json:"version,omitempty"`
	ManifestPath string       `json:"manifest_path,omitempty"`
	Digest       string       `json:"manifest_digest,omitempty"`
	Manifest     *PhaseResult `json:"manifest,omitempty"`
	Upload       *PhaseResult `json:"upload,omitempty"`
}

// PhaseResult is the outcome of one phase for one tag.
type PhaseResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Summary aggregates the candidates.
type Summary struct {
	Matched        int      `json:"matched"`
	Manifests      int      `json:"manifests_generated"`
	Published      int      `json:"published"`
	Skipped        int      `json:"skipped"`
	ManifestFailed []string `json:"manifest_failed"`
	UploadFailed   []string `json:"upload_failed"`
}
