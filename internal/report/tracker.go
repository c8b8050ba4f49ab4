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

// Package report tracks the phases of a batch run and persists the result
// as a JSON file. Reports are written atomically next to the generated
// manifests or to an explicit path.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirseerhq/sirseer-publish/internal/manifest"
	"github.com/sirseerhq/sirseer-publish/internal/publisher"
)

// Tracker collects per-tag outcomes during a run. Create one at the start
// of each run.
type Tracker struct {
	startTime  time.Time
	matched    int
	candidates []*Candidate
	byTag      map[string]*Candidate
}

// New creates a Tracker starting now.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
		byTag:     make(map[string]*Candidate),
	}
}

// SetMatched records how many tags matched the pattern.
func (t *Tracker) SetMatched(n int) {
	t.matched = n
}

// Record stores the outcome of one phase for tag.
func (t *Tracker) Record(tag string, out publisher.Outcome) {
	c, ok := t.byTag[tag]
	if !ok {
		c = &Candidate{Tag: tag}
		t.byTag[tag] = c
		t.candidates = append(t.candidates, c)
	}

	if out.Manifest != nil {
		c.Commit = out.Manifest.Commit
		c.Version = out.Manifest.Version
		if digest, err := manifest.Digest(out.Manifest); err == nil {
			c.Digest = digest
		}
	}
	if out.ManifestPath != "" {
		c.ManifestPath = out.ManifestPath
	}

	result := &PhaseResult{
		Status:   out.Status.String(),
		Duration: out.Duration.String(),
	}
	if out.Err != nil {
		result.Error = out.Err.Error()
	}

	switch out.Stage {
	case publisher.StageUpload:
		c.Upload = result
	default:
		c.Manifest = result
	}
}

// Generate builds the report for the outcomes recorded so far.
func (t *Tracker) Generate(toolVersion string, params Params) *Report {
	completedAt := time.Now()

	summary := Summary{
		Matched:        t.matched,
		ManifestFailed: []string{},
		UploadFailed:   []string{},
	}
	for _, c := range t.candidates {
		if c.Manifest != nil {
			if c.Manifest.Status == publisher.StatusFailed.String() {
				summary.ManifestFailed = append(summary.ManifestFailed, c.Tag)
			} else {
				summary.Manifests++
			}
		}
		if c.Upload == nil {
			continue
		}
		switch c.Upload.Status {
		case publisher.StatusPublished.String():
			summary.Published++
		case publisher.StatusSkipped.String():
			summary.Skipped++
		default:
			summary.UploadFailed = append(summary.UploadFailed, c.Tag)
		}
	}

	candidates := t.candidates
	if candidates == nil {
		candidates = []*Candidate{}
	}

	return &Report{
		ToolVersion: toolVersion,
		RunID:       fmt.Sprintf("batch-%d", t.startTime.Unix()),
		Parameters:  params,
		Candidates:  candidates,
		Summary:     summary,
		StartedAt:   t.startTime,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(t.startTime).String(),
	}
}

// FileName returns the report file name used inside a directory.
func FileName(r *Report) string {
	return fmt.Sprintf("publish-report-%d.json", r.StartedAt.Unix())
}

// SaveInDir writes r into dir under FileName and returns the path.
func SaveInDir(r *Report, dir string) (string, error) {
	path := filepath.Join(dir, FileName(r))
	return path, Save(r, path)
}

// Save atomically writes r to path.
func Save(r *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	// Write to temporary file first for atomicity
	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := Write(r, file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close report file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to save report file: %w", err)
	}
	return nil
}

// Load reads a report file.
func Load(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	var r Report
	if err := json.NewDecoder(file).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// Write encodes r as indented JSON.
func Write(r *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
