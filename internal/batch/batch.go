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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
	"github.com/sirseerhq/sirseer-publish/internal/manifest"
	"github.com/sirseerhq/sirseer-publish/internal/prompt"
	"github.com/sirseerhq/sirseer-publish/internal/publisher"
	"github.com/sirseerhq/sirseer-publish/internal/report"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
)

// TagLister enumerates repository tags. *vcs.Repo implements it.
type TagLister interface {
	Tags() ([]vcs.Tag, error)
}

// Publisher runs one publish. *publisher.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, req publisher.Request) publisher.Outcome
}

// Options describes one batch run.
type Options struct {
	// Repository is the path or URL the run was started with. Reported only.
	Repository string
	Pattern    string
	// ManifestDir keeps manifests after the run. Empty means a temporary
	// directory removed on every exit path.
	ManifestDir string
	// TempDir is the parent of the temporary manifest directory.
	TempDir     string
	Subfolder   string
	ReleaseType manifest.ReleaseType
	Tags        []string
	ProjectSlug string
	Overwrite   bool
	ToolVersion string
}

// Candidate is a tag with a generated manifest.
type Candidate struct {
	Tag          string
	ManifestPath string
	Manifest     *manifest.Manifest
}

// Failure is a tag that failed one phase.
type Failure struct {
	Tag string
	Err error
}

// Summary is the final tally. Failed names every tag that failed either
// phase, manifest failures first.
type Summary struct {
	Published int
	Skipped   int
	Total     int
	Failed    []string
}

// Result describes how far a run got.
type Result struct {
	State            State
	Aborted          bool
	Matched          []vcs.Tag
	Candidates       []Candidate
	ManifestFailures []Failure
	UploadFailures   []Failure
	Summary          Summary
	// ManifestDir is empty when a temporary directory was used.
	ManifestDir string
	Report      *report.Report
}

// Orchestrator drives the batch state machine.
type Orchestrator struct {
	tags      TagLister
	publisher Publisher
	confirm   prompt.Confirmer
	out       io.Writer
	logger    *log.Logger
}

// New creates an Orchestrator. Review text and summaries go to out.
func New(tags TagLister, pub Publisher, confirm prompt.Confirmer, out io.Writer, logger *log.Logger) *Orchestrator {
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{
		tags:      tags,
		publisher: pub,
		confirm:   confirm,
		out:       out,
		logger:    logging.OrDiscard(logger),
	}
}

// Run executes a batch. A declined gate is not an error: the Result is
// returned with Aborted set. Setup problems return an error before any
// state is entered.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	re, err := CompilePattern(opts.Pattern)
	if err != nil {
		return nil, err
	}
	if opts.ProjectSlug == "" {
		return nil, fmt.Errorf("%w: project slug is required for batch uploads", puberrors.ErrSetup)
	}

	res := &Result{}
	tracker := report.New()
	defer func() {
		res.Report = tracker.Generate(opts.ToolVersion, report.Params{
			Repository:  opts.Repository,
			Pattern:     opts.Pattern,
			ProjectSlug: opts.ProjectSlug,
			Subfolder:   opts.Subfolder,
			ReleaseType: string(opts.ReleaseType),
			Tags:        opts.Tags,
			Overwrite:   opts.Overwrite,
			ManifestDir: opts.ManifestDir,
		})
	}()

	o.enter(res, Scanning)
	all, err := o.tags.Tags()
	if err != nil {
		return res, fmt.Errorf("%w: %v", puberrors.ErrSetup, err)
	}
	res.Matched = MatchTags(all, re)
	tracker.SetMatched(len(res.Matched))

	if len(res.Matched) == 0 {
		fmt.Fprintf(o.out, "No tags matched pattern %q.\n", opts.Pattern)
		o.enter(res, Done)
		return res, nil
	}

	renderMatches(o.out, opts.Pattern, res.Matched)
	o.enter(res, AwaitingTagConfirmation)
	ok, err := o.confirm.Confirm(fmt.Sprintf("Generate manifests for these %d tags?", len(res.Matched)))
	if err != nil {
		return res, err
	}
	if !ok {
		fmt.Fprintln(o.out, "Aborted. No manifests were generated.")
		res.Aborted = true
		return res, nil
	}

	dir, cleanup, err := o.manifestDir(opts)
	if err != nil {
		return res, err
	}
	defer cleanup()
	if opts.ManifestDir != "" {
		res.ManifestDir = dir
	}

	o.enter(res, GeneratingManifests)
	for _, tag := range res.Matched {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		o.logger.Info("Generating manifest", "tag", tag.Name)
		out := o.publisher.Publish(ctx, publisher.Request{
			Mode:         publisher.ModeManifest,
			Revision:     tag.Commit,
			Subfolder:    opts.Subfolder,
			ReleaseType:  opts.ReleaseType,
			Tags:         opts.Tags,
			ManifestPath: filepath.Join(dir, ManifestDirName(tag.Name), manifest.FileName),
		})
		tracker.Record(tag.Name, out)

		if out.Failed() {
			res.ManifestFailures = append(res.ManifestFailures, Failure{Tag: tag.Name, Err: out.Err})
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			Tag:          tag.Name,
			ManifestPath: out.ManifestPath,
			Manifest:     out.Manifest,
		})
	}

	renderFailures(o.out, "Manifest generation failed for:", res.ManifestFailures)
	if len(res.Candidates) == 0 {
		res.Summary = o.summarize(res)
		return res, fmt.Errorf("%w: all %d tags failed", puberrors.ErrNoManifests, len(res.Matched))
	}

	if err := renderReview(o.out, res.Candidates); err != nil {
		return res, err
	}
	o.enter(res, AwaitingManifestConfirmation)
	ok, err = o.confirm.Confirm(fmt.Sprintf("Upload %d releases to %s?", len(res.Candidates), opts.ProjectSlug))
	if err != nil {
		return res, err
	}
	if !ok {
		if res.ManifestDir != "" {
			fmt.Fprintf(o.out, "Aborted. Manifests kept in %s.\n", res.ManifestDir)
		} else {
			fmt.Fprintln(o.out, "Aborted. Nothing was uploaded.")
		}
		res.Aborted = true
		return res, nil
	}

	o.enter(res, Uploading)
	for _, c := range res.Candidates {
		if err := ctx.Err(); err != nil {
			res.Summary = o.summarize(res)
			return res, err
		}

		o.logger.Info("Uploading", "tag", c.Tag, "version", c.Manifest.Version)
		out := o.publisher.Publish(ctx, publisher.Request{
			Mode:         publisher.ModeUpload,
			ManifestPath: c.ManifestPath,
			ProjectSlug:  opts.ProjectSlug,
			Overwrite:    opts.Overwrite,
		})
		tracker.Record(c.Tag, out)

		switch out.Status {
		case publisher.StatusPublished:
			res.Summary.Published++
		case publisher.StatusSkipped:
			res.Summary.Skipped++
		default:
			res.UploadFailures = append(res.UploadFailures, Failure{Tag: c.Tag, Err: out.Err})
		}
	}

	renderFailures(o.out, "Upload failed for:", res.UploadFailures)
	res.Summary = o.summarize(res)
	renderSummary(o.out, res.Summary)
	o.enter(res, Done)
	return res, nil
}

func (o *Orchestrator) enter(res *Result, state State) {
	o.logger.Debug("Batch state", "state", state)
	res.State = state
}

func (o *Orchestrator) summarize(res *Result) Summary {
	s := Summary{
		Published: res.Summary.Published,
		Skipped:   res.Summary.Skipped,
		Total:     len(res.Candidates),
	}
	for _, f := range res.ManifestFailures {
		s.Failed = append(s.Failed, f.Tag)
	}
	for _, f := range res.UploadFailures {
		s.Failed = append(s.Failed, f.Tag)
	}
	return s
}

func (o *Orchestrator) manifestDir(opts Options) (string, func(), error) {
	if opts.ManifestDir != "" {
		if err := os.MkdirAll(opts.ManifestDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("%w: failed to create manifest directory: %v", puberrors.ErrSetup, err)
		}
		return opts.ManifestDir, func() {}, nil
	}

	dir, err := os.MkdirTemp(opts.TempDir, "sirseer-publish-manifests-")
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to create temporary manifest directory: %v", puberrors.ErrSetup, err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			o.logger.Warn("Failed to remove manifest directory", "dir", dir, "error", err)
		}
	}, nil
}
