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

// Package publisher runs the checkout, manifest, package and upload flow
// for one repository state. Every failure is returned inside an Outcome so
// batch callers can continue with the next candidate.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/gate"
	"github.com/sirseerhq/sirseer-publish/internal/hub"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
	"github.com/sirseerhq/sirseer-publish/internal/manifest"
	"github.com/sirseerhq/sirseer-publish/internal/packager"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
	"github.com/sirseerhq/sirseer-publish/internal/versioning"
)

// Mode selects which phases run.
type Mode string

// Supported modes.
const (
	ModeManifest Mode = "manifest"
	ModeUpload   Mode = "upload"
	ModeBoth     Mode = "both"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeManifest, ModeUpload, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be one of manifest, upload, both", s)
	}
}

// Generates reports whether the mode builds a manifest.
func (m Mode) Generates() bool { return m == ModeManifest || m == ModeBoth }

// Uploads reports whether the mode uploads.
func (m Mode) Uploads() bool { return m == ModeUpload || m == ModeBoth }

// Status is the tagged result of a publish.
type Status int

const (
	StatusFailed Status = iota
	StatusGenerated
	StatusPublished
	StatusSkipped
)

// String returns a lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusGenerated:
		return "generated"
	case StatusPublished:
		return "published"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Stage names the phase an outcome ended in.
type Stage string

const (
	StageManifest Stage = "manifest"
	StageUpload   Stage = "upload"
)

// Outcome is the result of one Publish call.
type Outcome struct {
	Status       Status
	Stage        Stage
	Manifest     *manifest.Manifest
	ManifestPath string
	Decision     gate.Decision
	Duration     time.Duration
	Err          error
}

// Failed reports whether the publish failed.
func (o Outcome) Failed() bool { return o.Status == StatusFailed }

// Request describes one publish.
type Request struct {
	Mode Mode
	// Revision is checked out before the manifest is built.
	Revision    string
	Subfolder   string
	ReleaseType manifest.ReleaseType
	Tags        []string
	// ManifestPath is where the manifest is written or read.
	ManifestPath string
	ProjectSlug  string
	Overwrite    bool
}

// Repository is the version-control collaborator. *vcs.Repo implements it.
type Repository interface {
	manifest.Repository
	Root() string
}

// Options configures a Publisher.
type Options struct {
	// Hub is required for the upload phase.
	Hub hub.Client
	// Releases is optional upstream release metadata.
	Releases manifest.ReleaseSource
	// MetadataFile overrides the project metadata file name.
	MetadataFile string
	// TempDir is the parent of per-call archive directories.
	TempDir string
	Logger  *log.Logger
}

// Publisher publishes states of one repository. It is not safe for
// concurrent use because builds check out revisions in the shared worktree.
type Publisher struct {
	repo    Repository
	builder *manifest.Builder
	gate    *gate.Gate
	hub     hub.Client
	tempDir string
	logger  *log.Logger
}

// New creates a Publisher for repo.
func New(repo Repository, opts Options) *Publisher {
	logger := logging.OrDiscard(opts.Logger)
	resolver := &versioning.Resolver{MetadataFile: opts.MetadataFile, Logger: logger}

	p := &Publisher{
		repo:    repo,
		builder: manifest.NewBuilder(repo, opts.Releases, resolver, logger),
		hub:     opts.Hub,
		tempDir: opts.TempDir,
		logger:  logger,
	}
	if opts.Hub != nil {
		p.gate = gate.New(opts.Hub, logger)
	}
	return p
}

// Publish runs the phases selected by req.Mode. It never panics past the
// caller and never returns a bare error: failures are in the Outcome.
func (p *Publisher) Publish(ctx context.Context, req Request) Outcome {
	start := time.Now()
	out := p.publish(ctx, req)
	out.Duration = time.Since(start)
	if out.Err != nil {
		p.logger.Error("Publish failed", "stage", out.Stage, "error", out.Err)
	}
	return out
}

func (p *Publisher) publish(ctx context.Context, req Request) Outcome {
	if _, err := ParseMode(string(req.Mode)); err != nil {
		return Outcome{Status: StatusFailed, Stage: StageManifest, Err: fmt.Errorf("%w: %v", puberrors.ErrSetup, err)}
	}

	var (
		m    *manifest.Manifest
		path string
		err  error
	)

	if req.Mode.Generates() {
		m, path, err = p.builder.Build(ctx, manifest.BuildOptions{
			Revision:    req.Revision,
			Subfolder:   req.Subfolder,
			ReleaseType: req.ReleaseType,
			Tags:        req.Tags,
			OutputPath:  req.ManifestPath,
		})
		if err != nil {
			return Outcome{Status: StatusFailed, Stage: StageManifest, Err: err}
		}
		if !req.Mode.Uploads() {
			return Outcome{Status: StatusGenerated, Stage: StageManifest, Manifest: m, ManifestPath: path}
		}
	} else {
		path = manifest.ResolvePath(req.ManifestPath)
		m, err = manifest.Load(path)
		if err != nil {
			return Outcome{Status: StatusFailed, Stage: StageUpload, ManifestPath: path, Err: err}
		}
		if m.Subfolder != req.Subfolder {
			p.logger.Info("Using subfolder from manifest", "subfolder", m.Subfolder)
		}
	}

	out := p.Upload(ctx, m, req.ProjectSlug, req.Overwrite)
	out.ManifestPath = path
	return out
}

// Upload gates, packs and uploads the project tree described by m. The
// worktree is moved to m.Commit first when HEAD differs. The archive is
// removed on every path.
func (p *Publisher) Upload(ctx context.Context, m *manifest.Manifest, slug string, overwrite bool) Outcome {
	fail := func(err error) Outcome {
		return Outcome{Status: StatusFailed, Stage: StageUpload, Manifest: m, Err: err}
	}

	if p.hub == nil || slug == "" {
		return fail(fmt.Errorf("%w: project slug and hub client are required for upload", puberrors.ErrSetup))
	}

	if err := p.ensureCommit(m.Commit); err != nil {
		return fail(err)
	}

	projectDir := filepath.Join(p.repo.Root(), filepath.FromSlash(m.Subfolder))
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return fail(fmt.Errorf("%w: project directory from manifest not found: %s", puberrors.ErrSetup, projectDir))
	}

	decision := p.gate.ShouldPublish(ctx, slug, m.Version, overwrite)
	if decision.Action == gate.Skip {
		return Outcome{Status: StatusSkipped, Stage: StageUpload, Manifest: m, Decision: decision}
	}

	workDir, err := os.MkdirTemp(p.tempDir, "sirseer-publish-archive-")
	if err != nil {
		return fail(fmt.Errorf("%w: %v", puberrors.ErrUpload, err))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			p.logger.Warn("Failed to remove archive directory", "dir", workDir, "error", err)
		}
	}()

	p.logger.Info("Packing project", "dir", projectDir)
	archive, err := packager.Pack(projectDir, m.Name, workDir)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", puberrors.ErrUpload, err))
	}

	p.logger.Info("Uploading", "project", slug, "version", m.Version, "archive", filepath.Base(archive))
	_, err = p.hub.CreateVersion(ctx, slug, UploadRequest(m, archive, decision.Overwrite))
	if err != nil {
		out := fail(fmt.Errorf("%w: %w", puberrors.ErrUpload, err))
		out.Decision = decision
		return out
	}

	p.logger.Info("Upload successful", "project", slug, "version", m.Version)
	return Outcome{Status: StatusPublished, Stage: StageUpload, Manifest: m, Decision: decision}
}

// UploadRequest maps a manifest to the hosting service request. The
// manifest is the only source of the payload's metadata.
func UploadRequest(m *manifest.Manifest, archivePath string, overwrite bool) hub.CreateVersionRequest {
	return hub.CreateVersionRequest{
		Name:        m.Name,
		Version:     m.Version,
		ReleaseType: string(m.ReleaseType),
		ReleaseDate: m.ReleaseDate,
		Changelog:   m.Changelog,
		Tags:        m.Tags,
		ArchivePath: archivePath,
		Overwrite:   overwrite,
	}
}

// ensureCommit checks out commit when the worktree is elsewhere.
func (p *Publisher) ensureCommit(commit string) error {
	state, err := p.repo.Head()
	if err != nil {
		return fmt.Errorf("%w: %v", puberrors.ErrCheckout, err)
	}
	if state.Commit == commit {
		return nil
	}
	p.logger.Info("Checking out manifest commit", "commit", commit)
	if err := p.repo.Checkout(commit); err != nil {
		if errors.Is(err, puberrors.ErrCheckout) {
			return err
		}
		return fmt.Errorf("%w: %v", puberrors.ErrCheckout, err)
	}
	return nil
}

var _ Repository = (*vcs.Repo)(nil)
