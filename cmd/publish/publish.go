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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/hub"
	"github.com/sirseerhq/sirseer-publish/internal/publisher"
)

type publishOptions struct {
	releaseFlags
	commit       string
	tag          string
	manifestPath string
	mode         string
}

func newPublishCommand() *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish <path-or-url>",
		Short: "Publish one repository state to Hub01",
		Long: `Publish one repository state to Hub01.

The repository is a local path or a clone URL. Without --commit or --tag the
current HEAD is published. The version comes from the project's modinfo.json,
then from a tag at the commit, then from the commit timestamp.

Modes:
  manifest  write the release manifest only
  upload    upload using an existing manifest
  both      write the manifest and upload (default)

Authentication:
  - Hub01 token via --api-token or HUB01_API_TOKEN
  - Optional GitHub token via --github-token or GITHUB_TOKEN`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.commit, "commit", "", "Commit to publish")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "Tag to publish")
	cmd.Flags().StringVar(&opts.manifestPath, "manifest-path", "", "Manifest file or directory (default: ./manifest.json)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(publisher.ModeBoth), "What to do: manifest, upload or both")
	cmd.MarkFlagsMutuallyExclusive("commit", "tag")

	return cmd
}

// runPublish executes the publish command
func runPublish(ctx context.Context, cmd *cobra.Command, target string, opts *publishOptions) error {
	mode, err := publisher.ParseMode(opts.mode)
	if err != nil {
		return fmt.Errorf("%w: %w", puberrors.ErrSetup, err)
	}

	s, err := opts.resolve(cmd)
	if err != nil {
		return err
	}

	var client hub.Client
	if mode.Uploads() {
		if err := s.requireUpload(); err != nil {
			return err
		}
		if client, err = s.hubClient(); err != nil {
			return err
		}
	}

	repo, err := s.openRepository(ctx, target)
	if err != nil {
		return err
	}
	defer closeRepository(repo, s.logger)

	if mode.Generates() {
		projectDir := filepath.Join(repo.Root(), filepath.FromSlash(s.subfolder))
		if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: project directory not found: %s", puberrors.ErrSetup, projectDir)
		}
	}

	revision := opts.commit
	if opts.tag != "" {
		revision = opts.tag
	}

	pub := publisher.New(repo, publisher.Options{
		Hub:          client,
		Releases:     s.releaseSource(),
		MetadataFile: s.metadataFile,
		Logger:       s.logger,
	})
	out := pub.Publish(ctx, publisher.Request{
		Mode:         mode,
		Revision:     revision,
		Subfolder:    s.subfolder,
		ReleaseType:  s.releaseType,
		Tags:         s.tags,
		ManifestPath: opts.manifestPath,
		ProjectSlug:  s.projectSlug,
		Overwrite:    s.overwrite,
	})

	printOutcome(cmd.OutOrStdout(), out, s.projectSlug)
	if out.Failed() {
		return out.Err
	}
	return nil
}

func printOutcome(w io.Writer, out publisher.Outcome, slug string) {
	switch out.Status {
	case publisher.StatusGenerated:
		fmt.Fprintf(w, "Manifest for version %s written to %s\n", out.Manifest.Version, out.ManifestPath)
	case publisher.StatusPublished:
		fmt.Fprintf(w, "Published %s version %s\n", slug, out.Manifest.Version)
	case publisher.StatusSkipped:
		fmt.Fprintf(w, "Version %s already exists on %s, skipped (use --overwrite to replace it)\n", out.Manifest.Version, slug)
	}
}
