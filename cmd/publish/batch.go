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
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-publish/internal/batch"
	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/prompt"
	"github.com/sirseerhq/sirseer-publish/internal/publisher"
	"github.com/sirseerhq/sirseer-publish/internal/report"
	"github.com/sirseerhq/sirseer-publish/pkg/version"
)

type batchOptions struct {
	releaseFlags
	pattern     string
	manifestDir string
	reportPath  string
}

func newBatchCommand() *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch <path-or-url>",
		Short: "Publish every tag matching a pattern",
		Long: `Publish every tag whose name matches a regular expression.

The pattern matches anywhere in the tag name: '^v1\.' selects v1.x tags,
'beta' selects any tag containing beta.

The run asks twice before doing anything irreversible:
  1. after listing the matched tags, before generating manifests
  2. after showing every generated manifest, before uploading

Only y or yes continues. A tag that fails is reported and skipped; the other
tags continue. Manifests are written to a temporary directory unless
--manifest-dir is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "Regular expression selecting tags (required)")
	cmd.Flags().StringVar(&opts.manifestDir, "manifest-dir", "", "Keep generated manifests in this directory")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write a JSON run report to this file")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

// runBatch executes the batch command
func runBatch(ctx context.Context, cmd *cobra.Command, target string, opts *batchOptions) error {
	if _, err := batch.CompilePattern(opts.pattern); err != nil {
		return err
	}

	s, err := opts.resolve(cmd)
	if err != nil {
		return err
	}
	if err := s.requireUpload(); err != nil {
		return err
	}
	client, err := s.hubClient()
	if err != nil {
		return err
	}

	repo, err := s.openRepository(ctx, target)
	if err != nil {
		return err
	}
	defer closeRepository(repo, s.logger)

	pub := publisher.New(repo, publisher.Options{
		Hub:          client,
		Releases:     s.releaseSource(),
		MetadataFile: s.metadataFile,
		Logger:       s.logger,
	})

	out := cmd.OutOrStdout()
	orchestrator := batch.New(repo, pub, prompt.New(cmd.InOrStdin(), out), out, s.logger)
	res, runErr := orchestrator.Run(ctx, batch.Options{
		Repository:  target,
		Pattern:     opts.pattern,
		ManifestDir: opts.manifestDir,
		Subfolder:   s.subfolder,
		ReleaseType: s.releaseType,
		Tags:        s.tags,
		ProjectSlug: s.projectSlug,
		Overwrite:   s.overwrite,
		ToolVersion: version.Version,
	})

	if res != nil && res.Report != nil {
		saveReport(s, res, opts.reportPath)
	}
	if runErr != nil {
		return runErr
	}

	if failed := res.Summary.Failed; len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d tags failed: %s",
			puberrors.ErrBatchIncomplete, len(failed), len(res.Matched), strings.Join(failed, ", "))
	}
	return nil
}

// saveReport writes the run report to --report, or next to manifests kept
// in --manifest-dir. A report that cannot be written is only a warning.
func saveReport(s *settings, res *batch.Result, reportPath string) {
	var (
		path string
		err  error
	)
	switch {
	case reportPath != "":
		path, err = reportPath, report.Save(res.Report, reportPath)
	case res.ManifestDir != "":
		path, err = report.SaveInDir(res.Report, res.ManifestDir)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("Failed to write run report", "path", path, "error", err)
		return
	}
	s.logger.Info("Run report written", "path", path)
}
