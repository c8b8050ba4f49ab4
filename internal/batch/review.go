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
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sirseerhq/sirseer-publish/internal/manifest"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	skipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	manifestStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("242")).
			Padding(0, 1)
)

func renderMatches(w io.Writer, pattern string, tags []vcs.Tag) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d tags match %q:", len(tags), pattern)))
	for _, tag := range tags {
		fmt.Fprintf(w, "  %s %s\n", tag.Name, labelStyle.Render(shortHash(tag.Commit)))
	}
}

// renderReview prints every candidate manifest exactly as it is stored.
func renderReview(w io.Writer, candidates []Candidate) error {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Review %d generated manifests:", len(candidates))))
	for _, c := range candidates {
		data, err := manifest.Encode(c.Manifest)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s %s", headerStyle.Render(c.Tag), labelStyle.Render(c.ManifestPath))
		body := strings.TrimRight(string(data), "\n")
		fmt.Fprintln(w, manifestStyle.Render(title+"\n\n"+body))
	}
	return nil
}

func renderFailures(w io.Writer, heading string, failures []Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, failStyle.Render(heading))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s: %v\n", f.Tag, f.Err)
	}
}

func renderSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, headerStyle.Render("Batch summary"))
	fmt.Fprintf(w, "  %s %d/%d\n", okStyle.Render("published:"), s.Published, s.Total)
	fmt.Fprintf(w, "  %s %d\n", skipStyle.Render("skipped:  "), s.Skipped)
	if len(s.Failed) == 0 {
		fmt.Fprintf(w, "  %s none\n", labelStyle.Render("failed:   "))
		return
	}
	fmt.Fprintf(w, "  %s %s\n", failStyle.Render("failed:   "), strings.Join(s.Failed, ", "))
}

func shortHash(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
