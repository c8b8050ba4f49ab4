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

package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-publish/test/testutil"
)

const hubToken = "integration-token"

type fixture struct {
	repo *testutil.GitRepo
	hub  *testutil.HubServer
	home string
}

func newFixture(t *testing.T, versions ...string) *fixture {
	t.Helper()
	return &fixture{
		repo: testutil.ModRepo(t, time.Date(2024, 4, 2, 14, 30, 0, 0, time.UTC), versions...),
		hub:  testutil.NewHubServer(t, hubToken),
		home: t.TempDir(),
	}
}

func (f *fixture) uploadFlags() []string {
	return []string{"--project-slug", "example-mod", "--api-url", f.hub.URL, "--api-token", hubToken}
}

// run executes the binary with an empty HOME so no user config is read.
func (f *fixture) run(t *testing.T, stdin string, env map[string]string, args ...string) testutil.CLIResult {
	t.Helper()

	merged := map[string]string{"HOME": f.home, "SIRSEER_RETRY_MAX": "0"}
	for k, v := range env {
		merged[k] = v
	}
	return testutil.RunCLIWithOptions(t, args, testutil.CLIOptions{Stdin: stdin, Env: merged})
}

func TestCLI_HelpCommand(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"--help"}, []string{"publish", "batch"}},
		{[]string{"publish", "--help"}, []string{"--mode", "--manifest-path", "--overwrite", "--commit", "--tag"}},
		{[]string{"batch", "--help"}, []string{"--pattern", "--manifest-dir", "--report"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			result := f.run(t, "", nil, tt.args...)
			testutil.AssertCLISuccess(t, result)
			for _, want := range tt.want {
				if !strings.Contains(result.Stdout, want) {
					t.Errorf("help output missing %q", want)
				}
			}
		})
	}
}

func TestCLI_VersionFlag(t *testing.T) {
	f := newFixture(t)

	result := f.run(t, "", nil, "--version")
	testutil.AssertCLISuccess(t, result)

	if !strings.Contains(result.Stdout, "sirseer-publish") {
		t.Error("Expected binary name in version output")
	}
}

func TestCLI_InvalidFlags(t *testing.T) {
	f := newFixture(t, "1.0.0")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown flag",
			args:    []string{"publish", f.repo.Dir, "--unknown-flag"},
			wantErr: "unknown flag",
		},
		{
			name:    "missing repository argument",
			args:    []string{"publish"},
			wantErr: "accepts 1 arg",
		},
		{
			name:    "commit and tag together",
			args:    []string{"publish", f.repo.Dir, "--commit", "abc", "--tag", "v1.0.0"},
			wantErr: "none of the others can be",
		},
		{
			name:    "batch without pattern",
			args:    []string{"batch", f.repo.Dir},
			wantErr: "required flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.run(t, "", nil, tt.args...)
			testutil.AssertCLIError(t, result, tt.wantErr)
		})
	}
}

// TestCLI_ExitCodes verifies that the CLI returns appropriate exit codes
func TestCLI_ExitCodes(t *testing.T) {
	f := newFixture(t, "1.0.0")
	missing := t.TempDir() + "/nothing-here"

	tests := []struct {
		name         string
		args         []string
		stdin        string
		wantExitCode int
	}{
		{
			name:         "manifest only",
			args:         []string{"publish", f.repo.Dir, "--mode", "manifest", "--manifest-path", t.TempDir()},
			wantExitCode: 0,
		},
		{
			name:         "repository not found",
			args:         []string{"publish", missing, "--mode", "manifest"},
			wantExitCode: 2,
		},
		{
			name:         "missing api token",
			args:         []string{"publish", f.repo.Dir, "--project-slug", "example-mod", "--api-url", f.hub.URL},
			wantExitCode: 2,
		},
		{
			name:         "invalid pattern",
			args:         append([]string{"batch", f.repo.Dir, "--pattern", "v1.("}, f.uploadFlags()...),
			wantExitCode: 2,
		},
		{
			name:         "unknown tag",
			args:         []string{"publish", f.repo.Dir, "--mode", "manifest", "--tag", "v9.9.9", "--manifest-path", t.TempDir()},
			wantExitCode: 1,
		},
		{
			name:         "batch declined",
			args:         append([]string{"batch", f.repo.Dir, "--pattern", "^v"}, f.uploadFlags()...),
			stdin:        "n\n",
			wantExitCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.run(t, tt.stdin, nil, tt.args...)
			testutil.AssertExitCode(t, result, tt.wantExitCode)
		})
	}
}
