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
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/sirseerhq/sirseer-publish/test/testutil"
)

func TestPublish_EndToEnd(t *testing.T) {
	f := newFixture(t, "1.0.0")
	manifestDir := t.TempDir()

	args := append([]string{"publish", f.repo.Dir, "--subfolder", "mods/example", "--manifest-path", manifestDir, "--release-type", "alpha"}, f.uploadFlags()...)
	result := f.run(t, "", nil, args...)
	testutil.AssertCLISuccess(t, result)

	uploads := f.hub.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	up := uploads[0]
	if up.Version != "1.0.0" || up.ReleaseType != "alpha" || up.Overwrite {
		t.Errorf("unexpected upload %+v", up)
	}
	if up.Changelog != "Release 1.0.0\n\nChanges for 1.0.0." {
		t.Errorf("changelog = %q", up.Changelog)
	}

	entries := testutil.ZipEntries(t, up.Archive)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	if want := []string{"assets/data.txt", "modinfo.json"}; !reflect.DeepEqual(names, want) {
		t.Errorf("archive entries = %v, want %v", names, want)
	}

	// Publishing again is a no-op.
	result = f.run(t, "", nil, args...)
	testutil.AssertCLISuccess(t, result)
	if len(f.hub.Uploads()) != 1 {
		t.Error("second publish must not upload")
	}
	if !strings.Contains(result.Stdout, "already exists") {
		t.Errorf("expected skip message, got: %s", result.Stdout)
	}

	// With --overwrite the version is replaced once.
	result = f.run(t, "", nil, append(args, "--overwrite")...)
	testutil.AssertCLISuccess(t, result)
	uploads = f.hub.Uploads()
	if len(uploads) != 2 || !uploads[1].Overwrite {
		t.Fatalf("expected one overwriting upload, got %+v", uploads)
	}
	if !reflect.DeepEqual(testutil.ZipEntries(t, uploads[1].Archive), entries) {
		t.Error("overwrite uploaded different archive content")
	}
}

// TestPublish_SplitModes generates a manifest in one process and uploads
// it from another one started on a different commit.
func TestPublish_SplitModes(t *testing.T) {
	f := newFixture(t, "1.0.0", "1.1.0")
	manifestDir := t.TempDir()

	result := f.run(t, "", nil, "publish", f.repo.Dir,
		"--mode", "manifest", "--tag", "v1.0.0", "--subfolder", "mods/example",
		"--tags", "forge,client", "--manifest-path", manifestDir)
	testutil.AssertCLISuccess(t, result)

	manifestPath := filepath.Join(manifestDir, "manifest.json")
	var m struct {
		Version     string   `json:"version"`
		Commit      string   `json:"commit"`
		ReleaseType string   `json:"release_type"`
		ReleaseDate string   `json:"release_date"`
		Subfolder   string   `json:"subfolder"`
		Tags        []string `json:"tags"`
		Name        string   `json:"name"`
		Changelog   string   `json:"changelog"`
	}
	testutil.ReadJSON(t, manifestPath, &m)
	if m.Version != "1.0.0" || m.Subfolder != "mods/example" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if len(f.hub.Uploads()) != 0 || f.hub.GetCount() != 0 {
		t.Fatal("manifest mode contacted the service")
	}

	// Move the worktree to the newer tag before uploading.
	f.repo.CheckoutCommit(f.repo.TagCommit("v1.1.0"))

	args := append([]string{"publish", f.repo.Dir, "--mode", "upload", "--manifest-path", manifestPath}, f.uploadFlags()...)
	result = f.run(t, "", nil, args...)
	testutil.AssertCLISuccess(t, result)

	uploads := f.hub.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	up := uploads[0]
	if up.Version != m.Version || up.Name != m.Name || up.Changelog != m.Changelog ||
		up.ReleaseType != m.ReleaseType || !reflect.DeepEqual(up.Tags, m.Tags) {
		t.Errorf("upload %+v does not match manifest %+v", up, m)
	}
	if got := testutil.ZipEntries(t, up.Archive)["assets/data.txt"]; got != "release 1.0.0\n" {
		t.Errorf("archived the wrong tree: data.txt = %q", got)
	}
}

func TestPublish_ConfigPrecedence(t *testing.T) {
	f := newFixture(t, "1.0.0")
	configPath := testutil.WriteConfig(t, `
defaults:
  release_type: alpha
projects:
  example-mod:
    subfolder: mods/example
    tags: [forge]
`)
	base := append([]string{"publish", f.repo.Dir, "--config", configPath, "--manifest-path", t.TempDir(), "--overwrite"}, f.uploadFlags()...)

	tests := []struct {
		name     string
		env      map[string]string
		extra    []string
		wantType string
		wantTags []string
	}{
		{name: "config file", wantType: "alpha", wantTags: []string{"forge"}},
		{name: "env overrides file", env: map[string]string{"SIRSEER_RELEASE_TYPE": "beta"}, wantType: "beta", wantTags: []string{"forge"}},
		{name: "flag overrides env", env: map[string]string{"SIRSEER_RELEASE_TYPE": "beta"}, extra: []string{"--release-type", "release", "--tags", "fabric"}, wantType: "release", wantTags: []string{"fabric"}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.run(t, "", tt.env, append(base, tt.extra...)...)
			testutil.AssertCLISuccess(t, result)

			uploads := f.hub.Uploads()
			if len(uploads) != i+1 {
				t.Fatalf("got %d uploads, want %d", len(uploads), i+1)
			}
			up := uploads[i]
			if up.ReleaseType != tt.wantType {
				t.Errorf("release type = %s, want %s", up.ReleaseType, tt.wantType)
			}
			if !reflect.DeepEqual(up.Tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", up.Tags, tt.wantTags)
			}
		})
	}
}

func TestPublish_DotEnv(t *testing.T) {
	f := newFixture(t, "1.0.0")
	workDir := t.TempDir()
	dotenv := "HUB01_API_URL=" + f.hub.URL + "\nHUB01_API_TOKEN=" + hubToken + "\n"
	if err := os.WriteFile(filepath.Join(workDir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}

	result := testutil.RunCLIWithOptions(t,
		[]string{"publish", f.repo.Dir, "--subfolder", "mods/example", "--project-slug", "example-mod"},
		testutil.CLIOptions{Dir: workDir, Env: map[string]string{"HOME": f.home}})
	testutil.AssertCLISuccess(t, result)

	if len(f.hub.Uploads()) != 1 {
		t.Error("credentials from .env were not used")
	}
	testutil.AssertFileExists(t, filepath.Join(workDir, "manifest.json"))
}
