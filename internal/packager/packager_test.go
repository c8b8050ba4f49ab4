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

package packager

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func archiveEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer r.Close()

	entries := make(map[string]string)
	for _, f := range r.File {
		if f.Method != zip.Deflate {
			t.Errorf("entry %s uses method %d, want deflate", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(data)
	}
	return entries
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.0", "1.2.0.zip"},
		{"Spring Update", "Spring Update.zip"},
		{"v2: the/best!", "v2 thebest.zip"},
		{"Mod_Name-1.0", "Mod_Name-1.0.zip"},
		{"Über Mod", "Über Mod.zip"},
		{"!!!", "release.zip"},
		{"", "release.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ArchiveName(tt.in); got != tt.want {
				t.Errorf("ArchiveName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPackExcludesControlFiles(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"modinfo.json":           `{"version": "1.0"}`,
		"manifest.json":          `{"version": "1.0"}`,
		"assets/data.txt":        "data",
		"assets/manifest.json":   "nested manifests are content",
		".git/HEAD":              "ref: refs/heads/main",
		"vendor/lib/.git/config": "[core]",
		"vendor/lib/lib.txt":     "lib",
	})

	path, err := Pack(src, "Example 1.0", t.TempDir())
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if filepath.Base(path) != "Example 1.0.zip" {
		t.Errorf("archive name = %s", filepath.Base(path))
	}

	entries := archiveEntries(t, path)
	var names []string
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	want := []string{"assets/data.txt", "assets/manifest.json", "modinfo.json", "vendor/lib/lib.txt"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entries = %v, want %v", names, want)
			break
		}
	}
	if entries["assets/data.txt"] != "data" {
		t.Errorf("unexpected content %q", entries["assets/data.txt"])
	}
}

func TestPackSameFileSet(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a", "b/c.txt": "c"})

	first, err := Pack(src, "x", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Pack(src, "x", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	a, b := archiveEntries(t, first), archiveEntries(t, second)
	if len(a) != len(b) {
		t.Fatalf("file sets differ: %v vs %v", a, b)
	}
	for name, content := range a {
		if b[name] != content {
			t.Errorf("entry %s differs", name)
		}
	}
}

func TestPackErrors(t *testing.T) {
	if _, err := Pack(filepath.Join(t.TempDir(), "missing"), "x", t.TempDir()); err == nil {
		t.Error("expected error for missing source")
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Pack(file, "x", t.TempDir()); err == nil {
		t.Error("expected error for non-directory source")
	}
}

func TestPackIntoSourceDirectory(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})

	path, err := Pack(src, "self", src)
	if err != nil {
		t.Fatal(err)
	}
	entries := archiveEntries(t, path)
	if _, ok := entries["self.zip"]; ok {
		t.Error("archive must not contain itself")
	}
	if len(entries) != 1 {
		t.Errorf("entries = %v", entries)
	}
}
