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

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepo is an on-disk git repository used as a test fixture.
type GitRepo struct {
	t    testing.TB
	Dir  string
	Repo *git.Repository
}

// NewGitRepo initializes an empty non-bare repository in a temp directory.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init git repository: %v", err)
	}
	return &GitRepo{t: t, Dir: dir, Repo: repo}
}

// WriteFile writes content to a path relative to the repository root,
// creating parent directories.
func (g *GitRepo) WriteFile(rel, content string) {
	g.t.Helper()

	path := filepath.Join(g.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		g.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		g.t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// RemoveFile deletes a path relative to the repository root.
func (g *GitRepo) RemoveFile(rel string) {
	g.t.Helper()

	if err := os.Remove(filepath.Join(g.Dir, filepath.FromSlash(rel))); err != nil {
		g.t.Fatalf("Failed to remove %s: %v", rel, err)
	}
}

// Commit stages every change and commits it with the given message and
// timestamp. Returns the commit hash.
func (g *GitRepo) Commit(message string, when time.Time) string {
	g.t.Helper()

	wt, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("Failed to get worktree: %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		g.t.Fatalf("Failed to stage changes: %v", err)
	}

	sig := &object.Signature{Name: "Test Author", Email: "author@example.com", When: when}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		g.t.Fatalf("Failed to commit: %v", err)
	}
	return hash.String()
}

// Tag creates a tag at HEAD. A non-empty message creates an annotated tag.
func (g *GitRepo) Tag(name, message string) {
	g.t.Helper()

	head, err := g.Repo.Head()
	if err != nil {
		g.t.Fatalf("Failed to resolve HEAD: %v", err)
	}

	var opts *git.CreateTagOptions
	if message != "" {
		opts = &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: "Test Tagger", Email: "tagger@example.com", When: time.Now()},
			Message: message,
		}
	}
	if _, err := g.Repo.CreateTag(name, head.Hash(), opts); err != nil {
		g.t.Fatalf("Failed to create tag %s: %v", name, err)
	}
}

// SetRemote configures the origin remote URL.
func (g *GitRepo) SetRemote(url string) {
	g.t.Helper()

	_, err := g.Repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{url}})
	if err != nil {
		g.t.Fatalf("Failed to create remote: %v", err)
	}
}

// Head returns the current HEAD commit hash.
func (g *GitRepo) Head() string {
	g.t.Helper()

	ref, err := g.Repo.Head()
	if err != nil {
		g.t.Fatalf("Failed to resolve HEAD: %v", err)
	}
	return ref.Hash().String()
}

// TagCommit returns the commit hash a tag points at.
func (g *GitRepo) TagCommit(name string) string {
	g.t.Helper()

	hash, err := g.Repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		g.t.Fatalf("Failed to resolve tag %s: %v", name, err)
	}
	return hash.String()
}

// CheckoutCommit moves the worktree to the given commit.
func (g *GitRepo) CheckoutCommit(hash string) {
	g.t.Helper()

	wt, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("Failed to get worktree: %v", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(hash), Force: true}); err != nil {
		g.t.Fatalf("Failed to checkout %s: %v", hash, err)
	}
}

// ModRepo builds the fixture most publish tests start from: a mod with a
// modinfo.json in mods/example, one tag per version given, each on its own
// commit one day apart starting at base.
func ModRepo(t testing.TB, base time.Time, versions ...string) *GitRepo {
	t.Helper()

	g := NewGitRepo(t)
	g.WriteFile("README.md", "# example\n")
	for i, v := range versions {
		g.WriteFile("mods/example/modinfo.json", `{"name": "Example", "version": "`+v+`"}`)
		g.WriteFile("mods/example/assets/data.txt", "release "+v+"\n")
		g.Commit("Release "+v+"\n\nChanges for "+v+".\n", base.Add(time.Duration(i)*24*time.Hour))
		g.Tag("v"+v, "")
	}
	return g
}
