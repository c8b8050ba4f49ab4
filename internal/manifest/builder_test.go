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

package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/github"
	"github.com/sirseerhq/sirseer-publish/internal/vcs"
	"github.com/sirseerhq/sirseer-publish/test/testutil"
)

var commitTime = time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	state       vcs.State
	checkoutErr error
	checkedOut  []string
}

func (f *fakeRepo) Checkout(rev string) error {
	f.checkedOut = append(f.checkedOut, rev)
	return f.checkoutErr
}

func (f *fakeRepo) Head() (vcs.State, error) {
	return f.state, nil
}

// fakeSource returns a fixed release or error.
type fakeSource struct {
	release *github.Release
	err     error
	calls   int
	tags    []string
}

func (f *fakeSource) Lookup(ctx context.Context, remoteURL string, tags []string) (*github.Release, error) {
	f.calls++
	f.tags = tags
	return f.release, f.err
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "mods", "example"), 0o755))
	return &fakeRepo{state: vcs.State{
		Commit:    "0123456789abcdef0123456789abcdef01234567",
		Time:      commitTime,
		Message:   "  Release 2.3.0\n\nDetails.\n\n",
		RemoteURL: "https://github.com/example/mod.git",
		Root:      root,
		Tags:      []string{"v2.3.0"},
	}}
}

func TestDeriveDefaults(t *testing.T) {
	repo := newFakeRepo(t)
	b := NewBuilder(repo, nil, nil, nil)

	m, err := b.Derive(context.Background(), BuildOptions{Subfolder: "mods/example", Tags: []string{"client"}})
	require.NoError(t, err)

	assert.Equal(t, "2.3.0", m.Version)
	assert.Equal(t, "2.3.0", m.Name, "name defaults to version")
	assert.Equal(t, "Release 2.3.0\n\nDetails.", m.Changelog, "changelog defaults to trimmed message")
	assert.Equal(t, Release, m.ReleaseType)
	assert.True(t, m.ReleaseDate.Equal(commitTime), "release date is the commit time")
	assert.Equal(t, "https://github.com/example/mod.git", m.RepositoryURL)
	assert.Equal(t, repo.state.Commit, m.Commit)
	assert.Equal(t, "mods/example", m.Subfolder)
	assert.Equal(t, []string{"client"}, m.Tags)
	assert.Empty(t, repo.checkedOut, "no checkout without a revision")
	require.NoError(t, m.Validate())
}

func TestDeriveUpstreamRelease(t *testing.T) {
	tests := []struct {
		name          string
		source        *fakeSource
		remote        string
		wantName      string
		wantChangelog string
		wantCalls     int
	}{
		{
			name:          "release overrides name and changelog",
			source:        &fakeSource{release: &github.Release{Name: "Spring Update", Description: "Notes"}},
			remote:        "https://github.com/example/mod.git",
			wantName:      "Spring Update",
			wantChangelog: "Notes",
			wantCalls:     1,
		},
		{
			name:          "release without name keeps version",
			source:        &fakeSource{release: &github.Release{Description: "Only notes"}},
			remote:        "https://github.com/example/mod.git",
			wantName:      "2.3.0",
			wantChangelog: "Only notes",
			wantCalls:     1,
		},
		{
			name:          "lookup failure is a warning",
			source:        &fakeSource{err: fmt.Errorf("boom: %w", puberrors.ErrInvalidToken)},
			remote:        "https://github.com/example/mod.git",
			wantName:      "2.3.0",
			wantChangelog: "Release 2.3.0\n\nDetails.",
			wantCalls:     1,
		},
		{
			name:          "no remote skips lookup",
			source:        &fakeSource{release: &github.Release{Name: "unused"}},
			remote:        "",
			wantName:      "2.3.0",
			wantChangelog: "Release 2.3.0\n\nDetails.",
			wantCalls:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(t)
			repo.state.RemoteURL = tt.remote

			m, err := NewBuilder(repo, tt.source, nil, nil).Derive(context.Background(), BuildOptions{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, m.Name)
			assert.Equal(t, tt.wantChangelog, m.Changelog)
			assert.Equal(t, tt.wantCalls, tt.source.calls)
			if tt.wantCalls > 0 {
				assert.Equal(t, []string{"v2.3.0"}, tt.source.tags)
			}
		})
	}
}

func TestDeriveErrors(t *testing.T) {
	t.Run("checkout failure", func(t *testing.T) {
		repo := newFakeRepo(t)
		repo.checkoutErr = fmt.Errorf("%w: v9", puberrors.ErrCheckout)

		_, err := NewBuilder(repo, nil, nil, nil).Derive(context.Background(), BuildOptions{Revision: "v9"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, puberrors.ErrCheckout))
		assert.Equal(t, []string{"v9"}, repo.checkedOut)
	})

	t.Run("missing subfolder", func(t *testing.T) {
		repo := newFakeRepo(t)
		_, err := NewBuilder(repo, nil, nil, nil).Derive(context.Background(), BuildOptions{Subfolder: "nope"})
		assert.ErrorContains(t, err, "project directory nope does not exist")
	})

	t.Run("bad release type", func(t *testing.T) {
		repo := newFakeRepo(t)
		_, err := NewBuilder(repo, nil, nil, nil).Derive(context.Background(), BuildOptions{ReleaseType: "nightly"})
		assert.Error(t, err)
	})
}

func TestBuildWithGitRepository(t *testing.T) {
	base := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	fixture := testutil.ModRepo(t, base, "1.0.0", "1.1.0")

	repo, err := vcs.Open(fixture.Dir)
	require.NoError(t, err)

	outDir := t.TempDir()
	m, path, err := NewBuilder(repo, nil, nil, nil).Build(context.Background(), BuildOptions{
		Revision:    "v1.0.0",
		Subfolder:   "mods/example",
		ReleaseType: Alpha,
		OutputPath:  outDir,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, FileName), path)
	assert.Equal(t, "1.0.0", m.Version, "declared version in modinfo.json")
	assert.Equal(t, Alpha, m.ReleaseType)
	assert.True(t, m.ReleaseDate.Equal(base))
	assert.Equal(t, "Release 1.0.0\n\nChanges for 1.0.0.", m.Changelog)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Commit, loaded.Commit)
}
