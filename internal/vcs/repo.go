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

package vcs

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
)

// State is an immutable snapshot of a repository at one commit.
type State struct {
	Commit    string
	Time      time.Time
	Message   string
	RemoteURL string
	Root      string
	// Tags holds the names of tags pointing exactly at Commit, sorted.
	Tags []string
}

// Tag is a tag name and the commit it points at. Annotated tags are
// peeled to their commit.
type Tag struct {
	Name   string
	Commit string
}

// Options configures how a repository is resolved.
type Options struct {
	// Token authenticates HTTPS clones of private repositories. It is only
	// sent to TokenHosts.
	Token string
	// TokenHosts lists the hosts that may receive Token. Empty means
	// github.com only.
	TokenHosts []string
	// TempDir is the parent directory for clones. Empty means os.TempDir.
	TempDir string
	Logger  *log.Logger
}

// Repo is an opened or cloned repository.
type Repo struct {
	repo   *git.Repository
	root   string
	clone  bool
	logger *log.Logger
}

var remotePrefixes = []string{"http://", "https://", "git@", "ssh://", "file://"}

// IsRemote reports whether target looks like a clone URL rather than a
// local path.
func IsRemote(target string) bool {
	for _, prefix := range remotePrefixes {
		if strings.HasPrefix(target, prefix) {
			return true
		}
	}
	return false
}

// Resolve opens target when it is a local path, or clones it into a fresh
// temporary directory when it is a URL. Close removes the clone.
func Resolve(ctx context.Context, target string, opts Options) (*Repo, error) {
	if IsRemote(target) {
		return Clone(ctx, target, opts)
	}
	r, err := Open(target)
	if err != nil {
		return nil, err
	}
	r.logger = logging.OrDiscard(opts.Logger)
	return r, nil
}

// Open opens the repository containing path. Parent directories are
// searched for the .git directory.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", puberrors.ErrRepoNotFound, path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("%w: %s", puberrors.ErrRepoNotFound, path)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", puberrors.ErrNotRepository, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", puberrors.ErrNotRepository, path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no worktree: %v", puberrors.ErrNotRepository, path, err)
	}

	return &Repo{
		repo:   repo,
		root:   wt.Filesystem.Root(),
		logger: logging.Discard(),
	}, nil
}

// Clone clones url into a new temporary directory with all tags.
func Clone(ctx context.Context, url string, opts Options) (*Repo, error) {
	logger := logging.OrDiscard(opts.Logger)

	dir, err := os.MkdirTemp(opts.TempDir, "sirseer-publish-clone-")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	}
	if opts.Token != "" && tokenAllowed(url, opts.TokenHosts) {
		cloneOpts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token}
	}

	logger.Info("Cloning repository", "url", url)
	repo, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: clone %s: %v", puberrors.ErrRepoNotFound, url, err)
	}

	return &Repo{repo: repo, root: dir, clone: true, logger: logger}, nil
}

// tokenAllowed reports whether rawURL is an HTTPS URL on one of hosts.
func tokenAllowed(rawURL string, hosts []string) bool {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return false
	}
	if len(hosts) == 0 {
		hosts = []string{"github.com"}
	}
	for _, host := range hosts {
		if strings.EqualFold(u.Hostname(), host) {
			return true
		}
	}
	return false
}

// Root returns the worktree root directory.
func (r *Repo) Root() string {
	return r.root
}

// IsClone reports whether the repository is a temporary clone owned by r.
func (r *Repo) IsClone() bool {
	return r.clone
}

// Close removes the worktree if it is a temporary clone. A local
// repository is never deleted.
func (r *Repo) Close() error {
	if !r.clone {
		return nil
	}
	r.logger.Debug("Removing temporary clone", "dir", r.root)
	return os.RemoveAll(r.root)
}

// RemoteURL returns the first URL of the origin remote, or "" when no
// origin is configured.
func (r *Repo) RemoteURL() string {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// Head reads the state of the commit currently checked out.
func (r *Repo) Head() (State, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return State{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return State{}, fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	tags, err := r.Tags()
	if err != nil {
		return State{}, err
	}
	var atHead []string
	for _, tag := range tags {
		if tag.Commit == commit.Hash.String() {
			atHead = append(atHead, tag.Name)
		}
	}

	return State{
		Commit:    commit.Hash.String(),
		Time:      commit.Committer.When,
		Message:   commit.Message,
		RemoteURL: r.RemoteURL(),
		Root:      r.root,
		Tags:      atHead,
	}, nil
}

// Tags lists every tag in the repository sorted by name.
func (r *Repo) Tags() ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		commit, err := r.peel(ref.Hash())
		if err != nil {
			// Tags on trees or blobs cannot be published.
			r.logger.Debug("Skipping tag without commit", "tag", ref.Name().Short())
			return nil
		}
		tags = append(tags, Tag{Name: ref.Name().Short(), Commit: commit.Hash.String()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// Checkout moves the worktree to rev, which may be a commit hash, a tag
// or a branch. Uncommitted changes to tracked files make it fail.
func (r *Repo) Checkout(rev string) error {
	if rev == "" {
		return fmt.Errorf("%w: empty revision", puberrors.ErrCheckout)
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", puberrors.ErrCheckout, rev, err)
	}
	commit, err := r.peel(*hash)
	if err != nil {
		return fmt.Errorf("%w: %s does not name a commit: %v", puberrors.ErrCheckout, rev, err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %v", puberrors.ErrCheckout, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: commit.Hash}); err != nil {
		return fmt.Errorf("%w: %s: %v", puberrors.ErrCheckout, rev, err)
	}

	r.logger.Debug("Checked out revision", "rev", rev, "commit", commit.Hash.String())
	return nil
}

// peel returns the commit a hash points at, following annotated tags.
func (r *Repo) peel(hash plumbing.Hash) (*object.Commit, error) {
	if commit, err := r.repo.CommitObject(hash); err == nil {
		return commit, nil
	}
	tag, err := r.repo.TagObject(hash)
	if err != nil {
		return nil, err
	}
	return tag.Commit()
}
