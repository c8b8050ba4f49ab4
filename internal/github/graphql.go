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

package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shurcooL/graphql"

	"github.com/sirseerhq/sirseer-publish/internal/apierror"
	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
)

// GraphQLClient implements the Client interface using GitHub's GraphQL API.
type GraphQLClient struct {
	client    *graphql.Client
	inspector apierror.Inspector
}

// releaseNode mirrors the Release object of the GitHub schema.
type releaseNode struct {
	Name        graphql.String `graphql:"name"`
	Description graphql.String `graphql:"description"`
	TagName     graphql.String `graphql:"tagName"`
	URL         graphql.String `graphql:"url"`
	PublishedAt *time.Time     `graphql:"publishedAt"`
}

// NewGraphQLClient creates a new GitHub GraphQL client with the provided
// token and endpoint. The endpoint may point at GitHub Enterprise.
// An empty token sends unauthenticated requests, which GitHub rejects for
// GraphQL; callers normally skip the lookup in that case.
func NewGraphQLClient(token string, endpoint string) *GraphQLClient {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	httpClient := &http.Client{
		Transport: &authTransport{
			token: token,
			base:  transport,
		},
		Timeout: 30 * time.Second,
	}

	return newGraphQLClient(endpoint, httpClient)
}

func newGraphQLClient(endpoint string, httpClient *http.Client) *GraphQLClient {
	return &GraphQLClient{
		client:    graphql.NewClient(endpoint, httpClient),
		inspector: apierror.NewInspector(),
	}
}

// LatestRelease retrieves the latest published release of a repository.
func (c *GraphQLClient) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	var query struct {
		Repository struct {
			LatestRelease *releaseNode `graphql:"latestRelease"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]interface{}{
		"owner": graphql.String(owner),
		"repo":  graphql.String(repo),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, owner, repo)
	}

	return convertRelease(query.Repository.LatestRelease), nil
}

// ReleaseByTag retrieves the release attached to a tag.
func (c *GraphQLClient) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	var query struct {
		Repository struct {
			Release *releaseNode `graphql:"release(tagName: $tag)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]interface{}{
		"owner": graphql.String(owner),
		"repo":  graphql.String(repo),
		"tag":   graphql.String(tag),
	}

	if err := c.client.Query(ctx, &query, variables); err != nil {
		return nil, c.mapError(err, owner, repo)
	}

	return convertRelease(query.Repository.Release), nil
}

func convertRelease(node *releaseNode) *Release {
	if node == nil {
		return nil
	}
	return &Release{
		Name:        string(node.Name),
		Description: string(node.Description),
		TagName:     string(node.TagName),
		URL:         string(node.URL),
		PublishedAt: node.PublishedAt,
	}
}

// mapError maps GraphQL errors to our domain errors with actionable messages
func (c *GraphQLClient) mapError(err error, owner, repo string) error {
	if err == nil {
		return nil
	}

	// Check rate limit first, as 403 can be both auth and rate limit
	if c.inspector.IsRateLimitError(err) {
		return fmt.Errorf("GitHub API rate limit exceeded: %w", puberrors.ErrRateLimit)
	}

	if c.inspector.IsAuthError(err) {
		return fmt.Errorf("GitHub API authentication failed, check --github-token or GITHUB_TOKEN: %w", puberrors.ErrInvalidToken)
	}

	if c.inspector.IsNotFoundError(err) {
		return fmt.Errorf("GitHub repository '%s/%s' not found: %w", owner, repo, puberrors.ErrRepoNotFound)
	}

	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("network error connecting to GitHub API: %w", puberrors.ErrNetworkFailure)
	}

	return fmt.Errorf("failed to fetch release: %w", err)
}
