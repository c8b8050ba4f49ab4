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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GraphQLClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := &http.Client{
		Transport: &authTransport{
			token: "test-token",
			base:  http.DefaultTransport,
		},
	}
	return newGraphQLClient(server.URL+"/graphql", httpClient)
}

func TestNewGraphQLClient(t *testing.T) {
	for _, endpoint := range []string{"https://api.github.com/graphql", "https://github.enterprise.com/api/graphql"} {
		client := NewGraphQLClient("test-token", endpoint)
		if client == nil {
			t.Fatal("expected non-nil client")
		}
		var _ Client = client
	}
}

func TestGraphQLClient_LatestRelease(t *testing.T) {
	tests := []struct {
		name          string
		response      interface{}
		responseCode  int
		wantError     error
		wantRelease   *Release
		wantNoRelease bool
	}{
		{
			name: "successful response",
			response: map[string]interface{}{
				"data": map[string]interface{}{
					"repository": map[string]interface{}{
						"latestRelease": map[string]interface{}{
							"name":        "Spring Update",
							"description": "Added things.",
							"tagName":     "v1.2.0",
							"url":         "https://github.com/octocat/mod/releases/tag/v1.2.0",
							"publishedAt": "2024-03-05T14:07:00Z",
						},
					},
				},
			},
			responseCode: http.StatusOK,
			wantRelease: &Release{
				Name:        "Spring Update",
				Description: "Added things.",
				TagName:     "v1.2.0",
			},
		},
		{
			name: "no releases",
			response: map[string]interface{}{
				"data": map[string]interface{}{
					"repository": map[string]interface{}{
						"latestRelease": nil,
					},
				},
			},
			responseCode:  http.StatusOK,
			wantNoRelease: true,
		},
		{
			name: "repository not found",
			response: map[string]interface{}{
				"errors": []interface{}{
					map[string]interface{}{
						"message": "Could not resolve to a Repository with the name 'octocat/nope'.",
					},
				},
			},
			responseCode: http.StatusOK,
			wantError:    puberrors.ErrRepoNotFound,
		},
		{
			name:         "authentication error",
			response:     map[string]interface{}{"message": "Bad credentials"},
			responseCode: http.StatusUnauthorized,
			wantError:    puberrors.ErrInvalidToken,
		},
		{
			name:         "rate limit error",
			response:     map[string]interface{}{"message": "API rate limit exceeded"},
			responseCode: http.StatusTooManyRequests,
			wantError:    puberrors.ErrRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/graphql" {
					t.Errorf("expected path /graphql, got %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
					t.Errorf("expected Bearer test-token, got %s", auth)
				}
				if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "sirseer-publish/") {
					t.Errorf("unexpected User-Agent %q", ua)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.responseCode)
				_ = json.NewEncoder(w).Encode(tt.response)
			})

			release, err := client.LatestRelease(context.Background(), "octocat", "mod")

			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("expected %v, got %v", tt.wantError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNoRelease {
				if release != nil {
					t.Errorf("expected nil release, got %+v", release)
				}
				return
			}
			if release == nil {
				t.Fatal("expected release, got nil")
			}
			if release.Name != tt.wantRelease.Name || release.Description != tt.wantRelease.Description || release.TagName != tt.wantRelease.TagName {
				t.Errorf("release = %+v, want %+v", release, tt.wantRelease)
			}
			if release.PublishedAt == nil {
				t.Error("expected PublishedAt to be set")
			}
		})
	}
}

func TestGraphQLClient_ReleaseByTag(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		if !strings.Contains(req.Query, "release(tagName: $tag)") {
			t.Errorf("query does not select release by tag: %s", req.Query)
		}
		if req.Variables["tag"] != "v1.0.0" {
			t.Errorf("expected tag variable v1.0.0, got %v", req.Variables["tag"])
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"repository": map[string]interface{}{
					"release": map[string]interface{}{
						"name":        "First",
						"description": "Initial release",
						"tagName":     "v1.0.0",
						"url":         "",
						"publishedAt": nil,
					},
				},
			},
		})
	})

	release, err := client.ReleaseByTag(context.Background(), "octocat", "mod", "v1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if release == nil || release.Name != "First" || release.Description != "Initial release" {
		t.Errorf("unexpected release %+v", release)
	}
}

func TestLimitedReader(t *testing.T) {
	lr := &limitedReader{
		ReadCloser: io.NopCloser(strings.NewReader(strings.Repeat("x", 64))),
		limit:      16,
	}

	data, err := io.ReadAll(lr)
	if err == nil {
		t.Fatal("expected size limit error")
	}
	if len(data) != 16 {
		t.Errorf("expected 16 bytes before limit, got %d", len(data))
	}
}
