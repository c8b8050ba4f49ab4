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

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirseerhq/sirseer-publish/internal/apierror"
	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/pkg/version"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTPClient implements Client over the Hub01 REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	inspector  apierror.Inspector
}

// NewHTTPClient creates a client for the API rooted at baseURL.
// A zero timeout means two minutes, enough for large uploads.
func NewHTTPClient(baseURL, token string, timeout time.Duration) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid hub API URL %q: %w", baseURL, err)
	}
	if token == "" {
		return nil, fmt.Errorf("hub API token is required: %w", puberrors.ErrInvalidToken)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		inspector:  apierror.NewInspector(),
	}, nil
}

// GetVersion implements Client.
func (c *HTTPClient) GetVersion(ctx context.Context, slug, ver string) (*Version, error) {
	path := fmt.Sprintf("/v1/projects/%s/versions/%s", url.PathEscape(slug), url.PathEscape(ver))

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out Version
	if err := c.do(req, &out); err != nil {
		if c.inspector.IsNotFoundError(err) {
			return nil, fmt.Errorf("%s %s: %w", slug, ver, ErrNotFound)
		}
		return nil, err
	}
	return &out, nil
}

// CreateVersion implements Client. The archive is streamed, not buffered.
func (c *HTTPClient) CreateVersion(ctx context.Context, slug string, cv CreateVersionRequest) (*Version, error) {
	archive, err := os.Open(cv.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open archive: %v", puberrors.ErrUpload, err)
	}
	defer archive.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, cv, archive))
	}()

	path := fmt.Sprintf("/v1/projects/%s/versions", url.PathEscape(slug))
	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Version
	if err := c.do(req, &out); err != nil {
		_ = pr.Close()
		return nil, err
	}
	return &out, nil
}

func writeForm(mw *multipart.Writer, cv CreateVersionRequest, archive io.Reader) error {
	fields := []struct{ key, value string }{
		{"name", cv.Name},
		{"version", cv.Version},
		{"release_type", cv.ReleaseType},
		{"release_date", cv.ReleaseDate.Format(time.RFC3339)},
		{"changelog", cv.Changelog},
		{"overwrite", strconv.FormatBool(cv.Overwrite)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return err
		}
	}
	for _, tag := range cv.Tags {
		if err := mw.WriteField("tags[]", tag); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("files[]", filepath.Base(cv.ArchivePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, archive); err != nil {
		return err
	}
	return mw.Close()
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request [%s %s]: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("sirseer-publish/%s", version.Version))
	return req, nil
}

// do executes req and decodes a JSON body into out. Non-2xx responses
// become *apierror.StatusError, wrapped with a sentinel where one applies.
func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", puberrors.ErrNetworkFailure, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", puberrors.ErrNetworkFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &apierror.StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			Body:       body,
		}
		switch {
		case statusErr.IsAuthError():
			return fmt.Errorf("%w: %w", puberrors.ErrInvalidToken, statusErr)
		case statusErr.IsRateLimitError():
			return fmt.Errorf("%w: %w", puberrors.ErrRateLimit, statusErr)
		}
		return statusErr
	}

	if out == nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} or {"error": "..."} from a body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// IsNotFound reports whether err means the version does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
