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

// Package testutil provides common test helpers for sirseer-publish:
// git repository fixtures, a fake Hub01 server and a CLI runner.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// HubUpload is a version received by the HubServer.
type HubUpload struct {
	Slug        string
	Name        string
	Version     string
	ReleaseType string
	ReleaseDate string
	Changelog   string
	Tags        []string
	Overwrite   bool
	FileName    string
	Archive     []byte
}

// HubServer is a fake Hub01 API backed by memory.
type HubServer struct {
	*httptest.Server
	Token string

	mu       sync.Mutex
	versions map[string]HubUpload
	uploads  []HubUpload
	gets     int
	// failUploads maps a version to the status its upload returns.
	failUploads map[string]int
	// failFirst makes the first N requests of any kind return failStatus.
	failFirst  int
	failStatus int
}

// NewHubServer starts a fake API that accepts the given bearer token.
func NewHubServer(t testing.TB, token string) *HubServer {
	t.Helper()

	h := &HubServer{
		Token:       token,
		versions:    make(map[string]HubUpload),
		failUploads: make(map[string]int),
	}
	h.Server = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.Close)
	return h
}

// Seed registers an existing version.
func (h *HubServer) Seed(slug, version string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.versions[slug+"/"+version] = HubUpload{Slug: slug, Version: version, Name: version}
}

// FailUpload makes uploads of version answer with status.
func (h *HubServer) FailUpload(version string, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failUploads[version] = status
}

// FailFirst makes the next n requests answer with status.
func (h *HubServer) FailFirst(n, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failFirst = n
	h.failStatus = status
}

// Uploads returns every accepted upload in order.
func (h *HubServer) Uploads() []HubUpload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HubUpload(nil), h.uploads...)
}

// GetCount returns the number of version lookups received.
func (h *HubServer) GetCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gets
}

func (h *HubServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+h.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return
	}

	h.mu.Lock()
	if h.failFirst > 0 {
		h.failFirst--
		status := h.failStatus
		h.mu.Unlock()
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	h.mu.Unlock()

	// /v1/projects/{slug}/versions[/{version}]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "v1" || parts[1] != "projects" || parts[3] != "versions" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such route"})
		return
	}
	slug := parts[2]

	switch {
	case r.Method == http.MethodGet && len(parts) == 5:
		h.getVersion(w, slug, parts[4])
	case r.Method == http.MethodPost && len(parts) == 4:
		h.createVersion(w, r, slug)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (h *HubServer) getVersion(w http.ResponseWriter, slug, version string) {
	h.mu.Lock()
	h.gets++
	v, ok := h.versions[slug+"/"+version]
	h.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "version not found"})
		return
	}
	writeJSON(w, http.StatusOK, versionBody(v))
}

func (h *HubServer) createVersion(w http.ResponseWriter, r *http.Request, slug string) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	upload := HubUpload{
		Slug:        slug,
		Name:        r.FormValue("name"),
		Version:     r.FormValue("version"),
		ReleaseType: r.FormValue("release_type"),
		ReleaseDate: r.FormValue("release_date"),
		Changelog:   r.FormValue("changelog"),
		Tags:        r.MultipartForm.Value["tags[]"],
		Overwrite:   r.FormValue("overwrite") == "true",
	}

	file, header, err := r.FormFile("files[]")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing file"})
		return
	}
	defer file.Close()
	upload.FileName = header.Filename
	upload.Archive, _ = io.ReadAll(file)

	h.mu.Lock()
	defer h.mu.Unlock()

	if status, ok := h.failUploads[upload.Version]; ok {
		writeJSON(w, status, map[string]string{"message": "upload rejected"})
		return
	}
	key := slug + "/" + upload.Version
	if _, exists := h.versions[key]; exists && !upload.Overwrite {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "version already exists"})
		return
	}

	h.versions[key] = upload
	h.uploads = append(h.uploads, upload)
	writeJSON(w, http.StatusCreated, versionBody(upload))
}

func versionBody(v HubUpload) map[string]interface{} {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"name":         v.Name,
		"version":      v.Version,
		"release_type": v.ReleaseType,
		"changelog":    v.Changelog,
		"tags":         tags,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
