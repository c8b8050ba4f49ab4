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

// Package packager zips a project directory for upload. Version-control
// metadata and the top-level manifest never enter the archive; the manifest
// travels as structured upload fields instead.
package packager

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zip"
)

// ManifestFile is excluded from the archive root.
const ManifestFile = "manifest.json"

// fallbackName is used when the display name has no usable characters.
const fallbackName = "release.zip"

// ArchiveName derives the archive file name from a display name: the name
// plus ".zip", keeping letters, digits, space, '.', '_' and '-', with
// trailing whitespace removed.
func ArchiveName(displayName string) string {
	var b strings.Builder
	for _, r := range displayName + ".zip" {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" ._-", r) {
			b.WriteRune(r)
		}
	}
	name := strings.TrimRightFunc(b.String(), unicode.IsSpace)
	if strings.TrimSpace(strings.TrimSuffix(name, ".zip")) == "" {
		return fallbackName
	}
	return name
}

// Pack writes a deflate zip of sourceDir into outDir and returns its path.
// Every .git directory and a manifest.json at the root of sourceDir are
// excluded. Only regular files are archived. The file set is deterministic
// for a fixed tree; modification times are kept, so bytes may differ
// between runs.
func Pack(sourceDir, displayName, outDir string) (string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source %s is not a directory", sourceDir)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	archivePath := filepath.Join(outDir, ArchiveName(displayName))

	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	if err := writeArchive(f, sourceDir, archivePath); err != nil {
		_ = f.Close()
		_ = os.Remove(archivePath)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	return archivePath, nil
}

func writeArchive(w io.Writer, sourceDir, archivePath string) error {
	zw := zip.NewWriter(w)

	absArchive, _ := filepath.Abs(archivePath)
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if d.Name() == ".git" && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == ManifestFile || !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absArchive {
			return nil
		}

		return addFile(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to archive %s: %w", sourceDir, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}
