// Package project provides the per-project directory abstraction the
// pipeline writes artifacts into. Keys are project-relative slash paths and
// are sanitized against directory traversal.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storybook/internal/domain"
)

// Artifact layout. The naming is a compatibility contract; regeneration
// overwrites in place and there is no artifact versioning.
const (
	ManifestKey   = "manifest.json"
	ImagesDir     = "generated_images"
	VideosDir     = "generated_videos"
	PDFKey        = "book_pdfs/story_book.pdf"
	FinalVideoKey = "final_video.mp4"
	TitleImageKey = ImagesDir + "/title_page.png"
)

// PageImageKey returns the artifact key for a 1-based page index.
func PageImageKey(n int) string {
	return fmt.Sprintf("%s/page_%d.png", ImagesDir, n)
}

// PageVideoKey returns the clip key for a 1-based page index.
func PageVideoKey(n int) string {
	return fmt.Sprintf("%s/page_%d.mp4", VideosDir, n)
}

// EnvImageKey returns the key of the chained environment-only base image
// generated when a page has no explicit base, plate or location reference.
func EnvImageKey(n int) string {
	return fmt.Sprintf("%s/_env_%d.png", ImagesDir, n)
}

// Store is rooted at one project's directory on the local filesystem.
type Store struct {
	id   string
	root string
}

// Open ensures the project directory exists under baseDir and returns a store
// for it.
func Open(baseDir, projectID string) (*Store, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" || strings.ContainsAny(projectID, "/\\") || projectID == "." || projectID == ".." {
		return nil, fmt.Errorf("project: invalid project id %q", projectID)
	}
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("project: base directory is required")
	}
	root := filepath.Join(baseDir, projectID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("project: ensure directory: %w", err)
	}
	return &Store{id: projectID, root: root}, nil
}

// ID returns the project identifier.
func (s *Store) ID() string { return s.id }

// Root returns the project's directory.
func (s *Store) Root() string { return s.root }

// Path resolves a project-relative key to an absolute path.
func (s *Store) Path(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleanKey)), nil
}

// Write persists the provided bytes at the given relative key, creating
// parent directories as needed, and returns the canonicalized key.
func (s *Store) Write(key string, data []byte) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.root, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("project: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("project: write file: %w", err)
	}
	return cleanKey, nil
}

// Exists reports whether an artifact is present. A concurrent writer may
// still be producing the file, so treat a positive result as advisory.
func (s *Store) Exists(key string) bool {
	p, err := s.Path(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Glob enumerates artifact keys matching a relative glob pattern, sorted.
func (s *Store) Glob(pattern string) ([]string, error) {
	cleanPattern, err := sanitizeKey(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(s.root, filepath.FromSlash(cleanPattern)))
	if err != nil {
		return nil, fmt.Errorf("project: glob: %w", err)
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.root, m)
		if err != nil {
			continue
		}
		keys = append(keys, filepath.ToSlash(rel))
	}
	sort.Strings(keys)
	return keys, nil
}

// HasManifest reports whether the project has a saved manifest.
func (s *Store) HasManifest() bool {
	return s.Exists(ManifestKey)
}

// ReadManifest loads and validates the project's manifest.
func (s *Store) ReadManifest() (*domain.Manifest, error) {
	p, err := s.Path(ManifestKey)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoManifest
		}
		return nil, fmt.Errorf("project: read manifest: %w", err)
	}
	return domain.ParseManifest(data)
}

// WriteManifest validates and persists manifest bytes.
func (s *Store) WriteManifest(data []byte) error {
	if _, err := domain.ParseManifest(data); err != nil {
		return err
	}
	_, err := s.Write(ManifestKey, data)
	return err
}

// sanitizeKey normalizes a key and prevents escaping the project root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("project: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("project: invalid key")
	}
	return cleaned, nil
}
