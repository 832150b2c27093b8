// Package storage persists downloaded media assets (posters, portraits,
// avatars) on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/cinetheque/api/pkg/logger"
)

// slugPattern matches character runs that are unsafe in generated filenames.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses unsafe character runs into single
// underscores, yielding a stable filesystem-safe token.
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	slug := slugPattern.ReplaceAllString(lowered, "_")
	return strings.Trim(slug, "_")
}

// MediaStore writes media files beneath a single root directory. Paths handed
// back to callers are relative to that root so database records stay portable
// across deployments.
type MediaStore struct {
	root string
	log  *zap.Logger
}

// NewMediaStore creates the root directory when missing and returns a store
// rooted there.
func NewMediaStore(root string) (*MediaStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create media root: %w", err)
	}
	return &MediaStore{
		root: root,
		log:  logger.WithModule("storage"),
	}, nil
}

// Root returns the absolute media root directory.
func (s *MediaStore) Root() string {
	return s.root
}

// Save writes data under the given relative name and returns the relative
// path recorded in the database.
func (s *MediaStore) Save(name string, data []byte) (string, error) {
	name = filepath.Clean(strings.TrimSpace(name))
	if name == "" || name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
		return "", fmt.Errorf("storage: invalid media name %q", name)
	}

	fullPath := filepath.Join(s.root, name)
	if dir := filepath.Dir(fullPath); dir != s.root {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("storage: create media dir: %w", err)
		}
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write media file: %w", err)
	}
	return name, nil
}

// Delete removes a previously saved file by its relative path. Missing files
// are not an error; a stale database reference must not block replacement.
func (s *MediaStore) Delete(path string) error {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." || strings.HasPrefix(path, "..") || filepath.IsAbs(path) {
		return nil
	}

	err := os.Remove(filepath.Join(s.root, path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete media file: %w", err)
	}
	return nil
}

// Exists reports whether a relative media path currently resolves to a file.
func (s *MediaStore) Exists(path string) bool {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." || strings.HasPrefix(path, "..") || filepath.IsAbs(path) {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, path))
	return err == nil && info.Mode().IsRegular()
}
