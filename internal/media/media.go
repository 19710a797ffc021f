// Package media stores recipe photos and voice recordings on local disk.
//
// Items are addressed by opaque refs so records never carry file paths.
package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

// Constants for media store configuration
const (
	// DefaultDirPermissions defines the default permissions for media directories
	DefaultDirPermissions = 0755
	// DefaultFilePermissions defines the default permissions for stored media files
	DefaultFilePermissions = 0644
)

// Store keeps media items under a base directory, one subdirectory per kind.
type Store struct {
	baseDir string
}

// NewStore creates a media store rooted at baseDir, creating the kind
// subdirectories if needed.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("media directory not set")
	}
	for _, kind := range []models.MediaKind{models.MediaPhoto, models.MediaVoice} {
		dir := filepath.Join(baseDir, string(kind))
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			slog.Error("Failed to create media directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create media directory: %w", err)
		}
	}
	slog.Debug("Media store initialized", "dir", baseDir)
	return &Store{baseDir: baseDir}, nil
}

// Save stores the data and returns its ref.
func (s *Store) Save(kind models.MediaKind, data []byte) (string, error) {
	ref := uuid.NewString()
	path, err := s.path(kind, ref)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		slog.Error("MediaStore.Save write failed", "error", err, "kind", kind)
		return "", fmt.Errorf("failed to write media item: %w", err)
	}
	slog.Debug("MediaStore.Save stored item", "kind", kind, "ref", ref, "bytes", len(data))
	return ref, nil
}

// Resolve returns the stored data for the ref.
// Missing items return models.ErrMediaUnavailable.
func (s *Store) Resolve(kind models.MediaKind, ref string) ([]byte, error) {
	path, err := s.path(kind, ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, models.ErrMediaUnavailable
	}
	if err != nil {
		slog.Error("MediaStore.Resolve read failed", "error", err, "kind", kind, "ref", ref)
		return nil, fmt.Errorf("failed to read media item: %w", err)
	}
	return data, nil
}

// Remove deletes the stored item.
// Missing items return models.ErrMediaUnavailable.
func (s *Store) Remove(kind models.MediaKind, ref string) error {
	path, err := s.path(kind, ref)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return models.ErrMediaUnavailable
	}
	if err != nil {
		slog.Error("MediaStore.Remove delete failed", "error", err, "kind", kind, "ref", ref)
		return fmt.Errorf("failed to remove media item: %w", err)
	}
	slog.Debug("MediaStore.Remove deleted item", "kind", kind, "ref", ref)
	return nil
}

// path resolves a ref to a file path, rejecting refs that would escape
// the store directory.
func (s *Store) path(kind models.MediaKind, ref string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return "", fmt.Errorf("invalid media ref %q", ref)
	}
	switch kind {
	case models.MediaPhoto, models.MediaVoice:
	default:
		return "", fmt.Errorf("invalid media kind %q", kind)
	}
	return filepath.Join(s.baseDir, string(kind), ref), nil
}
