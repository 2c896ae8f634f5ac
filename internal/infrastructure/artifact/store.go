package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store persists rendered report artifacts. Files are addressed by project
// id and a generated filename carrying the standard and a timestamp.
type Store interface {
	// Path returns the absolute path a new artifact should be written to,
	// creating the project directory if needed.
	Path(projectID uuid.UUID, standard string, ext string) (string, error)
}

// FilesystemStore writes artifacts under a base directory, one subdirectory
// per project.
type FilesystemStore struct {
	baseDir string
}

func NewFilesystemStore(baseDir string) *FilesystemStore {
	return &FilesystemStore{baseDir: baseDir}
}

func (s *FilesystemStore) Path(projectID uuid.UUID, standard string, ext string) (string, error) {
	dir := filepath.Join(s.baseDir, projectID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s", standard, time.Now().UTC().Format("20060102T150405"), ext)
	return filepath.Join(dir, name), nil
}
