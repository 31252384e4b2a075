package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"playlist-importer/pkg/models"
)

const Extension = ".json"

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write manifest %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// PathFor returns the manifest location inside a run directory, named after the folder.
func PathFor(directory string) string {
	return filepath.Join(directory, filepath.Base(directory)+Extension)
}

// Write serializes the playlist to path, replacing any previous manifest atomically.
func Write(path string, playlist *models.Playlist) error {
	b, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("marshal playlist: %w", err)}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("create parent dir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("create temporary file: %w", err)}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return &WriteError{Path: path, Err: fmt.Errorf("write temporary file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &WriteError{Path: path, Err: fmt.Errorf("close temporary file: %w", err)}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &WriteError{Path: path, Err: fmt.Errorf("replace manifest: %w", err)}
	}
	return nil
}

func Load(path string) (*models.Playlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	playlist := &models.Playlist{}
	if err := json.Unmarshal(b, playlist); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return playlist, nil
}
