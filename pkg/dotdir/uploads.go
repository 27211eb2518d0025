package dotdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	uploadsDir = "uploads"
)

// UploadsDir returns the uploads/ directory inside the resolved .studyrag/
// directory, creating it when missing.
func (m *Manager) UploadsDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, uploadsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating uploads directory %s: %w", dir, err)
	}

	return dir, nil
}

// SaveUpload copies r into uploads/{ownerID}_{filename} and returns the absolute
// path of the written file. Only the base name of filename is used so a client
// cannot escape the uploads directory.
func (m *Manager) SaveUpload(overrideDir, ownerID, filename string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "", errors.New("upload filename is empty")
	}

	dir, err := m.UploadsDir(overrideDir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s", ownerID, base))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return path, nil
}

// RemoveUpload deletes a previously saved upload. A missing file is not an error.
func (m *Manager) RemoveUpload(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload file: %w", err)
	}
	return nil
}
