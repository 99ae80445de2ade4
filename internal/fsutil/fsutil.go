// Package fsutil holds the shared atomic write helpers used by every
// artifact-emitting package.
package fsutil

import (
	"encoding/json"
	"fmt"
	"path"

	billy "github.com/go-git/go-billy/v5"
)

// WriteFile writes data atomically: temp file in the target directory, then
// rename. Parent directories are created as needed.
func WriteFile(fs billy.Filesystem, filePath string, data []byte) error {
	dir := path.Dir(filePath)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := fs.TempFile(dir, ".katarogu-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := fs.Rename(tmpName, filePath); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", filePath, err)
	}
	return nil
}

// WriteJSON marshals v with 2-space indent and writes it atomically.
func WriteJSON(fs billy.Filesystem, filePath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filePath, err)
	}
	return WriteFile(fs, filePath, append(data, '\n'))
}
