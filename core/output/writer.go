// Package output handles destination naming and writing for converted pages.
// The destination is the source path with its extension replaced
// (e.g., page.mht → page.html), optionally moved into an output directory.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer. If outputDir is empty, files are written next to
// their source.
func New(outputDir string) (*Writer, error) {
	if outputDir != "" {
		// Ensure the output directory exists.
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	return &Writer{OutputDir: outputDir}, nil
}

// DestinationPath returns the output path for source with extension ext.
func (w *Writer) DestinationPath(source, ext string) string {
	dst := ChangeExtension(source, ext)
	if w.OutputDir == "" {
		return dst
	}
	return filepath.Join(w.OutputDir, filepath.Base(dst))
}

// Write stores data at path. The data goes to a temporary file in the same
// directory first and is renamed into place, so a failed write never leaves
// a partial file behind.
func (w *Writer) Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// ChangeExtension replaces the extension of path with ext (".html").
// A path without extension gets ext appended.
func ChangeExtension(path, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
