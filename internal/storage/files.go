// Package storage manages application attachments on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	cvDir          = "cvs"
	coverLetterDir = "coverletters"
)

// Dir is an upload directory with one subdirectory per document type.
type Dir struct {
	base string
}

// New creates the upload directory tree under base if it does not exist.
func New(base string) (*Dir, error) {
	for _, sub := range []string{cvDir, coverLetterDir} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &Dir{base: base}, nil
}

// Save writes an uploaded document and returns its path. The stored name is
// prefixed with the application id and a timestamp so replacing a document
// never clobbers a file still referenced by another record.
func (d *Dir) Save(docType string, id uuid.UUID, filename string, src io.Reader) (string, error) {
	sub, err := subdir(docType)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s", id, time.Now().UTC().Format("20060102150405"), sanitize(filename))
	path := filepath.Join(d.base, sub, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write attachment file: %w", err)
	}
	return path, nil
}

// Remove deletes a stored attachment. A path that no longer exists is not an
// error.
func (d *Dir) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment file: %w", err)
	}
	return nil
}

func subdir(docType string) (string, error) {
	switch docType {
	case "cv":
		return cvDir, nil
	case "coverletter":
		return coverLetterDir, nil
	default:
		return "", fmt.Errorf("unknown document type %q", docType)
	}
}

// sanitize strips any path components from a client-supplied filename.
func sanitize(filename string) string {
	name := filepath.Base(filepath.Clean(filename))
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "." || name == ".." || name == "" {
		return "upload"
	}
	return name
}
