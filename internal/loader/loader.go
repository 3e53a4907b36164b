// Package loader resolves catalog records to their full text.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"unicode/utf8"

	"github.com/spf13/afero"

	"bookmap/internal/domain"
)

// Loader reads document texts from a filesystem.
type Loader struct {
	fs afero.Fs
}

// New returns a Loader over fsys. A nil fsys reads the OS filesystem.
func New(fsys afero.Fs) *Loader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Loader{fs: fsys}
}

// Load returns the UTF-8 text at rec.TextPath. A missing path, or one naming
// something other than a regular file, reports domain.ErrNotFound.
func (l *Loader) Load(ctx context.Context, rec domain.DocumentRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec.TextPath == "" {
		return "", fmt.Errorf("document %s: no text path: %w", rec.ID, domain.ErrNotFound)
	}
	info, err := l.fs.Stat(rec.TextPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("document %s: %s: %w", rec.ID, rec.TextPath, domain.ErrNotFound)
		}
		return "", fmt.Errorf("document %s: stat %s: %w", rec.ID, rec.TextPath, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("document %s: %s is not a regular file: %w", rec.ID, rec.TextPath, domain.ErrNotFound)
	}
	data, err := afero.ReadFile(l.fs, rec.TextPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("document %s: %s: %w", rec.ID, rec.TextPath, domain.ErrNotFound)
		}
		return "", fmt.Errorf("document %s: read %s: %w", rec.ID, rec.TextPath, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document %s: %s: %w", rec.ID, rec.TextPath, domain.ErrInvalidEncoding)
	}
	return string(data), nil
}
