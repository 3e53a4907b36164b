// Package records reads and writes output record sets as indented JSON.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"bookmap/internal/domain"
)

const indent = "    "

// Encode writes recs as an indented JSON array. An empty set is written as [].
func Encode(w io.Writer, recs []domain.OutputRecord) error {
	if recs == nil {
		recs = []domain.OutputRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// Decode reads a JSON array of records.
func Decode(r io.Reader) ([]domain.OutputRecord, error) {
	var recs []domain.OutputRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if recs == nil {
		recs = []domain.OutputRecord{}
	}
	return recs, nil
}

// Write encodes recs to path, creating parent directories.
func Write(fsys afero.Fs, path string, recs []domain.OutputRecord) error {
	var buf bytes.Buffer
	if err := Encode(&buf, recs); err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Read decodes the records stored at path.
func Read(fsys afero.Fs, path string) ([]domain.OutputRecord, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	recs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Clean is the lossy projection applied before display: it drops raw vectors
// and turns text coordinates into numbers. It returns a new slice and is
// idempotent.
func Clean(recs []domain.OutputRecord) []domain.OutputRecord {
	out := make([]domain.OutputRecord, len(recs))
	for i, r := range recs {
		r.Vector = nil
		r.XCoord = domain.NumericCoordinate(r.XCoord.Value)
		r.YCoord = domain.NumericCoordinate(r.YCoord.Value)
		out[i] = r
	}
	return out
}

// CleanFile applies Clean to the records at src and writes them to dst.
func CleanFile(fsys afero.Fs, src, dst string) (int, error) {
	recs, err := Read(fsys, src)
	if err != nil {
		return 0, err
	}
	cleaned := Clean(recs)
	if err := Write(fsys, dst, cleaned); err != nil {
		return 0, err
	}
	return len(cleaned), nil
}
