// Package merge joins projected coordinates back onto catalog records.
package merge

import (
	"fmt"

	"bookmap/internal/corpus"
	"bookmap/internal/domain"
)

// Options controls merge output.
type Options struct {
	// Key must be the key the corpus matrix was built with.
	Key corpus.KeyFunc
	// Vectors, when set, supplies the raw vector attached to each record.
	Vectors func(key string) ([]float64, bool)
}

// Merge returns one OutputRecord per record, in record order, with coordinates
// stored as exact decimal text. A record without a coordinate row is an error;
// coordinates are never defaulted.
func Merge(records []domain.DocumentRecord, proj domain.Projection, opts Options) ([]domain.OutputRecord, error) {
	if len(proj.Keys) != len(proj.Points) {
		return nil, fmt.Errorf("projection has %d keys and %d points: %w", len(proj.Keys), len(proj.Points), domain.ErrMergeKeyMismatch)
	}
	key := opts.Key
	if key == nil {
		key = corpus.ByID
	}
	index := make(map[string]int, len(proj.Keys))
	for i, k := range proj.Keys {
		index[k] = i
	}

	out := make([]domain.OutputRecord, 0, len(records))
	for _, rec := range records {
		k := key(rec)
		i, ok := index[k]
		if !ok {
			return nil, fmt.Errorf("document %s: key %q has no coordinate: %w", rec.ID, k, domain.ErrMergeKeyMismatch)
		}
		o := domain.OutputRecord{
			ID:        rec.ID,
			BookPath:  rec.TextPath,
			Title:     rec.Title,
			Author:    rec.Author,
			BirthYear: rec.BirthYear,
			Genre:     rec.Genre,
			XCoord:    domain.TextCoordinate(proj.Points[i].X),
			YCoord:    domain.TextCoordinate(proj.Points[i].Y),
		}
		if opts.Vectors != nil {
			vec, ok := opts.Vectors(k)
			if !ok {
				return nil, fmt.Errorf("document %s: key %q has no vector: %w", rec.ID, k, domain.ErrMergeKeyMismatch)
			}
			o.Vector = vec
		}
		out = append(out, o)
	}
	return out, nil
}
