// Package corpus assembles per-document vectors into the matrix the reducer consumes.
package corpus

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"bookmap/internal/domain"
)

// KeyFunc extracts the row identity of a record.
type KeyFunc func(domain.DocumentRecord) string

// ByID keys rows by catalog id.
func ByID(r domain.DocumentRecord) string { return r.ID }

// ByTitle keys rows by title. Titles are not unique, so same-titled
// documents collide.
func ByTitle(r domain.DocumentRecord) string { return r.Title }

// KeyFuncFor maps a configured key name to its KeyFunc.
func KeyFuncFor(name string) (KeyFunc, error) {
	switch name {
	case "id", "":
		return ByID, nil
	case "title":
		return ByTitle, nil
	default:
		return nil, fmt.Errorf("unknown corpus key %q", name)
	}
}

// Collision records a document whose vector was replaced by a later document
// with the same key.
type Collision struct {
	Key     string
	Kept    string
	Dropped string
}

type row struct {
	key    string
	record domain.DocumentRecord
	vector []float64
}

// Builder folds vectorized documents into rows. It is not safe for concurrent use.
type Builder struct {
	key        KeyFunc
	dimension  int
	rows       []row
	index      map[string]int
	collisions []Collision
	added      int
}

// NewBuilder returns an empty builder keyed by key.
func NewBuilder(key KeyFunc) *Builder {
	if key == nil {
		key = ByID
	}
	return &Builder{key: key, index: make(map[string]int)}
}

// Add folds one document in. A document whose key is already present replaces
// the earlier vector in place and the replacement is recorded as a Collision.
func (b *Builder) Add(rec domain.DocumentRecord, vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("document %s: empty vector: %w", rec.ID, domain.ErrDimensionMismatch)
	}
	if b.dimension == 0 {
		b.dimension = len(vec)
	}
	if len(vec) != b.dimension {
		return fmt.Errorf("document %s: %d values, corpus has %d: %w", rec.ID, len(vec), b.dimension, domain.ErrDimensionMismatch)
	}
	b.added++
	owned := append([]float64(nil), vec...)
	k := b.key(rec)
	if i, ok := b.index[k]; ok {
		b.collisions = append(b.collisions, Collision{Key: k, Kept: rec.ID, Dropped: b.rows[i].record.ID})
		b.rows[i].record = rec
		b.rows[i].vector = owned
		return nil
	}
	b.index[k] = len(b.rows)
	b.rows = append(b.rows, row{key: k, record: rec, vector: owned})
	return nil
}

// Build publishes the matrix. The builder can keep accepting documents
// afterwards without affecting the published matrix.
func (b *Builder) Build() (*Matrix, error) {
	if len(b.rows) == 0 {
		return nil, errors.New("corpus is empty")
	}
	data := make([]float64, 0, len(b.rows)*b.dimension)
	keys := make([]string, len(b.rows))
	records := make([]domain.DocumentRecord, len(b.rows))
	index := make(map[string]int, len(b.rows))
	for i, r := range b.rows {
		data = append(data, r.vector...)
		keys[i] = r.key
		records[i] = r.record
		index[r.key] = i
	}
	return &Matrix{
		dense:      mat.NewDense(len(b.rows), b.dimension, data),
		keys:       keys,
		records:    records,
		index:      index,
		collisions: append([]Collision(nil), b.collisions...),
		vectorized: b.added,
	}, nil
}

// Matrix is an immutable N x D table of document vectors. Rows keep the order
// in which their keys were first added.
type Matrix struct {
	dense      *mat.Dense
	keys       []string
	records    []domain.DocumentRecord
	index      map[string]int
	collisions []Collision
	vectorized int
}

// Dims returns rows and columns.
func (m *Matrix) Dims() (int, int) { return m.dense.Dims() }

// Rows returns the number of distinct keys.
func (m *Matrix) Rows() int { return len(m.keys) }

// Vectorized returns how many documents were folded in, collisions included.
func (m *Matrix) Vectorized() int { return m.vectorized }

// Keys returns the row keys in order.
func (m *Matrix) Keys() []string { return append([]string(nil), m.keys...) }

// Records returns the record owning each row.
func (m *Matrix) Records() []domain.DocumentRecord {
	return append([]domain.DocumentRecord(nil), m.records...)
}

// Collisions returns every replaced document.
func (m *Matrix) Collisions() []Collision { return append([]Collision(nil), m.collisions...) }

// Dense returns a copy of the vectors.
func (m *Matrix) Dense() *mat.Dense { return mat.DenseCopyOf(m.dense) }

// Row returns a copy of the vector stored under key.
func (m *Matrix) Row(key string) ([]float64, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return mat.Row(nil, i, m.dense), true
}
