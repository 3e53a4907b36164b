package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"bookmap/internal/domain"
	"bookmap/internal/vectorstore"
)

const defaultTopK = 5

// ErrUnknownRecord is returned by Neighbors for an id that was never upserted.
var ErrUnknownRecord = errors.New("unknown record")

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is an in-memory brute-force index keyed by record id.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.OutputRecord
	index     map[string]int
}

func NewStorage() *Storage { return &Storage{index: make(map[string]int)} }

// Upsert adds records, replacing any with the same id. Vectors, when present,
// must all share one width.
func (s *Storage) Upsert(recs []domain.OutputRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	for _, r := range recs {
		if len(r.Vector) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return fmt.Errorf("record %s: %w", r.ID, domain.ErrDimensionMismatch)
		}
	}
	s.dimension = dim
	for _, r := range recs {
		if i, ok := s.index[r.ID]; ok {
			s.records[i] = r
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

func (s *Storage) Search(p domain.Point, topK int) ([]domain.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rank(topK, "", func(r domain.OutputRecord) (float64, bool) {
		q := r.Point()
		return math.Hypot(q.X-p.X, q.Y-p.Y), true
	}), nil
}

func (s *Storage) SearchVector(vec []float64, topK int) ([]domain.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, errors.New("no vectors indexed")
	}
	if len(vec) != s.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	qn := norm(vec)
	return s.rank(topK, "", func(r domain.OutputRecord) (float64, bool) {
		if len(r.Vector) == 0 {
			return 0, false
		}
		d := norm(r.Vector) * qn
		if d == 0 {
			return 1, true
		}
		return 1 - dot(r.Vector, vec)/d, true
	}), nil
}

func (s *Storage) Neighbors(id string, topK int) ([]domain.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownRecord)
	}
	p := s.records[i].Point()
	return s.rank(topK, id, func(r domain.OutputRecord) (float64, bool) {
		q := r.Point()
		return math.Hypot(q.X-p.X, q.Y-p.Y), true
	}), nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.index = make(map[string]int)
	s.dimension = 0
	return nil
}

// rank scores every record except skip and returns the topK closest.
// Callers hold the read lock.
func (s *Storage) rank(topK int, skip string, score func(domain.OutputRecord) (float64, bool)) []domain.Neighbor {
	if topK <= 0 {
		topK = defaultTopK
	}
	idxs := make([]int, 0, len(s.records))
	dists := make([]float64, len(s.records))
	for i, r := range s.records {
		if r.ID == skip {
			continue
		}
		d, ok := score(r)
		if !ok {
			continue
		}
		dists[i] = d
		idxs = append(idxs, i)
	}
	argsortAsc(idxs, dists)
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.Neighbor, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.Neighbor{Record: s.records[j], Distance: dists[j]})
	}
	return results
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 { return math.Sqrt(dot(v, v)) }

// argsortAsc orders idxs by vals, insertion order breaking ties.
func argsortAsc(idxs []int, vals []float64) {
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] < vals[idxs[b]] })
}
