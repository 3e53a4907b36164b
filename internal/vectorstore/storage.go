// Package vectorstore indexes projected records for neighbour lookups.
package vectorstore

import "bookmap/internal/domain"

// Storage holds output records and answers nearest-neighbour queries.
type Storage interface {
	Upsert(recs []domain.OutputRecord) error
	// Search ranks records by distance to p on the 2D map.
	Search(p domain.Point, topK int) ([]domain.Neighbor, error)
	// SearchVector ranks records by cosine distance in embedding space.
	SearchVector(vec []float64, topK int) ([]domain.Neighbor, error)
	// Neighbors returns the records closest to id on the map, id excluded.
	Neighbors(id string, topK int) ([]domain.Neighbor, error)
	Len() int
	Clear() error
}
