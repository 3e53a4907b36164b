package domain

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// DocumentRecord is one curated catalog entry handed to the pipeline.
// Stages never mutate a record; they copy it into richer types.
type DocumentRecord struct {
	ID        string
	Title     string
	Author    string
	BirthYear BirthYear
	Genre     string
	TextPath  string
}

// Point is a projected 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// Projection pairs every corpus key with its reduced coordinate, in matrix row order.
type Projection struct {
	Keys   []string
	Points []Point
}

// Neighbor is a record found close to another one on the map.
type Neighbor struct {
	Record   OutputRecord
	Distance float64
}

// TextLoader resolves a record to its full text.
type TextLoader interface {
	Load(ctx context.Context, rec DocumentRecord) (string, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Reducer projects an N x D matrix to N points.
type Reducer interface {
	Reduce(ctx context.Context, data *mat.Dense) ([]Point, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
