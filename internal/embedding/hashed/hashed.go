// Package hashed embeds documents as the mean of deterministic pseudo-random
// token vectors (random indexing). It needs no model file.
package hashed

import (
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"bookmap/internal/embedding"
)

// DefaultDimension matches the width of common pretrained word vectors.
const DefaultDimension = 300

const defaultCacheSize = 4096

// Embedder averages per-token vectors and normalizes the result.
type Embedder struct {
	dimension int
	cache     *lru.Cache[string, []float64]
}

// NewEmbedder returns an embedder of the given width. cacheSize bounds the number
// of token vectors kept between documents; zero picks a default.
func NewEmbedder(dimension, cacheSize int) (*Embedder, error) {
	if dimension <= 0 {
		return nil, errors.New("hashed embedder: dimension must be positive")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []float64](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Embedder{dimension: dimension, cache: cache}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashed" }

// Prepare is a no-op; token vectors do not depend on the corpus.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the width of produced vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the unit-length mean token vector of text, or a zero vector
// when text has no tokens.
func (e *Embedder) Embed(text string) ([]float64, error) {
	counts := make(map[string]int)
	total := 0
	for _, tok := range embedding.Tokens(text) {
		counts[tok]++
		total++
	}
	vec := make([]float64, e.dimension)
	if total == 0 {
		return vec, nil
	}
	// fixed summation order keeps vectors bit-identical across runs
	toks := make([]string, 0, len(counts))
	for tok := range counts {
		toks = append(toks, tok)
	}
	sort.Strings(toks)
	for _, tok := range toks {
		w := float64(counts[tok]) / float64(total)
		for i, v := range e.tokenVector(tok) {
			vec[i] += w * v
		}
	}
	embedding.Normalize(vec)
	return vec, nil
}

func (e *Embedder) tokenVector(tok string) []float64 {
	if v, ok := e.cache.Get(tok); ok {
		return v
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	v := make([]float64, e.dimension)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	e.cache.Add(tok, v)
	return v
}
