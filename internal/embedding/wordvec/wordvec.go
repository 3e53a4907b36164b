// Package wordvec embeds documents as the mean of pretrained word vectors
// read from a GloVe or word2vec text file.
package wordvec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"bookmap/internal/embedding"
)

// Embedder looks up every word of a text and averages the known vectors.
type Embedder struct {
	dimension int
	vectors   map[string][]float32
}

// Load reads a vectors file from fsys.
func Load(fsys afero.Fs, path string) (*Embedder, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word vectors: %w", err)
	}
	defer f.Close()
	e, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// Read parses lines of the form "word v1 v2 ... vD". A leading "count dim"
// header, as word2vec writes, is skipped.
func Read(r io.Reader) (*Embedder, error) {
	e := &Embedder{vectors: make(map[string][]float32)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 && isInt(fields[0]) && isInt(fields[1]) {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: no vector values", line)
		}
		if e.dimension == 0 {
			e.dimension = len(fields) - 1
		}
		if len(fields)-1 != e.dimension {
			return nil, fmt.Errorf("line %d: %d values, expected %d", line, len(fields)-1, e.dimension)
		}
		vec := make([]float32, e.dimension)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = float32(v)
		}
		if _, dup := e.vectors[fields[0]]; !dup {
			e.vectors[fields[0]] = vec
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(e.vectors) == 0 {
		return nil, errors.New("no word vectors found")
	}
	return e, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "wordvec" }

// Prepare is a no-op; the vectors are pretrained.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the width of the loaded vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Size returns the vocabulary size.
func (e *Embedder) Size() int { return len(e.vectors) }

// Embed returns the mean vector of the in-vocabulary words of text. Words are
// looked up as written first, then lowercased. Texts with no known word get a
// zero vector.
func (e *Embedder) Embed(text string) ([]float64, error) {
	counts := make(map[string]int)
	for _, w := range embedding.Words(text) {
		if _, ok := e.vectors[w]; ok {
			counts[w]++
			continue
		}
		if lw := strings.ToLower(w); lw != w {
			if _, ok := e.vectors[lw]; ok {
				counts[lw]++
			}
		}
	}
	sum := make([]float64, e.dimension)
	if len(counts) == 0 {
		return sum, nil
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Strings(words)
	total := 0
	for _, w := range words {
		c := counts[w]
		total += c
		for i, v := range e.vectors[w] {
			sum[i] += float64(c) * float64(v)
		}
	}
	for i := range sum {
		sum[i] /= float64(total)
	}
	return sum, nil
}
