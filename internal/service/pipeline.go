// Package service runs the embedding and projection pipeline over a document batch.
package service

import (
	"context"
	"errors"
	"fmt"

	"bookmap/internal/corpus"
	"bookmap/internal/domain"
	"bookmap/internal/embedding"
	"bookmap/internal/logger"
	"bookmap/internal/merge"
)

// Options tunes a pipeline run.
type Options struct {
	// Key is the corpus row identity. Defaults to corpus.ByID.
	Key corpus.KeyFunc
	// MaxChars is the vectorizer length limit in characters. Zero disables it.
	MaxChars int
	// IncludeVectors attaches each row's vector to its output record.
	IncludeVectors bool
}

// Stats counts documents at each stage of a run.
type Stats struct {
	Input      int
	Loaded     int
	NotFound   int
	Invalid    int
	TooLong    int
	Vectorized int
	Rows       int
	Collisions int
	Output     int
}

// Result is the outcome of a run.
type Result struct {
	Records    []domain.OutputRecord
	Collisions []corpus.Collision
	Stats      Stats
}

// Pipeline wires a loader, a vectorizer and a reducer into one batch run.
type Pipeline struct {
	loader  domain.TextLoader
	guard   *embedding.Guard
	reducer domain.Reducer
	opts    Options
	log     logger.Logger
}

// NewPipeline builds a pipeline. The embedder is wrapped in a length guard.
func NewPipeline(loader domain.TextLoader, embedder domain.Embedder, reducer domain.Reducer, opts Options, log logger.Logger) *Pipeline {
	if opts.Key == nil {
		opts.Key = corpus.ByID
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		loader:  loader,
		guard:   embedding.NewGuard(embedder, opts.MaxChars),
		reducer: reducer,
		opts:    opts,
		log:     log,
	}
}

type loaded struct {
	record domain.DocumentRecord
	text   string
}

// Run vectorizes, projects and merges records. Documents that cannot be loaded
// or are too long are logged and left out; everything else is fatal.
func (p *Pipeline) Run(ctx context.Context, records []domain.DocumentRecord) (*Result, error) {
	res := &Result{Records: []domain.OutputRecord{}}
	res.Stats.Input = len(records)

	docs, err := p.load(ctx, records, &res.Stats)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.text
	}
	if err := p.guard.Prepare(texts); err != nil {
		return nil, fmt.Errorf("vectorize: prepare %s: %w", p.guard.Name(), err)
	}

	builder := corpus.NewBuilder(p.opts.Key)
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("vectorize: %w", err)
		}
		vec, err := p.guard.Embed(d.text)
		if errors.Is(err, domain.ErrLengthExceeded) {
			res.Stats.TooLong++
			p.log.Warn("document skipped", "id", d.record.ID, "title", d.record.Title, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("vectorize: document %s: %w", d.record.ID, err)
		}
		if err := builder.Add(d.record, vec); err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
		res.Stats.Vectorized++
	}

	if res.Stats.Vectorized == 0 {
		p.log.Warn("no documents vectorized, nothing to project", "input", res.Stats.Input)
		return res, nil
	}

	matrix, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	res.Collisions = matrix.Collisions()
	res.Stats.Rows = matrix.Rows()
	res.Stats.Collisions = len(res.Collisions)
	for _, c := range res.Collisions {
		p.log.Warn("corpus key collision, earlier document replaced", "key", c.Key, "kept", c.Kept, "dropped", c.Dropped)
	}

	rows, cols := matrix.Dims()
	p.log.Info("projecting corpus", "rows", rows, "dimensions", cols, "vectorizer", p.guard.Name())
	points, err := p.reducer.Reduce(ctx, matrix.Dense())
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}

	mopts := merge.Options{Key: p.opts.Key}
	if p.opts.IncludeVectors {
		mopts.Vectors = matrix.Row
	}
	out, err := merge.Merge(matrix.Records(), domain.Projection{Keys: matrix.Keys(), Points: points}, mopts)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	res.Records = out
	res.Stats.Output = len(out)
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, records []domain.DocumentRecord, stats *Stats) ([]loaded, error) {
	docs := make([]loaded, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := p.loader.Load(ctx, rec)
		if err != nil {
			if !domain.Skippable(err) {
				return nil, err
			}
			switch {
			case errors.Is(err, domain.ErrNotFound):
				stats.NotFound++
			case errors.Is(err, domain.ErrInvalidEncoding):
				stats.Invalid++
			}
			p.log.Warn("document skipped", "id", rec.ID, "title", rec.Title, "error", err)
			continue
		}
		docs = append(docs, loaded{record: rec, text: text})
	}
	stats.Loaded = len(docs)
	return docs, nil
}
