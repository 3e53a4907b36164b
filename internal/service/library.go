package service

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"

	"bookmap/internal/domain"
	"bookmap/internal/vectorstore"
)

const (
	previewSentences = 3
	previewCacheSize = 64
)

// Library serves a finished record set to the viewer: text filtering, map
// neighbours and short previews of each book.
type Library struct {
	records    []domain.OutputRecord
	folded     []string
	store      vectorstore.Storage
	loader     domain.TextLoader
	summarizer domain.Summarizer
	previews   *lru.Cache[string, string]
	fold       cases.Caser
}

// NewLibrary indexes recs into store. loader and summarizer may be nil, in
// which case no previews are produced.
func NewLibrary(recs []domain.OutputRecord, store vectorstore.Storage, loader domain.TextLoader, summarizer domain.Summarizer) (*Library, error) {
	if err := store.Clear(); err != nil {
		return nil, err
	}
	if err := store.Upsert(recs); err != nil {
		return nil, fmt.Errorf("index records: %w", err)
	}
	previews, err := lru.New[string, string](previewCacheSize)
	if err != nil {
		return nil, err
	}
	l := &Library{
		records:    append([]domain.OutputRecord(nil), recs...),
		store:      store,
		loader:     loader,
		summarizer: summarizer,
		previews:   previews,
		fold:       cases.Fold(),
	}
	l.folded = make([]string, len(recs))
	for i, r := range recs {
		l.folded[i] = l.fold.String(strings.Join([]string{r.Title, r.Author, r.Genre}, "\x00"))
	}
	return l, nil
}

// Len returns the number of records.
func (l *Library) Len() int { return len(l.records) }

// Filter returns records whose title, author or genre contains query, ignoring
// case. An empty query matches everything.
func (l *Library) Filter(query string) []domain.OutputRecord {
	q := l.fold.String(strings.TrimSpace(query))
	out := make([]domain.OutputRecord, 0, len(l.records))
	for i, r := range l.records {
		if q == "" || strings.Contains(l.folded[i], q) {
			out = append(out, r)
		}
	}
	return out
}

// Neighbors returns the records closest to id on the map.
func (l *Library) Neighbors(id string, topK int) ([]domain.Neighbor, error) {
	return l.store.Neighbors(id, topK)
}

// Near returns up to limit records within radius of p on the map, closest first.
func (l *Library) Near(p domain.Point, radius float64, limit int) ([]domain.Neighbor, error) {
	found, err := l.store.Search(p, limit)
	if err != nil {
		return nil, err
	}
	for i, n := range found {
		if n.Distance > radius {
			return found[:i], nil
		}
	}
	return found, nil
}

// Similar returns the records closest to rec in embedding space. Records
// without vectors have no similar records.
func (l *Library) Similar(rec domain.OutputRecord, topK int) ([]domain.Neighbor, error) {
	if len(rec.Vector) == 0 {
		return nil, nil
	}
	found, err := l.store.SearchVector(rec.Vector, topK+1)
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, n := range found {
		if n.Record.ID != rec.ID && len(out) < topK {
			out = append(out, n)
		}
	}
	return out, nil
}

// Preview summarizes the opening of rec's text.
func (l *Library) Preview(ctx context.Context, rec domain.OutputRecord) (string, error) {
	if l.loader == nil || l.summarizer == nil {
		return "", nil
	}
	if p, ok := l.previews.Get(rec.ID); ok {
		return p, nil
	}
	text, err := l.loader.Load(ctx, domain.DocumentRecord{ID: rec.ID, Title: rec.Title, TextPath: rec.BookPath})
	if err != nil {
		return "", err
	}
	p, err := l.summarizer.Summarize(text, previewSentences)
	if err != nil {
		return "", err
	}
	l.previews.Add(rec.ID, p)
	return p, nil
}
