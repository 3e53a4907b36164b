// Package catalog reads the Gutenberg metadata CSV and turns the rows that pass
// the language, genre and author rules into pipeline records.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"bookmap/internal/domain"
)

// Entry is one raw catalog row.
type Entry struct {
	ID           string
	Title        string
	Author       string
	BirthYearRaw string
	Languages    []string
	Subjects     string
}

// Rules selects which entries reach the pipeline.
type Rules struct {
	Languages       []string
	Genres          []string
	ExcludedAuthors []string
	Limit           int
}

var requiredColumns = []string{"id", "title", "author", "authoryearofbirth", "language", "subjects"}

// Read parses a metadata CSV with a header row. Unknown columns, including the
// unnamed index column pandas writes, are ignored.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("catalog is missing column %q", c)
		}
	}
	field := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}
		entries = append(entries, Entry{
			ID:           field(row, "id"),
			Title:        field(row, "title"),
			Author:       field(row, "author"),
			BirthYearRaw: field(row, "authoryearofbirth"),
			Languages:    parseList(field(row, "language")),
			Subjects:     field(row, "subjects"),
		})
	}
	return entries, nil
}

// Filter keeps entries written only in allowed languages, tagged with at least
// one wanted genre and attributed to a real author.
func Filter(entries []Entry, rules Rules) []Entry {
	fold := cases.Fold()
	langs := make(map[string]struct{}, len(rules.Languages))
	for _, l := range rules.Languages {
		langs[fold.String(l)] = struct{}{}
	}
	genres := make([]string, len(rules.Genres))
	for i, g := range rules.Genres {
		genres[i] = fold.String(g)
	}
	excluded := make(map[string]struct{}, len(rules.ExcludedAuthors))
	for _, a := range rules.ExcludedAuthors {
		excluded[a] = struct{}{}
	}

	var out []Entry
	for _, e := range entries {
		if rules.Limit > 0 && len(out) >= rules.Limit {
			break
		}
		if !languageAllowed(e.Languages, langs, fold) {
			continue
		}
		if !hasGenre(fold.String(e.Subjects), genres) {
			continue
		}
		if e.Author == "" {
			continue
		}
		if _, ok := excluded[e.Author]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func languageAllowed(languages []string, allowed map[string]struct{}, fold cases.Caser) bool {
	if len(languages) == 0 {
		return false
	}
	for _, l := range languages {
		if _, ok := allowed[fold.String(l)]; !ok {
			return false
		}
	}
	return true
}

func hasGenre(subjects string, genres []string) bool {
	for _, g := range genres {
		if strings.Contains(subjects, g) {
			return true
		}
	}
	return false
}

// parseList reads the Python list literal form the catalog uses, e.g. "['en', 'fr']".
// A bare value is returned as a single item.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseBirthYear truncates a numeric year ("1812.0") and treats anything else,
// including values too large to be a year, as unknown.
func ParseBirthYear(raw string) domain.BirthYear {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.BirthYear{}
	}
	// int conversion of an out-of-range float is implementation defined
	if v <= math.MinInt32 || v >= math.MaxInt32 {
		return domain.BirthYear{}
	}
	return domain.Year(int(v))
}

// TextPath is where the full text of a catalog id lives.
func TextPath(textDir, id string) string {
	return filepath.Join(textDir, id+"_text.txt")
}

// Records converts entries into pipeline records.
func Records(entries []Entry, textDir string) []domain.DocumentRecord {
	out := make([]domain.DocumentRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.DocumentRecord{
			ID:        e.ID,
			Title:     e.Title,
			Author:    e.Author,
			BirthYear: ParseBirthYear(e.BirthYearRaw),
			Genre:     Genre(e.Subjects),
			TextPath:  TextPath(textDir, e.ID),
		})
	}
	return out
}
