package catalog

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmap/internal/domain"
)

const sampleCSV = `,id,title,author,authoryearofbirth,authoryearofdeath,language,downloads,subjects,type
0,PG84,Frankenstein,"Shelley, Mary Wollstonecraft",1797.0,1851.0,['en'],1000,"{'Science fiction', 'Horror tales'}",Text
1,PG11,Alice's Adventures in Wonderland,"Carroll, Lewis",1832.0,1898.0,['en'],900,"{'Fantasy fiction', 'Juvenile fiction'}",Text
2,PG99,Collected Tales,Various,,,['en'],10,"{'Short stories'}",Text
3,PG17,Les Misérables,"Hugo, Victor",1802.0,1885.0,['fr'],50,"{'Historical fiction'}",Text
4,PG55,Bilingual Westerns,"Grey, Zane",1872.0,1939.0,"['en', 'es']",5,"{'Western stories'}",Text
5,PG12,Cookbook,"Beeton, Isabella",1836.0,1865.0,['en'],5,"{'Cooking'}",Text
6,PG13,The Time Machine,"Wells, H. G.",,1946.0,['en'],700,"{'SCIENCE FICTION'}",Text
`

func TestRead(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, entries, 7)

	first := entries[0]
	assert.Equal(t, "PG84", first.ID)
	assert.Equal(t, "Shelley, Mary Wollstonecraft", first.Author)
	assert.Equal(t, "1797.0", first.BirthYearRaw)
	assert.Equal(t, []string{"en"}, first.Languages)
	assert.Equal(t, []string{"en", "es"}, entries[4].Languages)
}

func TestReadMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("id,title\nPG1,Foo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "author")
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rules := Rules{
		Languages:       []string{"en"},
		Genres:          []string{"Science fiction", "Fantasy", "Short stories", "Western", "Historical fiction"},
		ExcludedAuthors: []string{"Various"},
	}
	got := Filter(entries, rules)

	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"PG84", "PG11", "PG13"}, ids)
}

func TestFilterLimit(t *testing.T) {
	entries, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	got := Filter(entries, Rules{Languages: []string{"en"}, Genres: []string{"fiction"}, Limit: 2})
	assert.Len(t, got, 2)
}

func TestGenre(t *testing.T) {
	tests := []struct {
		subjects string
		want     string
	}{
		{"{'Science fiction', 'Fantasy'}", "Science Fiction"},
		{"{'Fantasy fiction', 'Juvenile fiction'}", "Fantasy Fiction"},
		{"{'Juvenile fiction', 'Humor'}", "Young Adult Fiction"},
		{"{'Detective and mystery stories', 'Mystery fiction'}", "Mystery Fiction"},
		{"{'Historical fiction'}", "Historical Fiction"},
		{"{'Humorous stories', 'Humor'}", "Humor"},
		{"{'Western stories'}", "Western Fiction"},
		{"{'Adventure stories'}", "Adventure Fiction"},
		{"{'Short stories'}", "Short Stories"},
		{"{'Love stories'}", GeneralFiction},
		{"{'science fiction'}", GeneralFiction},
	}
	for _, tt := range tests {
		t.Run(tt.subjects, func(t *testing.T) {
			assert.Equal(t, tt.want, Genre(tt.subjects))
		})
	}
}

func TestParseBirthYear(t *testing.T) {
	assert.Equal(t, domain.Year(1812), ParseBirthYear("1812.0"))
	assert.Equal(t, domain.Year(-384), ParseBirthYear("-384"))
	assert.Equal(t, domain.BirthYear{}, ParseBirthYear(""))
	assert.Equal(t, domain.BirthYear{}, ParseBirthYear("NaN"))
	assert.Equal(t, domain.BirthYear{}, ParseBirthYear("circa 1800"))
	assert.Equal(t, domain.BirthYear{}, ParseBirthYear("1e30"))
	assert.Equal(t, domain.BirthYear{}, ParseBirthYear("-1e30"))
	assert.Equal(t, domain.BirthYear{}, ParseBirthYear("Inf"))
}

func TestRecords(t *testing.T) {
	entries := []Entry{{ID: "PG84", Title: "Frankenstein", Author: "Shelley", BirthYearRaw: "1797.0", Subjects: "{'Science fiction'}"}}
	recs := Records(entries, "texts")
	require.Len(t, recs, 1)
	assert.Equal(t, domain.DocumentRecord{
		ID:        "PG84",
		Title:     "Frankenstein",
		Author:    "Shelley",
		BirthYear: domain.Year(1797),
		Genre:     "Science Fiction",
		TextPath:  filepath.Join("texts", "PG84_text.txt"),
	}, recs[0])
}
