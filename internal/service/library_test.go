package service

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmap/internal/domain"
	"bookmap/internal/loader"
	"bookmap/internal/summarizer"
	"bookmap/internal/vectorstore/memory"
)

func libraryRecords() []domain.OutputRecord {
	return []domain.OutputRecord{
		{ID: "PG84", Title: "Frankenstein", Author: "Shelley, Mary", Genre: "Science Fiction", BookPath: "t/PG84_text.txt",
			Vector: []float64{1, 0}, XCoord: domain.TextCoordinate(0), YCoord: domain.TextCoordinate(0)},
		{ID: "PG35", Title: "The Time Machine", Author: "Wells, H. G.", Genre: "Science Fiction", BookPath: "t/PG35_text.txt",
			Vector: []float64{0.9, 0.1}, XCoord: domain.TextCoordinate(1), YCoord: domain.TextCoordinate(0)},
		{ID: "PG11", Title: "Alice's Adventures in Wonderland", Author: "Carroll, Lewis", Genre: "Fantasy Fiction", BookPath: "t/PG11_text.txt",
			Vector: []float64{0, 1}, XCoord: domain.TextCoordinate(5), YCoord: domain.TextCoordinate(5)},
	}
}

func newLibrary(t *testing.T, fsys afero.Fs) *Library {
	t.Helper()
	lib, err := NewLibrary(libraryRecords(), memory.NewStorage(), loader.New(fsys), summarizer.NewFrequencySummarizer(0))
	require.NoError(t, err)
	return lib
}

func TestLibraryFilter(t *testing.T) {
	lib := newLibrary(t, afero.NewMemMapFs())
	assert.Equal(t, 3, lib.Len())

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"PG84", "PG35", "PG11"}},
		{"science", []string{"PG84", "PG35"}},
		{"  WELLS ", []string{"PG35"}},
		{"alice", []string{"PG11"}},
		{"dracula", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, r := range lib.Filter(tt.query) {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLibraryNeighborsAndSimilar(t *testing.T) {
	lib := newLibrary(t, afero.NewMemMapFs())

	near, err := lib.Neighbors("PG84", 1)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "PG35", near[0].Record.ID)

	similar, err := lib.Similar(libraryRecords()[2], 1)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "PG35", similar[0].Record.ID)

	none, err := lib.Similar(domain.OutputRecord{ID: "x"}, 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLibraryPreview(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "t/PG84_text.txt", []byte("You will rejoice to hear. No disaster has accompanied the commencement."), 0o644))
	lib := newLibrary(t, fsys)

	p, err := lib.Preview(context.Background(), libraryRecords()[0])
	require.NoError(t, err)
	assert.Equal(t, "You will rejoice to hear. No disaster has accompanied the commencement.", p)

	// cached: survives the file going away
	require.NoError(t, fsys.Remove("t/PG84_text.txt"))
	p, err = lib.Preview(context.Background(), libraryRecords()[0])
	require.NoError(t, err)
	assert.NotEmpty(t, p)

	_, err = lib.Preview(context.Background(), libraryRecords()[1])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryNear(t *testing.T) {
	lib := newLibrary(t, afero.NewMemMapFs())

	got, err := lib.Near(domain.Point{X: 0.4, Y: 0}, 1, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "PG84", got[0].Record.ID)
	assert.Equal(t, "PG35", got[1].Record.ID)

	got, err = lib.Near(domain.Point{X: 5, Y: 5}, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PG11", got[0].Record.ID)

	got, err = lib.Near(domain.Point{X: 2.5, Y: 2.5}, 0.1, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
