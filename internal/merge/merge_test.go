package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmap/internal/corpus"
	"bookmap/internal/domain"
)

func TestMerge(t *testing.T) {
	records := []domain.DocumentRecord{
		{ID: "PG2", Title: "B", Author: "Bee", BirthYear: domain.Year(1900), Genre: "Humor", TextPath: "t/PG2_text.txt"},
		{ID: "PG1", Title: "A", Author: "Ay", Genre: "Humor", TextPath: "t/PG1_text.txt"},
	}
	proj := domain.Projection{
		Keys:   []string{"PG1", "PG2"},
		Points: []domain.Point{{X: 1.5, Y: -2}, {X: 0.25, Y: 3}},
	}

	out, err := Merge(records, proj, Options{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, domain.OutputRecord{
		ID:        "PG2",
		BookPath:  "t/PG2_text.txt",
		Title:     "B",
		Author:    "Bee",
		BirthYear: domain.Year(1900),
		Genre:     "Humor",
		XCoord:    domain.Coordinate{Value: 0.25, Raw: "0.25"},
		YCoord:    domain.Coordinate{Value: 3, Raw: "3"},
	}, out[0])
	assert.Equal(t, "1.5", out[1].XCoord.Raw)
	assert.Equal(t, "-2", out[1].YCoord.Raw)
	assert.False(t, out[1].BirthYear.Known)
}

func TestMergeMissingKeyIsFatal(t *testing.T) {
	records := []domain.DocumentRecord{{ID: "1"}, {ID: "2"}}
	proj := domain.Projection{Keys: []string{"1"}, Points: []domain.Point{{}}}

	out, err := Merge(records, proj, Options{})
	assert.ErrorIs(t, err, domain.ErrMergeKeyMismatch)
	assert.Contains(t, err.Error(), `"2"`)
	assert.Nil(t, out)
}

func TestMergeInconsistentProjection(t *testing.T) {
	_, err := Merge(nil, domain.Projection{Keys: []string{"1"}}, Options{})
	assert.ErrorIs(t, err, domain.ErrMergeKeyMismatch)
}

func TestMergeByTitleWithVectors(t *testing.T) {
	records := []domain.DocumentRecord{{ID: "9", Title: "Dup"}}
	proj := domain.Projection{Keys: []string{"Dup"}, Points: []domain.Point{{X: 1, Y: 1}}}
	vectors := map[string][]float64{"Dup": {0.1, 0.2}}

	out, err := Merge(records, proj, Options{
		Key: corpus.ByTitle,
		Vectors: func(k string) ([]float64, bool) {
			v, ok := vectors[k]
			return v, ok
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, out[0].Vector)

	_, err = Merge(records, proj, Options{
		Key:     corpus.ByTitle,
		Vectors: func(string) ([]float64, bool) { return nil, false },
	})
	assert.ErrorIs(t, err, domain.ErrMergeKeyMismatch)
}
