package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmap/internal/domain"
)

func rec(id string, x, y float64, vec ...float64) domain.OutputRecord {
	return domain.OutputRecord{
		ID:     id,
		Title:  "Title " + id,
		Vector: vec,
		XCoord: domain.TextCoordinate(x),
		YCoord: domain.NumericCoordinate(y),
	}
}

func ids(ns []domain.Neighbor) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Record.ID
	}
	return out
}

func TestNeighborsExcludeSelf(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert([]domain.OutputRecord{
		rec("a", 0, 0), rec("b", 1, 0), rec("c", 0, 3), rec("d", 10, 10),
	}))

	got, err := s.Neighbors("a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))
	assert.InDelta(t, 1.0, got[0].Distance, 1e-12)
	assert.InDelta(t, 3.0, got[1].Distance, 1e-12)

	all, err := s.Neighbors("a", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.Neighbors("zzz", 1)
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestSearchPoint(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert([]domain.OutputRecord{rec("a", 0, 0), rec("b", 5, 5), rec("c", 4, 4)}))

	got, err := s.Search(domain.Point{X: 5, Y: 4.9}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert([]domain.OutputRecord{rec("x", 1, 0), rec("y", -1, 0), rec("z", 0, 1)}))
	got, err := s.Search(domain.Point{}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, ids(got))
}

func TestUpsertReplacesByID(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert([]domain.OutputRecord{rec("a", 0, 0), rec("b", 1, 1)}))
	require.NoError(t, s.Upsert([]domain.OutputRecord{rec("a", 9, 9)}))
	assert.Equal(t, 2, s.Len())

	got, err := s.Neighbors("b", 1)
	require.NoError(t, err)
	assert.InDelta(t, 8*1.4142135623730951, got[0].Distance, 1e-9)

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
}

func TestSearchVector(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert([]domain.OutputRecord{
		rec("east", 0, 0, 1, 0),
		rec("north", 0, 0, 0, 1),
		rec("northeast", 0, 0, 1, 1),
		rec("nowhere", 0, 0),
	}))

	got, err := s.SearchVector([]float64{2, 0.1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "northeast"}, ids(got))

	_, err = s.SearchVector([]float64{1, 2, 3}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestUpsertRejectsMixedWidths(t *testing.T) {
	s := NewStorage()
	err := s.Upsert([]domain.OutputRecord{rec("a", 0, 0, 1, 2), rec("b", 0, 0, 1, 2, 3)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, s.Len())

	_, err = NewStorage().SearchVector([]float64{1}, 1)
	assert.Error(t, err)
}
