package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBeforePrepare(t *testing.T) {
	_, err := NewEmbedder(0).Embed("anything")
	assert.Error(t, err)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder(0).Prepare(nil))
	assert.Error(t, NewEmbedder(0).Prepare([]string{"the of and"}))
}

func TestEmbedFixedWidthAndUnitNorm(t *testing.T) {
	e := NewEmbedder(0)
	corpus := []string{"whale ship harpoon", "ship captain storm", "garden roses tea"}
	require.NoError(t, e.Prepare(corpus))
	assert.Equal(t, 8, e.Dimension())

	for _, text := range corpus {
		vec, err := e.Embed(text)
		require.NoError(t, err)
		require.Len(t, vec, e.Dimension())
		norm := 0.0
		for _, v := range vec {
			norm += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}

	vec, err := e.Embed("unrelated vocabulary entirely")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestMaxFeaturesKeepsCommonTerms(t *testing.T) {
	e := NewEmbedder(1)
	require.NoError(t, e.Prepare([]string{"ship whale", "ship storm", "ship roses"}))
	assert.Equal(t, 1, e.Dimension())

	vec, err := e.Embed("a ship")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vec)
}
