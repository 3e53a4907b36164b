package wordvec

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glove = `the 0.5 0.5 0.5
whale 1 0 0
ship 0 1 0
Paris 0 0 1
`

func TestReadGlove(t *testing.T) {
	e, err := Read(strings.NewReader(glove))
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, 4, e.Size())
}

func TestReadWord2VecHeader(t *testing.T) {
	e, err := Read(strings.NewReader("2 2\nfoo 1 2\nbar 3 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Dimension())
	assert.Equal(t, 2, e.Size())
}

func TestReadErrors(t *testing.T) {
	tests := map[string]string{
		"ragged":  "foo 1 2\nbar 1\n",
		"no vals": "foo\n",
		"bad num": "foo 1 x\n",
		"empty":   "\n\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestEmbedMean(t *testing.T) {
	e, err := Read(strings.NewReader(glove))
	require.NoError(t, err)

	vec, err := e.Embed("The whale, the ship!")
	require.NoError(t, err)
	// the x2, whale, ship
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.25}, vec, 1e-6)
}

func TestEmbedPrefersExactCase(t *testing.T) {
	e, err := Read(strings.NewReader(glove))
	require.NoError(t, err)

	vec, err := e.Embed("Paris WHALE unknownword")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.5}, vec, 1e-6)

	zero, err := e.Embed("nothing known here")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, zero)
}

func TestLoadFromFs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "vectors/glove.txt", []byte(glove), 0o644))

	e, err := Load(fsys, "vectors/glove.txt")
	require.NoError(t, err)
	assert.Equal(t, "wordvec", e.Name())

	_, err = Load(fsys, "vectors/missing.txt")
	assert.Error(t, err)
}
