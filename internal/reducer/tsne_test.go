package reducer

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"bookmap/internal/domain"
)

func dist(a, b domain.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestNewValidatesConfig(t *testing.T) {
	mutations := map[string]func(*Config){
		"components":   func(c *Config) { c.Components = 0 },
		"perplexity":   func(c *Config) { c.Perplexity = 0 },
		"iterations":   func(c *Config) { c.Iterations = 0 },
		"learningRate": func(c *Config) { c.LearningRate = -1 },
		"exaggeration": func(c *Config) { c.EarlyExaggeration = 0.5 },
		"metric":       func(c *Config) { c.Metric = "manhattan" },
		"init":         func(c *Config) { c.Init = "spectral" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestBatchTooSmall(t *testing.T) {
	r, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	// perplexity 5 needs more than 5 documents
	data := mat.NewDense(5, 3, nil)
	_, err = r.Reduce(context.Background(), data)
	assert.ErrorIs(t, err, domain.ErrBatchTooSmall)

	_, err = r.Reduce(context.Background(), mat.NewDense(1, 3, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, domain.ErrBatchTooSmall)
}

func TestEffectivePerplexity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Perplexity = 30
	strict, err := New(cfg, nil)
	require.NoError(t, err)
	_, err = strict.EffectivePerplexity(30)
	assert.ErrorIs(t, err, domain.ErrBatchTooSmall)
	p, err := strict.EffectivePerplexity(31)
	require.NoError(t, err)
	assert.Equal(t, 30.0, p)

	cfg.AdaptPerplexity = true
	adaptive, err := New(cfg, nil)
	require.NoError(t, err)
	p, err = adaptive.EffectivePerplexity(10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p)
	p, err = adaptive.EffectivePerplexity(2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
	_, err = adaptive.EffectivePerplexity(1)
	assert.ErrorIs(t, err, domain.ErrBatchTooSmall)
}

func TestJointProbabilitiesSumToOne(t *testing.T) {
	data := mat.NewDense(4, 2, []float64{0, 0, 1, 0, 0, 1, 5, 5})
	p := jointProbabilities(distances(data, "euclidean"), 4, 2)
	total := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, p[i*4+j], p[j*4+i], 1e-12)
			if i != j {
				total += p[i*4+j]
			}
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestSimilarVectorsLandCloser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Perplexity = 1
	r, err := New(cfg, nil)
	require.NoError(t, err)

	data := mat.NewDense(3, 4, []float64{
		1, 0.9, 0, 0,
		0.9, 1, 0.1, 0,
		0, 0, 0.2, 1,
	})
	pts, err := r.Reduce(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pts, 3)

	ab := dist(pts[0], pts[1])
	assert.Less(t, ab, dist(pts[0], pts[2]))
	assert.Less(t, ab, dist(pts[1], pts[2]))
}

func TestClustersSeparate(t *testing.T) {
	// two tight groups of four far apart
	rows := []float64{
		0, 0, 0.1, 0, 0, 0.1, 0.1, 0.1,
		10, 10, 10.1, 10, 10, 10.1, 10.1, 10.1,
	}
	data := mat.NewDense(8, 2, nil)
	for i := 0; i < 4; i++ {
		data.Set(i, 0, rows[2*i])
		data.Set(i, 1, rows[2*i+1])
		data.Set(i+4, 0, rows[8+2*i])
		data.Set(i+4, 1, rows[8+2*i+1])
	}
	cfg := DefaultConfig()
	cfg.Perplexity = 3
	r, err := New(cfg, nil)
	require.NoError(t, err)
	pts, err := r.Reduce(context.Background(), data)
	require.NoError(t, err)

	maxWithin, minBetween := 0.0, math.Inf(1)
	for i := 0; i < 8; i++ {
		for j := i + 1; j < 8; j++ {
			d := dist(pts[i], pts[j])
			if (i < 4) == (j < 4) {
				maxWithin = math.Max(maxWithin, d)
			} else {
				minBetween = math.Min(minBetween, d)
			}
		}
	}
	assert.Less(t, maxWithin, minBetween)
}

func TestSeedMakesRunsReproducible(t *testing.T) {
	data := mat.NewDense(6, 3, []float64{
		1, 0, 0, 0.9, 0.1, 0, 0, 1, 0,
		0, 0.9, 0.1, 0, 0, 1, 0.1, 0, 0.9,
	})
	cfg := DefaultConfig()
	cfg.Init = "random"
	cfg.Iterations = 300
	cfg.Seed = 7

	a, err := New(cfg, nil)
	require.NoError(t, err)
	b, err := New(cfg, nil)
	require.NoError(t, err)

	pa, err := a.Reduce(context.Background(), data)
	require.NoError(t, err)
	pb, err := b.Reduce(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)

	cfg.Seed = 8
	c, err := New(cfg, nil)
	require.NoError(t, err)
	pc, err := c.Reduce(context.Background(), data)
	require.NoError(t, err)
	assert.NotEqual(t, pa, pc)
}

func TestCosineMetric(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Perplexity = 1
	cfg.Metric = "cosine"
	r, err := New(cfg, nil)
	require.NoError(t, err)

	// same direction, different lengths
	data := mat.NewDense(3, 2, []float64{1, 0, 10, 0.5, 0, 1})
	pts, err := r.Reduce(context.Background(), data)
	require.NoError(t, err)
	assert.Less(t, dist(pts[0], pts[1]), dist(pts[0], pts[2]))
}

func TestReduceHonoursCancellation(t *testing.T) {
	r, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Reduce(ctx, mat.NewDense(8, 2, []float64{0, 0, 1, 0, 0, 1, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReduceRequiresTwoComponents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Components = 3
	cfg.Perplexity = 1
	r, err := New(cfg, nil)
	require.NoError(t, err)

	data := mat.NewDense(4, 3, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1})
	_, err = r.Reduce(context.Background(), data)
	assert.Error(t, err)

	y, err := r.Embed(context.Background(), data)
	require.NoError(t, err)
	rows, cols := y.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
}
