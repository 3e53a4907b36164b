// Package reducer projects document vectors to 2D with exact t-SNE.
//
// Coordinates are only comparable within one run over one document set. With
// a fixed Seed, and the same input, a run is reproducible on the same platform;
// PCA initialisation does not consume the seed at all.
package reducer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"bookmap/internal/domain"
	"bookmap/internal/logger"
)

const (
	machineEpsilon    = 2.220446049250313e-16
	perplexityTol     = 1e-5
	perplexitySteps   = 100
	minGain           = 0.01
	initialMomentum   = 0.5
	finalMomentum     = 0.8
	minGradNorm       = 1e-7
	initScale         = 1e-4
	progressInterval  = 50
	exaggerationIters = 250
)

// Config holds the t-SNE parameters.
type Config struct {
	Components        int
	Perplexity        float64
	Iterations        int
	LearningRate      float64
	EarlyExaggeration float64
	ExaggerationIters int
	Metric            string
	Init              string
	Seed              uint64
	// AdaptPerplexity lowers the perplexity of small batches instead of failing.
	AdaptPerplexity bool
}

// DefaultConfig mirrors the parameters the book map was tuned with.
func DefaultConfig() Config {
	return Config{
		Components:        2,
		Perplexity:        5,
		Iterations:        1000,
		LearningRate:      200,
		EarlyExaggeration: 12,
		ExaggerationIters: exaggerationIters,
		Metric:            "euclidean",
		Init:              "pca",
		Seed:              42,
	}
}

func (c Config) validate() error {
	switch {
	case c.Components < 1:
		return errors.New("components must be positive")
	case c.Perplexity <= 0:
		return errors.New("perplexity must be positive")
	case c.Iterations < 1:
		return errors.New("iterations must be positive")
	case c.LearningRate <= 0:
		return errors.New("learning rate must be positive")
	case c.EarlyExaggeration < 1:
		return errors.New("early exaggeration must be at least 1")
	case c.ExaggerationIters < 0:
		return errors.New("exaggeration iterations must not be negative")
	}
	if c.Metric != "euclidean" && c.Metric != "cosine" {
		return fmt.Errorf("unknown metric %q", c.Metric)
	}
	if c.Init != "pca" && c.Init != "random" {
		return fmt.Errorf("unknown init %q", c.Init)
	}
	return nil
}

// TSNE is an exact O(N²) t-distributed stochastic neighbour embedding.
type TSNE struct {
	cfg Config
	log logger.Logger
}

// New validates cfg and returns a reducer.
func New(cfg Config, log logger.Logger) (*TSNE, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("reducer: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &TSNE{cfg: cfg, log: log}, nil
}

// EffectivePerplexity returns the perplexity used for a batch of n documents,
// or domain.ErrBatchTooSmall.
func (t *TSNE) EffectivePerplexity(n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%d documents, need at least 2: %w", n, domain.ErrBatchTooSmall)
	}
	p := t.cfg.Perplexity
	if p < float64(n) {
		return p, nil
	}
	if !t.cfg.AdaptPerplexity {
		return 0, fmt.Errorf("%d documents, perplexity %g must be smaller: %w", n, p, domain.ErrBatchTooSmall)
	}
	return math.Max(1, float64(n-1)/3), nil
}

// Reduce embeds data into 2D points, one per row.
func (t *TSNE) Reduce(ctx context.Context, data *mat.Dense) ([]domain.Point, error) {
	if t.cfg.Components != 2 {
		return nil, fmt.Errorf("reducer: points need 2 components, configured %d", t.cfg.Components)
	}
	y, err := t.Embed(ctx, data)
	if err != nil {
		return nil, err
	}
	n, _ := y.Dims()
	points := make([]domain.Point, n)
	for i := range points {
		points[i] = domain.Point{X: y.At(i, 0), Y: y.At(i, 1)}
	}
	return points, nil
}

// Embed returns an N x Components embedding of data.
func (t *TSNE) Embed(ctx context.Context, data *mat.Dense) (*mat.Dense, error) {
	n, d := data.Dims()
	perplexity, err := t.EffectivePerplexity(n)
	if err != nil {
		return nil, err
	}
	if perplexity != t.cfg.Perplexity {
		t.log.Warn("perplexity lowered for small batch", "documents", n, "configured", t.cfg.Perplexity, "used", perplexity)
	}
	t.log.Debug("t-SNE start", "documents", n, "dimensions", d, "perplexity", perplexity, "metric", t.cfg.Metric)

	dist := distances(data, t.cfg.Metric)
	p := jointProbabilities(dist, n, perplexity)
	y := t.initialEmbedding(data)
	if err := t.optimize(ctx, p, y, n); err != nil {
		return nil, err
	}
	return mat.NewDense(n, t.cfg.Components, y), nil
}

// distances returns the flattened N x N matrix of squared euclidean or cosine distances.
func distances(data *mat.Dense, metric string) []float64 {
	n, _ := data.Dims()
	x := data
	if metric == "cosine" {
		x = mat.DenseCopyOf(data)
		for i := 0; i < n; i++ {
			row := x.RawRowView(i)
			if norm := floats.Norm(row, 2); norm > 0 {
				floats.Scale(1/norm, row)
			}
		}
	}
	var gram mat.Dense
	gram.Mul(x, x.T())

	dist := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			var v float64
			if metric == "cosine" {
				v = 1 - gram.At(i, j)
			} else {
				v = gram.At(i, i) + gram.At(j, j) - 2*gram.At(i, j)
			}
			dist[i*n+j] = math.Max(v, 0)
		}
	}
	return dist
}

// jointProbabilities calibrates a Gaussian per row to the target perplexity and
// symmetrises the conditionals into a joint distribution summing to 1.
func jointProbabilities(dist []float64, n int, perplexity float64) []float64 {
	target := math.Log(perplexity)
	cond := make([]float64, n*n)
	shifted := make([]float64, n)
	for i := 0; i < n; i++ {
		row := dist[i*n : (i+1)*n]
		dmin := math.Inf(1)
		for j, v := range row {
			if j != i && v < dmin {
				dmin = v
			}
		}
		for j, v := range row {
			shifted[j] = v - dmin
		}

		beta, betaMin, betaMax := 1.0, math.Inf(-1), math.Inf(1)
		out := cond[i*n : (i+1)*n]
		for step := 0; step < perplexitySteps; step++ {
			sum, weighted := 0.0, 0.0
			for j := range out {
				if j == i {
					out[j] = 0
					continue
				}
				out[j] = math.Exp(-shifted[j] * beta)
				sum += out[j]
				weighted += shifted[j] * out[j]
			}
			entropy := math.Log(sum) + beta*weighted/sum
			floats.Scale(1/sum, out)

			diff := entropy - target
			if math.Abs(diff) <= perplexityTol {
				break
			}
			if diff > 0 {
				betaMin = beta
				if math.IsInf(betaMax, 1) {
					beta *= 2
				} else {
					beta = (beta + betaMax) / 2
				}
			} else {
				betaMax = beta
				if math.IsInf(betaMin, -1) {
					beta /= 2
				} else {
					beta = (beta + betaMin) / 2
				}
			}
		}
	}

	joint := make([]float64, n*n)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := cond[i*n+j] + cond[j*n+i]
			joint[i*n+j] = v
			total += v
		}
	}
	for i := range joint {
		joint[i] = math.Max(joint[i]/total, machineEpsilon)
	}
	return joint
}

func (t *TSNE) initialEmbedding(data *mat.Dense) []float64 {
	n, _ := data.Dims()
	k := t.cfg.Components
	if t.cfg.Init == "pca" {
		if y, ok := pcaInit(data, k); ok {
			return y
		}
		t.log.Debug("PCA init degenerate, using random init")
	}
	rng := rand.New(rand.NewPCG(t.cfg.Seed, t.cfg.Seed^0x5851f42d4c957f2d))
	y := make([]float64, n*k)
	for i := range y {
		y[i] = rng.NormFloat64() * initScale
	}
	return y
}

// pcaInit projects the centred data onto its top k principal axes and scales
// the result so the first axis has standard deviation 1e-4.
func pcaInit(data *mat.Dense, k int) ([]float64, bool) {
	n, d := data.Dims()
	if n < 2 || d < k || n < k {
		return nil, false
	}
	x := mat.DenseCopyOf(data)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)-mean)
		}
	}
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	_, vc := v.Dims()
	if vc < k {
		return nil, false
	}
	var proj mat.Dense
	proj.Mul(x, v.Slice(0, d, 0, k))

	first := mat.Col(nil, 0, &proj)
	std := stat.PopStdDev(first, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, false
	}
	proj.Scale(initScale/std, &proj)
	return mat.DenseCopyOf(&proj).RawMatrix().Data, true
}

func (t *TSNE) optimize(ctx context.Context, p, y []float64, n int) error {
	k := t.cfg.Components
	exag := t.cfg.EarlyExaggeration
	exagIters := t.cfg.ExaggerationIters
	floats.Scale(exag, p)
	momentum := initialMomentum
	if exagIters == 0 {
		floats.Scale(1/exag, p)
		momentum = finalMomentum
	}

	num := make([]float64, n*n)
	grad := make([]float64, n*k)
	update := make([]float64, n*k)
	gains := make([]float64, n*k)
	for i := range gains {
		gains[i] = 1
	}

	for it := 0; it < t.cfg.Iterations; it++ {
		if it > 0 && it == exagIters {
			floats.Scale(1/exag, p)
			momentum = finalMomentum
		}
		if it%progressInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		sumQ := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				sq := 0.0
				for c := 0; c < k; c++ {
					diff := y[i*k+c] - y[j*k+c]
					sq += diff * diff
				}
				v := 1 / (1 + sq)
				num[i*n+j], num[j*n+i] = v, v
				sumQ += 2 * v
			}
		}

		for i := range grad {
			grad[i] = 0
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := math.Max(num[i*n+j]/sumQ, machineEpsilon)
				mult := 4 * (p[i*n+j] - q) * num[i*n+j]
				for c := 0; c < k; c++ {
					grad[i*k+c] += mult * (y[i*k+c] - y[j*k+c])
				}
			}
		}

		for i := range y {
			if update[i]*grad[i] < 0 {
				gains[i] += 0.2
			} else {
				gains[i] *= 0.8
			}
			gains[i] = math.Max(gains[i], minGain)
			update[i] = momentum*update[i] - t.cfg.LearningRate*gains[i]*grad[i]
			y[i] += update[i]
		}
		center(y, n, k)

		if (it+1)%(progressInterval*2) == 0 {
			t.log.Debug("t-SNE progress", "iteration", it+1, "kl", klDivergence(p, num, sumQ, n))
		}
		if it >= exagIters && floats.Norm(grad, 2) < minGradNorm {
			t.log.Debug("t-SNE converged", "iteration", it+1)
			break
		}
	}
	return nil
}

func center(y []float64, n, k int) {
	for c := 0; c < k; c++ {
		mean := 0.0
		for i := 0; i < n; i++ {
			mean += y[i*k+c]
		}
		mean /= float64(n)
		for i := 0; i < n; i++ {
			y[i*k+c] -= mean
		}
	}
}

func klDivergence(p, num []float64, sumQ float64, n int) float64 {
	kl := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			q := math.Max(num[i*n+j]/sumQ, machineEpsilon)
			kl += p[i*n+j] * math.Log(math.Max(p[i*n+j], machineEpsilon)/q)
		}
	}
	return kl
}
