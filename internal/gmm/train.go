package gmm

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Training failures. Both mean the enrollment data cannot produce a usable
// model; the enrollment attempt must be aborted.
var (
	// ErrTooFewFrames is returned when the input has fewer rows than
	// mixture components, which would make the fit degenerate.
	ErrTooFewFrames = errors.New("gmm: fewer frames than mixture components")

	// ErrBadValue is returned when the input contains NaN or Inf values.
	ErrBadValue = errors.New("gmm: non-finite value in training data")
)

// varianceFloor prevents components from collapsing onto single frames.
const varianceFloor = 1e-6

// TrainConfig holds the training hyperparameters. Zero fields are replaced
// by the defaults from DefaultTrainConfig.
type TrainConfig struct {
	Components int     // Mixture component count K (default: 16)
	MaxIter    int     // EM iteration cap (default: 200)
	Tol        float64 // Mean log-likelihood convergence tolerance (default: 1e-3)
	Seed       int64   // PRNG seed for initialization (default: 42)
}

// DefaultTrainConfig returns the reference training configuration.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Components: 16,
		MaxIter:    200,
		Tol:        1e-3,
		Seed:       42,
	}
}

func (c TrainConfig) withDefaults() TrainConfig {
	def := DefaultTrainConfig()
	if c.Components <= 0 {
		c.Components = def.Components
	}
	if c.MaxIter <= 0 {
		c.MaxIter = def.MaxIter
	}
	if c.Tol <= 0 {
		c.Tol = def.Tol
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	return c
}

// Train fits a diagonal-covariance mixture to the pooled, normalized feature
// rows by expectation-maximization. Training is deterministic for a fixed
// seed: identical input yields bit-identical parameters.
func Train(features [][]float64, cfg TrainConfig) (*Model, error) {
	cfg = cfg.withDefaults()

	n := len(features)
	if n < cfg.Components {
		return nil, fmt.Errorf("%w: %d frames for %d components", ErrTooFewFrames, n, cfg.Components)
	}

	dim := len(features[0])
	for _, row := range features {
		if len(row) != dim {
			return nil, fmt.Errorf("gmm: inconsistent feature dimensions: %d vs %d", len(row), dim)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ErrBadValue
			}
		}
	}

	model := initialize(features, cfg)

	k := cfg.Components
	logResp := make([][]float64, n)
	for i := range logResp {
		logResp[i] = make([]float64, k)
	}

	prevLL := math.Inf(-1)
	for iter := 1; iter <= cfg.MaxIter; iter++ {
		// E step: log responsibilities and data log-likelihood.
		var totalLL float64
		for i, frame := range features {
			for c := 0; c < k; c++ {
				logResp[i][c] = math.Log(model.Weights[c]) + model.componentLogDensity(c, frame)
			}
			norm := floats.LogSumExp(logResp[i])
			totalLL += norm
			for c := 0; c < k; c++ {
				logResp[i][c] -= norm
			}
		}
		meanLL := totalLL / float64(n)

		// M step: weights, means, variances from soft assignments.
		for c := 0; c < k; c++ {
			var respSum float64
			mean := make([]float64, dim)
			for i, frame := range features {
				r := math.Exp(logResp[i][c])
				respSum += r
				for d := 0; d < dim; d++ {
					mean[d] += r * frame[d]
				}
			}
			if respSum < 1e-10 {
				// Dead component: keep its previous parameters.
				continue
			}
			for d := range mean {
				mean[d] /= respSum
			}

			variance := make([]float64, dim)
			for i, frame := range features {
				r := math.Exp(logResp[i][c])
				for d := 0; d < dim; d++ {
					diff := frame[d] - mean[d]
					variance[d] += r * diff * diff
				}
			}
			for d := range variance {
				variance[d] /= respSum
				if variance[d] < varianceFloor {
					variance[d] = varianceFloor
				}
			}

			model.Weights[c] = respSum / float64(n)
			model.Means[c] = mean
			model.Variances[c] = variance
		}

		model.Iterations = iter
		if math.Abs(meanLL-prevLL) < cfg.Tol {
			model.Converged = true
			log.Debug().
				Int("iterations", iter).
				Float64("mean_log_likelihood", meanLL).
				Msg("EM converged")
			break
		}
		prevLL = meanLL
	}

	if !model.Converged {
		log.Debug().
			Int("iterations", model.Iterations).
			Msg("EM stopped at iteration cap")
	}

	return model, nil
}

// initialize seeds the mixture deterministically: K distinct frames as
// means, the global per-dimension variance, uniform weights.
func initialize(features [][]float64, cfg TrainConfig) *Model {
	n := len(features)
	dim := len(features[0])
	k := cfg.Components

	globalMean := make([]float64, dim)
	for _, frame := range features {
		for d, v := range frame {
			globalMean[d] += v
		}
	}
	for d := range globalMean {
		globalMean[d] /= float64(n)
	}

	globalVar := make([]float64, dim)
	for _, frame := range features {
		for d, v := range frame {
			diff := v - globalMean[d]
			globalVar[d] += diff * diff
		}
	}
	for d := range globalVar {
		globalVar[d] /= float64(n)
		if globalVar[d] < varianceFloor {
			globalVar[d] = varianceFloor
		}
	}

	rnd := rand.New(rand.NewSource(cfg.Seed))
	picks := rnd.Perm(n)[:k]

	model := &Model{
		Weights:   make([]float64, k),
		Means:     make([][]float64, k),
		Variances: make([][]float64, k),
	}
	for c := 0; c < k; c++ {
		model.Weights[c] = 1.0 / float64(k)

		mean := make([]float64, dim)
		copy(mean, features[picks[c]])
		model.Means[c] = mean

		variance := make([]float64, dim)
		copy(variance, globalVar)
		model.Variances[c] = variance
	}
	return model
}
