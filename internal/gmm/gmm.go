// Package gmm implements diagonal-covariance Gaussian mixture models for
// speaker density estimation: training by expectation-maximization and
// log-likelihood scoring of feature sequences.
//
// Diagonal covariance keeps the parameter count tractable for
// high-dimensional features fit from a few enrollment utterances; full
// covariance would be over-parameterized for that amount of data.
package gmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const log2Pi = 1.8378770664093453

// Model is a mixture of diagonal-covariance Gaussian components. Once
// trained it is immutable; scoring never mutates it.
type Model struct {
	Weights   []float64   `msgpack:"weights"`
	Means     [][]float64 `msgpack:"means"`
	Variances [][]float64 `msgpack:"variances"`

	// Training outcome, carried for diagnostics.
	Converged  bool `msgpack:"converged"`
	Iterations int  `msgpack:"iterations"`
}

// Components returns the number of mixture components.
func (m *Model) Components() int {
	return len(m.Weights)
}

// Dim returns the feature dimensionality the model was trained on.
func (m *Model) Dim() int {
	if len(m.Means) == 0 {
		return 0
	}
	return len(m.Means[0])
}

// LogProb returns the log-density of a single feature vector under the
// mixture.
func (m *Model) LogProb(x []float64) float64 {
	logs := make([]float64, len(m.Weights))
	for k := range m.Weights {
		logs[k] = math.Log(m.Weights[k]) + m.componentLogDensity(k, x)
	}
	return floats.LogSumExp(logs)
}

// Score returns the mean per-frame log-likelihood of a feature sequence.
// Averaging over frames, rather than summing, makes the score roughly
// invariant to utterance length.
func (m *Model) Score(features [][]float64) float64 {
	if len(features) == 0 {
		return math.Inf(-1)
	}
	var total float64
	for _, frame := range features {
		total += m.LogProb(frame)
	}
	return total / float64(len(features))
}

// componentLogDensity is the log-density of x under one diagonal Gaussian.
func (m *Model) componentLogDensity(k int, x []float64) float64 {
	mean := m.Means[k]
	variance := m.Variances[k]

	sum := float64(len(x)) * log2Pi
	for i, xi := range x {
		diff := xi - mean[i]
		sum += math.Log(variance[i]) + diff*diff/variance[i]
	}
	return -0.5 * sum
}
