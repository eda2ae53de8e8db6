package profile

import (
	"errors"
	"math"
)

// Stats holds per-dimension normalization statistics learned once at
// enrollment. They are immutable afterward and must be applied to every
// feature matrix scored against the same profile's model.
type Stats struct {
	Mean []float64 `msgpack:"mean"`
	Std  []float64 `msgpack:"std"`
}

// FitStats computes per-dimension mean and standard deviation across all
// rows of the pooled enrollment feature matrix.
func FitStats(features [][]float64) (*Stats, error) {
	if len(features) == 0 {
		return nil, errors.New("profile: cannot fit stats on empty features")
	}

	dim := len(features[0])
	n := float64(len(features))

	mean := make([]float64, dim)
	for _, row := range features {
		for d, v := range row {
			mean[d] += v
		}
	}
	for d := range mean {
		mean[d] /= n
	}

	std := make([]float64, dim)
	for _, row := range features {
		for d, v := range row {
			diff := v - mean[d]
			std[d] += diff * diff
		}
	}
	for d := range std {
		std[d] = math.Sqrt(std[d] / n)
	}

	return &Stats{Mean: mean, Std: std}, nil
}

// Dim returns the feature dimensionality the stats were fit on.
func (s *Stats) Dim() int {
	return len(s.Mean)
}

// Apply returns a normalized copy of the feature matrix: per dimension,
// subtract the mean and divide by the standard deviation. Dimensions with
// zero variance are treated as already centered and produce zero.
func (s *Stats) Apply(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		norm := make([]float64, len(row))
		for d, v := range row {
			if s.Std[d] == 0 {
				norm[d] = 0
				continue
			}
			norm[d] = (v - s.Mean[d]) / s.Std[d]
		}
		out[i] = norm
	}
	return out
}
