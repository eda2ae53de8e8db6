package gmm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleCluster draws n points from a diagonal Gaussian centered at mean.
func sampleCluster(rnd *rand.Rand, n, dim int, mean, stddev float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, dim)
		for d := range row {
			row[d] = mean + stddev*rnd.NormFloat64()
		}
		out[i] = row
	}
	return out
}

func TestTrainDeterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	data := sampleCluster(rnd, 200, 4, 0, 1)

	cfg := TrainConfig{Components: 4, MaxIter: 50, Tol: 1e-4, Seed: 42}

	first, err := Train(data, cfg)
	require.NoError(t, err)
	second, err := Train(data, cfg)
	require.NoError(t, err)

	// Bit-identical parameters, not just close.
	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Means, second.Means)
	assert.Equal(t, first.Variances, second.Variances)
	assert.Equal(t, first.Iterations, second.Iterations)
}

func TestTrainTooFewFrames(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	data := sampleCluster(rnd, 10, 4, 0, 1)

	_, err := Train(data, TrainConfig{Components: 16})
	assert.ErrorIs(t, err, ErrTooFewFrames)
}

func TestTrainRejectsNonFinite(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	data := sampleCluster(rnd, 50, 4, 0, 1)
	data[20][2] = math.Inf(1)

	_, err := Train(data, TrainConfig{Components: 4})
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestTrainRejectsRaggedInput(t *testing.T) {
	data := [][]float64{{1, 2}, {1, 2, 3}, {1, 2}, {1, 2}}
	_, err := Train(data, TrainConfig{Components: 2})
	assert.Error(t, err)
}

func TestTrainedModelShape(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	data := sampleCluster(rnd, 300, 6, 1.5, 0.8)

	model, err := Train(data, TrainConfig{Components: 8, MaxIter: 100})
	require.NoError(t, err)

	assert.Equal(t, 8, model.Components())
	assert.Equal(t, 6, model.Dim())

	var weightSum float64
	for _, w := range model.Weights {
		assert.Greater(t, w, 0.0)
		weightSum += w
	}
	assert.InDelta(t, 1.0, weightSum, 1e-9)

	for _, variance := range model.Variances {
		for _, v := range variance {
			assert.GreaterOrEqual(t, v, varianceFloor)
		}
	}
}

func TestScoreSeparatesDistributions(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))

	train := sampleCluster(rnd, 400, 5, 0, 1)
	model, err := Train(train, TrainConfig{Components: 4, MaxIter: 100})
	require.NoError(t, err)

	// Held-out data from the same distribution vs. a markedly different one.
	same := sampleCluster(rnd, 100, 5, 0, 1)
	other := sampleCluster(rnd, 100, 5, 8, 1)

	sameScore := model.Score(same)
	otherScore := model.Score(other)
	assert.Greater(t, sameScore, otherScore)
}

func TestScoreIsLengthInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	train := sampleCluster(rnd, 300, 3, 0, 1)
	model, err := Train(train, TrainConfig{Components: 4})
	require.NoError(t, err)

	short := sampleCluster(rnd, 20, 3, 0, 1)
	long := append(append([][]float64{}, short...), short...)

	// Duplicating the frames must not change a mean-based score.
	assert.InDelta(t, model.Score(short), model.Score(long), 1e-9)
}

func TestScoreEmptyFeatures(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	train := sampleCluster(rnd, 100, 3, 0, 1)
	model, err := Train(train, TrainConfig{Components: 2})
	require.NoError(t, err)

	assert.True(t, math.IsInf(model.Score(nil), -1))
}
