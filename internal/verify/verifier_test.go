package verify

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/voicegate/internal/gmm"
	"github.com/user/voicegate/internal/kv"
	"github.com/user/voicegate/internal/profile"
)

func clusterFrames(rnd *rand.Rand, n, dim int, mean, stddev float64) [][]float64 {
	frames := make([][]float64, n)
	for i := range frames {
		row := make([]float64, dim)
		for d := range row {
			row[d] = mean + stddev*rnd.NormFloat64()
		}
		frames[i] = row
	}
	return frames
}

// enrollSynthetic trains a small profile from synthetic frames and saves it.
// Returns the store-backed verifier material plus the training frames.
func enrollSynthetic(t *testing.T, identity string) (*profile.Store, [][]float64) {
	t.Helper()

	rnd := rand.New(rand.NewSource(7))
	features := clusterFrames(rnd, 300, 4, 0.0, 1.0)

	stats, err := profile.FitStats(features)
	require.NoError(t, err)

	model, err := gmm.Train(stats.Apply(features), gmm.TrainConfig{Components: 2, Seed: 42})
	require.NoError(t, err)

	store := profile.NewStore(kv.NewMemory())
	require.NoError(t, store.Save(context.Background(), &profile.Profile{
		Identity: identity,
		Stats:    stats,
		Model:    model,
	}))

	return store, features
}

func TestVerifyFeaturesNoProfile(t *testing.T) {
	store := profile.NewStore(kv.NewMemory())
	v := NewVerifier(store, nil, nil, DefaultThreshold)

	_, err := v.VerifyFeatures(context.Background(), "ghost", [][]float64{{0, 0, 0, 0}})
	assert.ErrorIs(t, err, profile.ErrNoProfile)
}

func TestVerifyFeaturesSelfSimilarity(t *testing.T) {
	store, features := enrollSynthetic(t, "alice")
	v := NewVerifier(store, nil, nil, DefaultThreshold)

	outcome, err := v.VerifyFeatures(context.Background(), "alice", features)
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	assert.Equal(t, "alice", outcome.Identity)
	assert.Equal(t, DefaultThreshold, outcome.Threshold)
	assert.Greater(t, outcome.Score, DefaultThreshold)
}

func TestVerifyFeaturesImpostorScoresLower(t *testing.T) {
	store, features := enrollSynthetic(t, "alice")
	v := NewVerifier(store, nil, nil, DefaultThreshold)
	ctx := context.Background()

	genuine, err := v.VerifyFeatures(ctx, "alice", features)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(99))
	impostor := clusterFrames(rnd, 300, 4, 8.0, 1.0)

	other, err := v.VerifyFeatures(ctx, "alice", impostor)
	require.NoError(t, err)

	assert.Less(t, other.Score, genuine.Score)
}

func TestVerifyFeaturesThresholdDecision(t *testing.T) {
	store, features := enrollSynthetic(t, "alice")
	v := NewVerifier(store, nil, nil, DefaultThreshold)
	ctx := context.Background()

	outcome, err := v.VerifyFeatures(ctx, "alice", features)
	require.NoError(t, err)

	// Same features, threshold just below the score: accept.
	below, err := v.VerifyFeaturesWithThreshold(ctx, "alice", features, outcome.Score-1)
	require.NoError(t, err)
	assert.True(t, below.Accepted)

	// Threshold at the score: score > threshold is false, reject.
	at, err := v.VerifyFeaturesWithThreshold(ctx, "alice", features, outcome.Score)
	require.NoError(t, err)
	assert.False(t, at.Accepted)

	// Threshold above the score: reject.
	above, err := v.VerifyFeaturesWithThreshold(ctx, "alice", features, outcome.Score+1)
	require.NoError(t, err)
	assert.False(t, above.Accepted)
}

func TestVerifyFeaturesDeterministicScore(t *testing.T) {
	store, features := enrollSynthetic(t, "alice")
	v := NewVerifier(store, nil, nil, DefaultThreshold)
	ctx := context.Background()

	first, err := v.VerifyFeatures(ctx, "alice", features)
	require.NoError(t, err)
	second, err := v.VerifyFeatures(ctx, "alice", features)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.NotEqual(t, first.ID, second.ID)
}
