// Package enroll builds speaker profiles from enrollment utterances: it
// runs the shared audio front end over each sample, pools the features,
// fits normalization statistics, trains the mixture model and persists the
// finished profile. Any failure aborts the attempt with no partial write.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/user/voicegate/internal/audio"
	"github.com/user/voicegate/internal/dsp"
	"github.com/user/voicegate/internal/gmm"
	"github.com/user/voicegate/internal/profile"
)

// DefaultMinSamples is the reference enrollment sample count.
const DefaultMinSamples = 3

var (
	// ErrEmptyIdentity is returned for a blank identity string.
	ErrEmptyIdentity = errors.New("enroll: empty identity")

	// ErrTooFewSamples is returned when fewer utterances than the
	// configured minimum are offered.
	ErrTooFewSamples = errors.New("enroll: too few enrollment samples")
)

// Enroller turns enrollment utterances into persisted speaker profiles.
type Enroller struct {
	profiles   *profile.Store
	extractor  *dsp.Extractor
	vad        audio.VAD // optional speech gating; nil disables
	trainCfg   gmm.TrainConfig
	minSamples int
}

// Config holds the enrollment policy knobs.
type Config struct {
	MinSamples int             // Minimum utterances per enrollment (default: 3)
	Train      gmm.TrainConfig // Zero fields use the training defaults
}

// NewEnroller creates an Enroller. A nil vad disables speech gating.
func NewEnroller(profiles *profile.Store, extractor *dsp.Extractor, vad audio.VAD, cfg Config) *Enroller {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultMinSamples
	}
	return &Enroller{
		profiles:   profiles,
		extractor:  extractor,
		vad:        vad,
		trainCfg:   cfg.Train,
		minSamples: cfg.MinSamples,
	}
}

// Enroll runs the full pipeline over raw utterances and saves the resulting
// profile. Re-enrolling an identity replaces its profile wholesale.
func (e *Enroller) Enroll(ctx context.Context, identity string, utterances []audio.Waveform) (*profile.Profile, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	if len(utterances) < e.minSamples {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewSamples, len(utterances), e.minSamples)
	}

	targetRate := e.extractor.Config().SampleRate
	featureSets := make([][][]float64, 0, len(utterances))
	for i, w := range utterances {
		prepared, err := audio.Prepare(w, targetRate, e.vad)
		if err != nil {
			return nil, fmt.Errorf("enroll %s: sample %d: %w", identity, i+1, err)
		}
		features, err := e.extractor.Extract(prepared.Samples)
		if err != nil {
			return nil, fmt.Errorf("enroll %s: sample %d: %w", identity, i+1, err)
		}
		featureSets = append(featureSets, features)
	}

	return e.EnrollFeatures(ctx, identity, featureSets)
}

// EnrollFeatures enrolls from already-extracted per-utterance feature
// matrices. All frames are pooled into one training set; the normalization
// statistics are fit on the pool and the model is trained on the normalized
// frames.
func (e *Enroller) EnrollFeatures(ctx context.Context, identity string, featureSets [][][]float64) (*profile.Profile, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	if len(featureSets) < e.minSamples {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewSamples, len(featureSets), e.minSamples)
	}

	var pooled [][]float64
	for _, features := range featureSets {
		pooled = append(pooled, features...)
	}

	stats, err := profile.FitStats(pooled)
	if err != nil {
		return nil, fmt.Errorf("enroll %s: %w", identity, err)
	}

	model, err := gmm.Train(stats.Apply(pooled), e.trainCfg)
	if err != nil {
		return nil, fmt.Errorf("enroll %s: %w", identity, err)
	}

	p := &profile.Profile{
		Identity:   identity,
		Stats:      stats,
		Model:      model,
		EnrolledAt: time.Now().UTC(),
	}

	if err := e.profiles.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("enroll %s: %w", identity, err)
	}

	log.Info().
		Str("identity", identity).
		Int("samples", len(featureSets)).
		Int("frames", len(pooled)).
		Int("components", model.Components()).
		Bool("converged", model.Converged).
		Msg("Identity enrolled")

	return p, nil
}
