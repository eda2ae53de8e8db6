// Package verify scores utterances against enrolled speaker profiles and
// runs the multi-checkpoint verification protocol used during a monitored
// session.
package verify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/user/voicegate/internal/audio"
	"github.com/user/voicegate/internal/dsp"
	"github.com/user/voicegate/internal/profile"
)

// DefaultThreshold is the reference decision threshold on the mean per-frame
// log-likelihood. It is an empirically chosen operating point; callers may
// override it per verifier or per call.
const DefaultThreshold = -50.0

// Outcome is the result of scoring one utterance against one identity.
// A rejected outcome (Accepted=false) is a reported business result, not an
// error.
type Outcome struct {
	ID        uuid.UUID
	Identity  string
	Score     float64
	Threshold float64
	Accepted  bool
	Timestamp time.Time
}

// Verifier runs the extraction → normalization → scoring → decision pipeline
// for single utterances. It never mutates stored profiles.
type Verifier struct {
	profiles  *profile.Store
	extractor *dsp.Extractor
	vad       audio.VAD // optional speech gating; nil disables
	threshold float64
}

// NewVerifier creates a Verifier with the given default threshold. A nil vad
// disables speech gating on the waveform path.
func NewVerifier(profiles *profile.Store, extractor *dsp.Extractor, vad audio.VAD, threshold float64) *Verifier {
	return &Verifier{
		profiles:  profiles,
		extractor: extractor,
		vad:       vad,
		threshold: threshold,
	}
}

// Threshold returns the verifier's default decision threshold.
func (v *Verifier) Threshold() float64 {
	return v.threshold
}

// Verify scores a raw waveform: resample, gate, extract, then score against
// the identity's profile with the default threshold.
func (v *Verifier) Verify(ctx context.Context, identity string, w audio.Waveform) (*Outcome, error) {
	prepared, err := audio.Prepare(w, v.extractor.Config().SampleRate, v.vad)
	if err != nil {
		return nil, err
	}

	features, err := v.extractor.Extract(prepared.Samples)
	if err != nil {
		return nil, err
	}

	return v.VerifyFeatures(ctx, identity, features)
}

// VerifyFeatures scores an already-extracted feature matrix with the default
// threshold.
func (v *Verifier) VerifyFeatures(ctx context.Context, identity string, features [][]float64) (*Outcome, error) {
	return v.VerifyFeaturesWithThreshold(ctx, identity, features, v.threshold)
}

// VerifyFeaturesWithThreshold scores a feature matrix against an identity's
// profile with an explicit threshold. Returns profile.ErrNoProfile when the
// identity has not enrolled.
//
// The profile's own normalization stats are always the ones applied; the
// mean per-frame log-likelihood under its model becomes the score, and the
// decision is score > threshold.
func (v *Verifier) VerifyFeaturesWithThreshold(ctx context.Context, identity string, features [][]float64, threshold float64) (*Outcome, error) {
	p, err := v.profiles.Load(ctx, identity)
	if err != nil {
		return nil, err
	}

	normalized := p.Stats.Apply(features)
	score := p.Model.Score(normalized)

	outcome := &Outcome{
		ID:        uuid.New(),
		Identity:  identity,
		Score:     score,
		Threshold: threshold,
		Accepted:  score > threshold,
		Timestamp: time.Now(),
	}

	log.Info().
		Str("identity", identity).
		Float64("score", score).
		Float64("threshold", threshold).
		Bool("accepted", outcome.Accepted).
		Int("frames", len(features)).
		Msg("Verification outcome")

	return outcome, nil
}
