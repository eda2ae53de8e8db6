package audio

import (
	"fmt"

	"github.com/rs/zerolog/log"
	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts a mono waveform to the target sample rate. Returns the
// input unchanged when the rates already match.
func Resample(w Waveform, targetRate int) (Waveform, error) {
	if targetRate <= 0 {
		return Waveform{}, fmt.Errorf("invalid target sample rate %d", targetRate)
	}
	if w.SampleRate == targetRate {
		return w, nil
	}
	if w.SampleRate <= 0 {
		return Waveform{}, fmt.Errorf("invalid source sample rate %d", w.SampleRate)
	}

	config := &resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	resampler, err := resampling.New(config)
	if err != nil {
		return Waveform{}, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := resampler.Process(w.Samples)
	if err != nil {
		return Waveform{}, fmt.Errorf("resample error: %w", err)
	}

	log.Debug().
		Int("from_rate", w.SampleRate).
		Int("to_rate", targetRate).
		Int("in_samples", len(w.Samples)).
		Int("out_samples", len(out)).
		Msg("Resampled waveform")

	return Waveform{Samples: out, SampleRate: targetRate}, nil
}
