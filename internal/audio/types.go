// Package audio provides the waveform model and audio ingress for the
// verification pipeline: WAV loading, resampling to the reference rate, and
// voice-activity gating.
package audio

import (
	"context"
	"time"
)

// ReferenceRate is the fixed analysis sample rate in Hz. All waveforms are
// resampled to this rate before feature extraction.
const ReferenceRate = 16000

// Waveform is a mono audio signal with its sample rate. Samples are
// normalized to [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in wall-clock time.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Empty reports whether the waveform carries no samples.
func (w Waveform) Empty() bool {
	return len(w.Samples) == 0
}

// PCM16 converts the waveform to signed 16-bit samples, clipping
// out-of-range values.
func (w Waveform) PCM16() []int16 {
	pcm := make([]int16, len(w.Samples))
	for i, s := range w.Samples {
		v := s * 32767.0
		switch {
		case v > 32767:
			pcm[i] = 32767
		case v < -32768:
			pcm[i] = -32768
		default:
			pcm[i] = int16(v)
		}
	}
	return pcm
}

// FromPCM16 builds a normalized waveform from signed 16-bit samples.
func FromPCM16(pcm []int16, sampleRate int) Waveform {
	samples := make([]float64, len(pcm))
	for i, s := range pcm {
		samples[i] = float64(s) / 32768.0
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

// Source supplies captured utterances. Capture blocks on an external device
// or file and must honor context cancellation for caller-imposed timeouts.
type Source interface {
	Record(ctx context.Context, duration time.Duration) (Waveform, error)
}

// VAD is a voice activity detector over short PCM frames.
type VAD interface {
	IsSpeech(pcm []int16, sampleRate int) bool
	Close() error
}
