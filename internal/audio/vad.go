package audio

import (
	"math"
	"time"

	"github.com/maxhawkins/go-webrtcvad"
	"github.com/rs/zerolog/log"
)

// gateFrame is the VAD analysis frame length. WebRTC VAD accepts 10, 20 or
// 30 ms frames.
const gateFrame = 20 * time.Millisecond

type WebRTCVAD struct {
	vad          *webrtcvad.VAD
	rmsThreshold float64
}

func NewWebRTCVAD() (*WebRTCVAD, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}

	// Aggressiveness 0-3; 2 keeps quiet speech while dropping room noise.
	vad.SetMode(2)

	return &WebRTCVAD{
		vad:          vad,
		rmsThreshold: 500.0, // Fallback RMS threshold
	}, nil
}

func (v *WebRTCVAD) IsSpeech(pcm []int16, sampleRate int) bool {
	bytes := int16SliceToBytes(pcm)

	// WebRTC VAD expects specific frame sizes.
	if len(bytes) < 320 { // 10ms at 16kHz = 320 bytes
		return v.rmsIsSpeech(pcm)
	}

	isSpeech, err := v.vad.Process(sampleRate, bytes)
	if err != nil {
		return v.rmsIsSpeech(pcm)
	}
	return isSpeech
}

func (v *WebRTCVAD) rmsIsSpeech(pcm []int16) bool {
	if len(pcm) == 0 {
		return false
	}

	var sum float64
	for _, sample := range pcm {
		sum += float64(sample) * float64(sample)
	}

	rms := math.Sqrt(sum / float64(len(pcm)))
	return rms > v.rmsThreshold
}

func (v *WebRTCVAD) Close() error {
	// webrtcvad has no Close; its C state is freed by a runtime finalizer.
	return nil
}

// RMSVAD is a pure-Go fallback detector based on frame energy. Used when
// the WebRTC detector is unavailable and in tests.
type RMSVAD struct {
	Threshold float64 // RMS threshold in int16 units (default 500)
}

func (v *RMSVAD) IsSpeech(pcm []int16, _ int) bool {
	if len(pcm) == 0 {
		return false
	}
	threshold := v.Threshold
	if threshold == 0 {
		threshold = 500.0
	}
	var sum float64
	for _, sample := range pcm {
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum/float64(len(pcm))) > threshold
}

func (v *RMSVAD) Close() error {
	return nil
}

// GateSpeech removes non-speech frames from a waveform so that silence
// never contributes to enrollment or verification features. May return an
// empty waveform when the input carries no speech at all.
func GateSpeech(w Waveform, vad VAD) Waveform {
	frameSamples := int(float64(w.SampleRate) * gateFrame.Seconds())
	if frameSamples <= 0 || len(w.Samples) < frameSamples {
		return w
	}

	pcm := w.PCM16()
	kept := make([]float64, 0, len(w.Samples))
	dropped := 0

	for start := 0; start+frameSamples <= len(pcm); start += frameSamples {
		if vad.IsSpeech(pcm[start:start+frameSamples], w.SampleRate) {
			kept = append(kept, w.Samples[start:start+frameSamples]...)
		} else {
			dropped++
		}
	}

	if dropped > 0 {
		log.Debug().
			Int("dropped_frames", dropped).
			Int("kept_samples", len(kept)).
			Msg("VAD gated non-speech frames")
	}

	return Waveform{Samples: kept, SampleRate: w.SampleRate}
}

func int16SliceToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, sample := range samples {
		bytes[i*2] = byte(sample)
		bytes[i*2+1] = byte(sample >> 8)
	}
	return bytes
}
