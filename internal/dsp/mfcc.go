// Package dsp turns a mono waveform into fixed-dimension acoustic feature
// vectors: 13 mel-frequency cepstral coefficients per analysis frame plus
// their first and second order deltas, 39 dimensions in total.
package dsp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrNoSignal is returned when the input waveform is empty, shorter than one
// analysis window, or contains non-finite samples. Callers must treat it as
// "no usable signal", not a crash.
var ErrNoSignal = errors.New("dsp: no usable signal")

// NumCepstra is the number of cepstral coefficients per frame.
const NumCepstra = 13

// FeatureDim is the dimensionality of one feature vector: cepstra plus first
// and second order deltas.
const FeatureDim = 3 * NumCepstra

// Config configures feature extraction. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	SampleRate  int     // Input sample rate in Hz (default: 16000)
	FrameLength int     // Analysis window in samples (default: 400 = 25ms @ 16kHz)
	FrameShift  int     // Hop between windows in samples (default: 160 = 10ms @ 16kHz)
	NumFilters  int     // Mel filterbank channels (default: 26)
	PreEmphasis float64 // Pre-emphasis coefficient (default: 0.97)
	EnergyFloor float64 // Floor applied before log (default: 1e-10)
	DeltaWidth  int     // Regression window for deltas (default: 2)
}

// DefaultConfig returns the reference configuration for 16kHz audio.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		FrameLength: 400,
		FrameShift:  160,
		NumFilters:  26,
		PreEmphasis: 0.97,
		EnergyFloor: 1e-10,
		DeltaWidth:  2,
	}
}

// Extractor computes MFCC+delta features. It precomputes the window, the mel
// filterbank and the DCT basis, and is safe to reuse across utterances.
// Extraction is a pure function of the input samples.
type Extractor struct {
	cfg     Config
	fftSize int
	halfFFT int

	fft        *fourier.FFT
	window     []float64
	filterbank [][]float64
	dct        [][]float64
}

// NewExtractor creates an Extractor for the given configuration.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("dsp: invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.FrameLength <= 0 || cfg.FrameShift <= 0 || cfg.FrameShift > cfg.FrameLength {
		return nil, fmt.Errorf("dsp: invalid framing %d/%d", cfg.FrameLength, cfg.FrameShift)
	}
	if cfg.NumFilters < NumCepstra {
		return nil, fmt.Errorf("dsp: need at least %d mel filters, got %d", NumCepstra, cfg.NumFilters)
	}
	if cfg.EnergyFloor <= 0 {
		cfg.EnergyFloor = DefaultConfig().EnergyFloor
	}
	if cfg.DeltaWidth <= 0 {
		cfg.DeltaWidth = DefaultConfig().DeltaWidth
	}

	fftSize := nextPow2(cfg.FrameLength)
	halfFFT := fftSize/2 + 1

	return &Extractor{
		cfg:        cfg,
		fftSize:    fftSize,
		halfFFT:    halfFFT,
		fft:        fourier.NewFFT(fftSize),
		window:     hammingWindow(cfg.FrameLength),
		filterbank: melFilterbank(cfg.NumFilters, fftSize, cfg.SampleRate),
		dct:        dctBasis(NumCepstra, cfg.NumFilters),
	}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract computes one FeatureDim-dimensional feature vector per analysis
// frame. The input must be mono at the configured sample rate.
func (e *Extractor) Extract(samples []float64) ([][]float64, error) {
	if len(samples) < e.cfg.FrameLength {
		return nil, fmt.Errorf("%w: %d samples, need at least %d", ErrNoSignal, len(samples), e.cfg.FrameLength)
	}
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: non-finite sample", ErrNoSignal)
		}
	}

	emphasized := preEmphasize(samples, e.cfg.PreEmphasis)

	numFrames := (len(emphasized)-e.cfg.FrameLength)/e.cfg.FrameShift + 1
	cepstra := make([][]float64, numFrames)

	buf := make([]float64, e.fftSize)
	melEnergies := make([]float64, e.cfg.NumFilters)

	for f := 0; f < numFrames; f++ {
		offset := f * e.cfg.FrameShift

		for i := range buf {
			buf[i] = 0
		}
		for i := 0; i < e.cfg.FrameLength; i++ {
			buf[i] = emphasized[offset+i] * e.window[i]
		}

		spectrum := e.fft.Coefficients(nil, buf)

		// Log mel energies from the power spectrum.
		for m := 0; m < e.cfg.NumFilters; m++ {
			var energy float64
			for k, w := range e.filterbank[m] {
				if w == 0 {
					continue
				}
				re := real(spectrum[k])
				im := imag(spectrum[k])
				energy += w * (re*re + im*im)
			}
			if energy < e.cfg.EnergyFloor {
				energy = e.cfg.EnergyFloor
			}
			melEnergies[m] = math.Log(energy)
		}

		// DCT-II to decorrelate.
		frame := make([]float64, NumCepstra)
		for k := 0; k < NumCepstra; k++ {
			var sum float64
			for m := 0; m < e.cfg.NumFilters; m++ {
				sum += e.dct[k][m] * melEnergies[m]
			}
			frame[k] = sum
		}
		cepstra[f] = frame
	}

	delta := Deltas(cepstra, e.cfg.DeltaWidth)
	deltaDelta := Deltas(delta, e.cfg.DeltaWidth)

	features := make([][]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		v := make([]float64, 0, FeatureDim)
		v = append(v, cepstra[f]...)
		v = append(v, delta[f]...)
		v = append(v, deltaDelta[f]...)
		features[f] = v
	}

	return features, nil
}

func preEmphasize(samples []float64, coeff float64) []float64 {
	out := make([]float64, len(samples))
	if coeff <= 0 {
		copy(out, samples)
		return out
	}
	out[0] = samples[0] * (1 - coeff)
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - coeff*samples[i-1]
	}
	return out
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank computes triangular mel filter weights over the positive
// half of the spectrum. Returns [numFilters][fftSize/2+1] weights.
func melFilterbank(numFilters, fftSize, sampleRate int) [][]float64 {
	halfFFT := fftSize/2 + 1

	melLow := hzToMel(0)
	melHigh := hzToMel(float64(sampleRate) / 2)

	melPoints := make([]float64, numFilters+2)
	for i := range melPoints {
		melPoints[i] = melLow + float64(i)*(melHigh-melLow)/float64(numFilters+1)
	}

	binIndices := make([]int, numFilters+2)
	for i := range melPoints {
		hz := melToHz(melPoints[i])
		binIndices[i] = int(math.Floor(hz * float64(fftSize) / float64(sampleRate)))
		if binIndices[i] >= halfFFT {
			binIndices[i] = halfFFT - 1
		}
	}

	fb := make([][]float64, numFilters)
	for m := 0; m < numFilters; m++ {
		fb[m] = make([]float64, halfFFT)
		left := binIndices[m]
		center := binIndices[m+1]
		right := binIndices[m+2]

		for k := left; k <= center; k++ {
			if center > left {
				fb[m][k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k <= right; k++ {
			if right > center {
				fb[m][k] = float64(right-k) / float64(right-center)
			}
		}
	}
	return fb
}

// dctBasis computes an orthonormal DCT-II basis [numCepstra][numFilters].
func dctBasis(numCepstra, numFilters int) [][]float64 {
	basis := make([][]float64, numCepstra)
	scale := math.Sqrt(2.0 / float64(numFilters))
	for k := 0; k < numCepstra; k++ {
		basis[k] = make([]float64, numFilters)
		for m := 0; m < numFilters; m++ {
			basis[k][m] = scale * math.Cos(math.Pi*float64(k)*(float64(m)+0.5)/float64(numFilters))
		}
		if k == 0 {
			for m := range basis[k] {
				basis[k][m] /= math.Sqrt2
			}
		}
	}
	return basis
}
