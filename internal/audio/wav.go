package audio

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog/log"
)

// LoadWAV reads a PCM WAV file and returns a normalized mono waveform at
// the file's native sample rate. Multi-channel input is downmixed by
// averaging.
func LoadWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("failed to decode wav file %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Waveform{}, fmt.Errorf("wav file %s contains no audio data", path)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	w := Waveform{Samples: samples, SampleRate: buf.Format.SampleRate}

	log.Debug().
		Str("file", path).
		Int("sample_rate", w.SampleRate).
		Int("channels", channels).
		Dur("duration", w.Duration()).
		Msg("Loaded WAV file")

	return w, nil
}

// FileSource is a Source backed by a fixed list of WAV files, handed out in
// order. It stands in for a microphone when utterances were captured ahead
// of time.
type FileSource struct {
	paths []string
	next  int
	mutex sync.Mutex
}

// NewFileSource creates a Source that yields one waveform per path.
func NewFileSource(paths []string) *FileSource {
	return &FileSource{paths: paths}
}

// Record returns the next file's waveform. The duration argument is ignored;
// the file's own length applies.
func (s *FileSource) Record(ctx context.Context, _ time.Duration) (Waveform, error) {
	if err := ctx.Err(); err != nil {
		return Waveform{}, err
	}

	s.mutex.Lock()
	if s.next >= len(s.paths) {
		s.mutex.Unlock()
		return Waveform{}, fmt.Errorf("no more recordings: %d files exhausted", len(s.paths))
	}
	path := s.paths[s.next]
	s.next++
	s.mutex.Unlock()

	return LoadWAV(path)
}
