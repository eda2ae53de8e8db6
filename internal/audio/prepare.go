package audio

// Prepare conditions a captured waveform for feature extraction: resample to
// the target analysis rate, then drop non-speech frames when a detector is
// supplied. A nil vad skips gating.
func Prepare(w Waveform, targetRate int, vad VAD) (Waveform, error) {
	resampled, err := Resample(w, targetRate)
	if err != nil {
		return Waveform{}, err
	}
	if vad == nil {
		return resampled, nil
	}
	return GateSpeech(resampled, vad), nil
}
