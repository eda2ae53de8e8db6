package dsp

// Deltas computes frame-to-frame regression deltas over a feature sequence
// using the standard HTK formula with the given half-window width. Frames at
// the edges are clamped to the sequence boundary.
func Deltas(frames [][]float64, width int) [][]float64 {
	if len(frames) == 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}

	dim := len(frames[0])
	norm := 0.0
	for n := 1; n <= width; n++ {
		norm += float64(n * n)
	}
	norm *= 2

	out := make([][]float64, len(frames))
	for t := range frames {
		d := make([]float64, dim)
		for n := 1; n <= width; n++ {
			ahead := frames[clampIndex(t+n, len(frames))]
			behind := frames[clampIndex(t-n, len(frames))]
			for i := 0; i < dim; i++ {
				d[i] += float64(n) * (ahead[i] - behind[i])
			}
		}
		for i := range d {
			d[i] /= norm
		}
		out[t] = d
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
