package audio

import "math"

// polyphaseFilterTaps is the sinc+Hamming low-pass filter length used when
// downsampling, matched to the teacher's anti-aliasing filter design.
const polyphaseFilterTaps = 64

// resampler performs sample rate conversion on S16 frames. Most capture
// devices honor the requested 16kHz rate directly (especially through
// ALSA's "plughw" plugin), but some hardware only exposes 44.1kHz/48kHz;
// this keeps MalgoSource producing exactly FrameSamples-sized 16kHz
// frames regardless of what the device reports.
//
// Downsampling — the only case MalgoSource actually exercises, since
// capture devices run at or above 16kHz — runs through a 64-tap sinc
// filter windowed with a Hamming window to prevent aliasing before
// decimation. Upsampling falls back to linear interpolation, which
// introduces no aliasing of its own and is never exercised by capture.
type resampler struct {
	ratio float64

	filter  []float32 // low-pass coefficients, set only when ratio < 1
	history []float32 // filterLen samples of carry-over between calls

	lastSample int16 // carried for the upsampling path
}

func newResampler(fromRate, toRate int) *resampler {
	ratio := float64(toRate) / float64(fromRate)
	r := &resampler{ratio: ratio}
	if ratio < 1.0 {
		r.filter = lowPassFilter(ratio, polyphaseFilterTaps)
		r.history = make([]float32, polyphaseFilterTaps)
	}
	return r
}

// lowPassFilter designs a sinc low-pass filter windowed with a Hamming
// window, cutoff at the output Nyquist frequency, normalized to unit DC
// gain.
func lowPassFilter(ratio float64, taps int) []float32 {
	cutoff := ratio * 0.5
	filter := make([]float32, taps)
	for i := 0; i < taps; i++ {
		n := float64(i) - float64(taps-1)/2.0
		if n == 0 {
			filter[i] = float32(2.0 * cutoff)
		} else {
			sinc := math.Sin(2.0*math.Pi*cutoff*n) / (math.Pi * n)
			window := 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/float64(taps-1))
			filter[i] = float32(sinc * window)
		}
	}
	var sum float32
	for _, f := range filter {
		sum += f
	}
	for i := range filter {
		filter[i] /= sum
	}
	return filter
}

// resample converts input samples at the resampler's configured ratio.
func (r *resampler) resample(input []int16) []int16 {
	if r.ratio == 1.0 || len(input) == 0 {
		return input
	}
	if r.ratio < 1.0 {
		return r.downsample(input)
	}
	return r.upsample(input)
}

// upsample uses linear interpolation.
func (r *resampler) upsample(input []int16) []int16 {
	outputLen := int(float64(len(input)) * r.ratio)
	output := make([]int16, outputLen)

	for i := 0; i < outputLen; i++ {
		srcPos := float64(i) / r.ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		sample1 := r.lastSample
		if srcIdx < len(input) {
			sample1 = input[srcIdx]
		}

		sample2 := sample1
		if srcIdx+1 < len(input) {
			sample2 = input[srcIdx+1]
		} else if srcIdx < len(input) {
			sample2 = input[len(input)-1]
		}

		output[i] = sample1 + int16(float64(sample2-sample1)*frac)
	}

	r.lastSample = input[len(input)-1]
	return output
}

// downsample runs input through the anti-aliasing low-pass filter before
// decimating, carrying filterLen samples of history across calls so the
// filter has context right at each call boundary.
func (r *resampler) downsample(input []int16) []int16 {
	outputLen := int(float64(len(input)) * r.ratio)
	output := make([]int16, outputLen)
	filterLen := len(r.filter)

	combined := make([]float32, len(r.history)+len(input))
	copy(combined, r.history)
	for i, s := range input {
		combined[len(r.history)+i] = float32(s)
	}

	for i := 0; i < outputLen; i++ {
		srcPos := float64(i) / r.ratio
		srcIdx := int(srcPos) + len(r.history)

		var sample float32
		for j := 0; j < filterLen; j++ {
			idx := srcIdx - filterLen/2 + j
			if idx >= 0 && idx < len(combined) {
				sample += combined[idx] * r.filter[j]
			}
		}
		output[i] = clampInt16(sample)
	}

	if len(input) >= filterLen {
		copy(r.history, floatSamples(input[len(input)-filterLen:]))
	} else {
		shift := filterLen - len(input)
		copy(r.history, r.history[len(input):])
		copy(r.history[shift:], floatSamples(input))
	}

	return output
}

func floatSamples(input []int16) []float32 {
	out := make([]float32, len(input))
	for i, s := range input {
		out[i] = float32(s)
	}
	return out
}

func clampInt16(v float32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
