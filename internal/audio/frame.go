// Package audio drives the real-time PCM capture loop: reading fixed-size
// frames from the microphone, running them through the VAD segmenter, and
// enforcing the mic gate that prevents the assistant from hearing itself.
package audio

import "github.com/agalue/edna/internal/vad"

// Capture rate and frame geometry are fixed: 16kHz mono S16LE, 20ms
// frames. Mirrored from internal/vad so the two packages can't drift.
const (
	SampleRate   = vad.SampleRate
	FrameMs      = vad.FrameMs
	FrameSamples = vad.FrameSamples
)

// Frame is one fixed-duration block of 16-bit signed little-endian mono
// samples. It is immutable once produced.
type Frame []int16
