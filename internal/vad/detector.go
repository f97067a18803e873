// Package vad implements frame-by-frame voice activity segmentation with
// hysteresis and pre-roll buffering. The detector itself is an opaque,
// synchronous capability — this package only owns the hysteresis state
// machine built on top of it.
package vad

import "fmt"

// Decision is the ternary result of classifying a single frame.
type Decision int

const (
	// Unvoiced means the frame contains no detected speech.
	Unvoiced Decision = 0
	// Voiced means the frame contains detected speech.
	Voiced Decision = 1
	// Fatal means the detector itself failed; the caller must treat this
	// as unrecoverable for the current process.
	Fatal Decision = -1
)

// Detector classifies one fixed-duration PCM frame at a time. Aggressiveness
// is whatever scale the concrete implementation defines (commonly 0-3);
// this package treats it as an opaque knob passed through at construction.
type Detector interface {
	// Detect returns Voiced, Unvoiced, or Fatal for one frame of int16
	// samples. Implementations must be safe to call repeatedly from the
	// single goroutine that owns the segmenter; no internal concurrency
	// is required or assumed.
	Detect(frame []int16) Decision
}

// ErrDetectorFatal wraps a Fatal decision returned by the underlying
// detector; it is fatal to the capture loop, not recoverable per-frame.
var ErrDetectorFatal = fmt.Errorf("vad: detector returned fatal decision")
