package vad

import "math"

var _ Detector = (*EnergyDetector)(nil)

// EnergyDetector is a lightweight root-mean-square energy classifier: a
// frame is Voiced when its RMS level exceeds a threshold derived from the
// configured aggressiveness. It requires no native model and is meant as
// the in-tree default until a production detector (Silero, WebRTC) is
// wired in behind the same Detector interface.
type EnergyDetector struct {
	threshold float64
}

// aggressivenessThresholds maps the opaque 0-3 knob to an RMS threshold in
// 16-bit PCM units, most to least permissive: 0 trips on the faintest
// sound, 3 requires a much louder signal before calling a frame Voiced.
var aggressivenessThresholds = [4]float64{150, 300, 600, 1200}

// NewEnergyDetector builds an EnergyDetector for the given aggressiveness
// (0-3). Values outside that range fall back to 2.
func NewEnergyDetector(aggressiveness int) *EnergyDetector {
	if aggressiveness < 0 || aggressiveness > 3 {
		aggressiveness = 2
	}
	return &EnergyDetector{threshold: aggressivenessThresholds[aggressiveness]}
}

// Detect classifies frame by RMS energy against the configured threshold.
func (d *EnergyDetector) Detect(frame []int16) Decision {
	if len(frame) == 0 {
		return Unvoiced
	}
	var sumSquares float64
	for _, s := range frame {
		v := float64(s)
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(frame)))
	if rms >= d.threshold {
		return Voiced
	}
	return Unvoiced
}
