package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func toneFrame(amplitude int16) []int16 {
	frame := make([]int16, FrameSamples)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = amplitude
		} else {
			frame[i] = -amplitude
		}
	}
	return frame
}

func TestEnergyDetectorSilenceIsUnvoiced(t *testing.T) {
	d := NewEnergyDetector(2)
	assert.Equal(t, Unvoiced, d.Detect(make([]int16, FrameSamples)))
}

func TestEnergyDetectorLoudToneIsVoiced(t *testing.T) {
	d := NewEnergyDetector(2)
	assert.Equal(t, Voiced, d.Detect(toneFrame(5000)))
}

func TestEnergyDetectorEmptyFrameIsUnvoiced(t *testing.T) {
	d := NewEnergyDetector(2)
	assert.Equal(t, Unvoiced, d.Detect(nil))
}

func TestEnergyDetectorHigherAggressivenessRequiresLouderSignal(t *testing.T) {
	frame := toneFrame(400)
	lenient := NewEnergyDetector(0)
	strict := NewEnergyDetector(3)
	assert.Equal(t, Voiced, lenient.Detect(frame))
	assert.Equal(t, Unvoiced, strict.Detect(frame))
}

func TestNewEnergyDetectorOutOfRangeAggressivenessFallsBackToTwo(t *testing.T) {
	d := NewEnergyDetector(99)
	assert.Equal(t, aggressivenessThresholds[2], d.threshold)
}
