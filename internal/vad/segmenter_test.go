package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDetector replays a fixed sequence of decisions, one per frame.
type scriptedDetector struct {
	script []Decision
	i      int
}

func (d *scriptedDetector) Detect(frame []int16) Decision {
	if d.i >= len(d.script) {
		return Unvoiced
	}
	dec := d.script[d.i]
	d.i++
	return dec
}

func silentFrame() []int16 { return make([]int16, FrameSamples) }

func framesOf(n int, dec Decision) []Decision {
	out := make([]Decision, n)
	for i := range out {
		out[i] = dec
	}
	return out
}

// TestPureSilenceNeverTransitions covers scenario 1: 5s of silence yields no
// speech-start and an empty pipeline.
func TestPureSilenceNeverTransitions(t *testing.T) {
	framesIn5s := 5 * 1000 / FrameMs
	det := &scriptedDetector{script: framesOf(framesIn5s, Unvoiced)}
	seg := NewSegmenter(det)

	for i := 0; i < framesIn5s; i++ {
		ev, err := seg.Process(silentFrame())
		require.NoError(t, err)
		assert.Equal(t, EventNone, ev.Kind)
	}
	assert.False(t, seg.InSpeech())
}

// TestBriefPopDoesNotTriggerSpeechStart covers scenario 2: 40ms (2 frames)
// of voiced audio surrounded by silence never reaches the 3-frame threshold.
func TestBriefPopDoesNotTriggerSpeechStart(t *testing.T) {
	script := append(append(framesOf(10, Unvoiced), framesOf(2, Voiced)...), framesOf(10, Unvoiced)...)
	det := &scriptedDetector{script: script}
	seg := NewSegmenter(det)

	for range script {
		ev, err := seg.Process(silentFrame())
		require.NoError(t, err)
		assert.NotEqual(t, EventSpeechStart, ev.Kind)
	}
	assert.False(t, seg.InSpeech())
}

// TestShortPhraseProducesOneStartAndOneEnd covers scenario 3: 300ms silence,
// 500ms voiced, 500ms silence yields exactly one SpeechStart after 60ms of
// voice and one finalized utterance of ~800ms (500ms speech + 300ms preroll).
func TestShortPhraseProducesOneStartAndOneEnd(t *testing.T) {
	silenceFrames := 300 / FrameMs
	voicedFrames := 500 / FrameMs
	tailSilenceFrames := 500 / FrameMs

	script := append(framesOf(silenceFrames, Unvoiced), framesOf(voicedFrames, Voiced)...)
	script = append(script, framesOf(tailSilenceFrames, Unvoiced)...)
	det := &scriptedDetector{script: script}
	seg := NewSegmenter(det)

	var starts, ends int
	var utterance []int16
	var dropped bool

	for i := 0; i < len(script); i++ {
		// Frame content does not matter: the scripted detector decides
		// voiced/unvoiced, so every frame is silent.
		frame := silentFrame()
		ev, err := seg.Process(frame)
		require.NoError(t, err)
		switch ev.Kind {
		case EventSpeechStart:
			starts++
		case EventSpeechEnd:
			ends++
			utterance = ev.Utterance
			dropped = ev.Dropped
		}
	}

	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.False(t, dropped)

	gotMs := len(utterance) * FrameMs / FrameSamples
	assert.InDelta(t, 800, gotMs, 20)
}

// TestResetClearsAccumulators exercises the gating reset contract: any
// suspended accumulator must be reset on every entry into the mic-gate
// region.
func TestResetClearsAccumulators(t *testing.T) {
	det := &scriptedDetector{script: framesOf(VoicedStartFrames, Voiced)}
	seg := NewSegmenter(det)

	for i := 0; i < VoicedStartFrames; i++ {
		_, err := seg.Process(silentFrame())
		require.NoError(t, err)
	}
	require.True(t, seg.InSpeech())

	seg.Reset()
	assert.False(t, seg.InSpeech())
	assert.Empty(t, seg.preRollSamples())
}

// TestUnvoicedStopDropsBelowMinimumDuration ensures an utterance shorter
// than 200ms never reaches the queue — it's reported as Dropped instead.
func TestUnvoicedStopDropsBelowMinimumDuration(t *testing.T) {
	// 3 voiced frames (60ms, just enough to start) then immediately 20
	// unvoiced frames (400ms) to stop: total speech span is only 60ms,
	// well under the 200ms floor.
	script := append(framesOf(VoicedStartFrames, Voiced), framesOf(UnvoicedStopFrames, Unvoiced)...)
	det := &scriptedDetector{script: script}
	seg := NewSegmenter(det)

	var gotEnd Event
	for range script {
		ev, err := seg.Process(silentFrame())
		require.NoError(t, err)
		if ev.Kind == EventSpeechEnd {
			gotEnd = ev
		}
	}
	assert.True(t, gotEnd.Dropped)
	assert.Nil(t, gotEnd.Utterance)
}

// TestFatalDetectorIsPropagated confirms a -1 decision is reported as an
// error rather than silently treated as unvoiced.
func TestFatalDetectorIsPropagated(t *testing.T) {
	det := &scriptedDetector{script: []Decision{Fatal}}
	seg := NewSegmenter(det)
	_, err := seg.Process(silentFrame())
	assert.ErrorIs(t, err, ErrDetectorFatal)
}
