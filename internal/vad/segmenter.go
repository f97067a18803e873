package vad

import (
	"time"

	"github.com/rs/zerolog"
)

// Timing constants, expressed as frame counts derived from the fixed
// 20 ms, 16 kHz, mono frame format.
const (
	SampleRate   = 16000
	FrameMs      = 20
	FrameSamples = SampleRate * FrameMs / 1000 // 320

	// PreRollFrames is how many of the most recent frames are kept before
	// speech is detected (300 ms), so the first phoneme isn't clipped.
	PreRollFrames = 300 / FrameMs // 15

	// VoicedStartFrames is the run of consecutive voiced frames required
	// to transition into speech (60 ms).
	VoicedStartFrames = 3

	// UnvoicedStopFrames is the run of consecutive unvoiced frames
	// required to finalize an utterance (400 ms).
	UnvoicedStopFrames = 400 / FrameMs // 20

	MinUtteranceDuration = 200 * time.Millisecond
	MaxUtteranceDuration = 10 * time.Second

	// CooldownFrames covers the tail of speaker latency after the
	// playback process returns: ceil(600ms / 20ms).
	CooldownFrames = 600 / FrameMs // 30
)

// EventKind describes what happened as a result of processing one frame.
type EventKind int

const (
	// EventNone means no state transition happened this frame.
	EventNone EventKind = iota
	// EventSpeechStart means the segmenter just entered speech.
	EventSpeechStart
	// EventSpeechEnd means an utterance was finalized. Utterance is valid
	// (non-nil) only when Dropped is false.
	EventSpeechEnd
)

// Event is the result of processing a single frame.
type Event struct {
	Kind      EventKind
	Utterance []int16 // populated only on EventSpeechEnd when not Dropped
	Dropped   bool    // true when a finalized utterance was below MinUtteranceDuration
}

// Segmenter implements the hysteresis + pre-roll speech segmentation state
// machine. It is a pure accumulator over int16 frames: it has no knowledge
// of devices, queues, or the pipeline state machine. The audio capture
// loop drives it one frame at a time and reacts to the events it returns.
type Segmenter struct {
	detector Detector
	logger   zerolog.Logger

	preRoll    [][]int16
	preRollPos int
	preRollLen int

	inSpeech    bool
	voicedRun   int
	unvoicedRun int
	utterance   []int16
}

// NewSegmenter builds a segmenter around the given detector. Frame-level
// tracing is disabled by default; call SetLogger to enable it.
func NewSegmenter(detector Detector) *Segmenter {
	return &Segmenter{
		detector: detector,
		logger:   zerolog.Nop(),
		preRoll:  make([][]int16, PreRollFrames),
	}
}

// SetLogger attaches a zerolog logger for per-event debug tracing
// (speech-start/speech-end), kept separate from the transcript/reply
// lines on stdout.
func (s *Segmenter) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Reset clears all segmentation accumulators: in-speech flag, voiced run,
// unvoiced run, utterance buffer, and pre-roll buffer. Called on every
// entry into the mic-gate region.
func (s *Segmenter) Reset() {
	s.inSpeech = false
	s.voicedRun = 0
	s.unvoicedRun = 0
	s.utterance = nil
	s.preRollPos = 0
	s.preRollLen = 0
	for i := range s.preRoll {
		s.preRoll[i] = nil
	}
}

// pushPreRoll appends frame to the pre-roll ring, keeping only the most
// recent PreRollFrames frames.
func (s *Segmenter) pushPreRoll(frame []int16) {
	cp := make([]int16, len(frame))
	copy(cp, frame)
	s.preRoll[s.preRollPos] = cp
	s.preRollPos = (s.preRollPos + 1) % PreRollFrames
	if s.preRollLen < PreRollFrames {
		s.preRollLen++
	}
}

// preRollSamples returns the pre-roll buffer contents in chronological
// order, oldest first.
func (s *Segmenter) preRollSamples() []int16 {
	var out []int16
	start := (s.preRollPos - s.preRollLen + PreRollFrames) % PreRollFrames
	for i := 0; i < s.preRollLen; i++ {
		out = append(out, s.preRoll[(start+i)%PreRollFrames]...)
	}
	return out
}

// Process runs one frame through the detector and hysteresis logic. frame
// must be exactly FrameSamples int16 samples.
func (s *Segmenter) Process(frame []int16) (Event, error) {
	s.pushPreRoll(frame)

	decision := s.detector.Detect(frame)
	if decision == Fatal {
		return Event{}, ErrDetectorFatal
	}
	voiced := decision == Voiced

	if !s.inSpeech {
		if voiced {
			s.voicedRun++
		} else {
			s.voicedRun = 0
		}

		if s.voicedRun >= VoicedStartFrames {
			s.inSpeech = true
			s.unvoicedRun = 0
			s.utterance = s.preRollSamples()
			s.logger.Debug().Int("preRollSamples", len(s.utterance)).Msg("speech start")
			return Event{Kind: EventSpeechStart}, nil
		}
		return Event{Kind: EventNone}, nil
	}

	s.utterance = append(s.utterance, frame...)

	if voiced {
		s.unvoicedRun = 0
	} else {
		s.unvoicedRun++
	}

	if s.unvoicedRun >= UnvoicedStopFrames {
		finalized := s.utterance
		duration := time.Duration(len(finalized)) * time.Second / SampleRate

		s.inSpeech = false
		s.voicedRun = 0
		s.unvoicedRun = 0
		s.utterance = nil

		if duration < MinUtteranceDuration {
			s.logger.Debug().Dur("duration", duration).Msg("speech end, dropped (too short)")
			return Event{Kind: EventSpeechEnd, Dropped: true}, nil
		}
		if duration > MaxUtteranceDuration {
			finalized = finalized[len(finalized)-int(MaxUtteranceDuration.Seconds()*SampleRate):]
		}
		s.logger.Debug().Dur("duration", duration).Int("samples", len(finalized)).Msg("speech end")
		return Event{Kind: EventSpeechEnd, Utterance: finalized}, nil
	}

	return Event{Kind: EventNone}, nil
}

// InSpeech reports whether the segmenter currently considers itself inside
// a speech span.
func (s *Segmenter) InSpeech() bool {
	return s.inSpeech
}
