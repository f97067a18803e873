package audio

import (
	"fmt"

	"github.com/agalue/edna/internal/fsm"
	"github.com/agalue/edna/internal/pipeline"
	"github.com/agalue/edna/internal/vad"
	"github.com/rs/zerolog"
)

// Loop is the main capture loop: read one frame, decide whether the mic
// is gated, and otherwise drive the VAD segmenter and dispatch its events
// onto the state machine and utterance queue. It owns no goroutine of its
// own — Run blocks the caller's goroutine until stop is closed or a fatal
// read/detector error occurs.
type Loop struct {
	source     Source
	segmenter  *vad.Segmenter
	machine    *fsm.Machine
	utterances *pipeline.UtteranceQueue
	logger     zerolog.Logger

	cooldown    int
	wasSpeaking bool
}

// NewLoop wires a Loop around its collaborators. Frame-level gate tracing
// is disabled by default; call SetLogger to enable it.
func NewLoop(source Source, segmenter *vad.Segmenter, machine *fsm.Machine, utterances *pipeline.UtteranceQueue) *Loop {
	return &Loop{source: source, segmenter: segmenter, machine: machine, utterances: utterances, logger: zerolog.Nop()}
}

// SetLogger attaches a zerolog logger used for debug-level gate tracing
// (mic-gated/cooldown transitions), separate from the state machine's own
// transition log.
func (l *Loop) SetLogger(logger zerolog.Logger) {
	l.logger = logger
}

// Run reads frames until stop is closed or a fatal error occurs. A closed
// stop channel is treated as a clean exit, not an error.
func (l *Loop) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := l.RunOnce(); err != nil {
			// A read that fails because the device was closed during
			// shutdown is part of the clean exit, not a capture fault.
			select {
			case <-stop:
				return nil
			default:
			}
			return err
		}
	}
}

// RunOnce processes exactly one frame: read (with a single retry on
// failure), gate, and — if not gated — run it through the segmenter and
// react to whatever event comes back.
func (l *Loop) RunOnce() error {
	frame, err := l.source.ReadFrame()
	if err != nil {
		frame, err = l.source.ReadFrame()
		if err != nil {
			return fmt.Errorf("audio: capture fatal after retry: %w", err)
		}
	}

	state := l.machine.State()
	speaking := state == fsm.Speaking

	gated := speaking || l.cooldown > 0
	if l.wasSpeaking && !speaking {
		l.cooldown = vad.CooldownFrames
		l.logger.Debug().Int("cooldownFrames", l.cooldown).Msg("entering playback cooldown")
		gated = true
	}
	l.wasSpeaking = speaking

	if gated {
		if l.cooldown > 0 {
			l.cooldown--
		}
		l.segmenter.Reset()
		l.utterances.Clear()
		return nil
	}

	event, err := l.segmenter.Process(frame)
	if err != nil {
		return fmt.Errorf("audio: vad fatal: %w", err)
	}

	switch event.Kind {
	case vad.EventSpeechStart:
		l.machine.Dispatch(fsm.SpeechStart, "")
	case vad.EventSpeechEnd:
		l.machine.Dispatch(fsm.SpeechEndQueued, "")
		if !event.Dropped {
			l.utterances.Replace(event.Utterance)
		}
	}
	return nil
}
