package asr

import (
	"log"
	"strings"

	"github.com/agalue/edna/internal/fsm"
	"github.com/agalue/edna/internal/pipeline"
	"github.com/fatih/color"
)

// MinTranscriptLen is the shortest transcript treated as real speech; a
// shorter result is dispatched as blank audio.
const MinTranscriptLen = 2

// Stage is the dedicated ASR worker: it blocks on the utterance queue,
// transcribes the newest utterance, strips the invocation prefix, and
// enqueues the resulting command.
type Stage struct {
	transcriber Transcriber
	machine     *fsm.Machine
	utterances  *pipeline.UtteranceQueue
	commands    *pipeline.CommandQueue
	verbose     bool
}

// NewStage wires a Stage around its collaborators.
func NewStage(transcriber Transcriber, machine *fsm.Machine, utterances *pipeline.UtteranceQueue, commands *pipeline.CommandQueue, verbose bool) *Stage {
	return &Stage{
		transcriber: transcriber,
		machine:     machine,
		utterances:  utterances,
		commands:    commands,
		verbose:     verbose,
	}
}

// Run blocks on the utterance queue until stop is closed, processing one
// utterance at a time.
func (s *Stage) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case samples, ok := <-s.utterances.Chan():
			if !ok {
				return
			}
			s.process(samples)
		}
	}
}

func (s *Stage) process(samples []int16) {
	text, err := s.transcriber.Transcribe(ToFloat32(samples))
	if err != nil {
		// A transcriber failure is treated as blank audio, not a fatal
		// condition.
		log.Printf("[%s] ASR error, treating as blank audio: %v", pipeline.TurnID(), err)
		s.machine.Dispatch(fsm.NoCommand, "asr failure")
		return
	}

	text = strings.TrimSpace(text)
	if text == BlankAudioSentinel {
		text = ""
	}

	if len(text) < MinTranscriptLen {
		s.machine.Dispatch(fsm.NoCommand, "blank audio")
		return
	}

	command, matched := StripInvocation(text)
	if !matched {
		s.machine.Dispatch(fsm.NoCommand, "ignored transcript")
		return
	}
	if command == "" {
		s.machine.Dispatch(fsm.NoCommand, "invocation only")
		return
	}

	color.Cyan("ASR: %s", text)
	if s.verbose {
		log.Printf("[%s] ASR transcript=%q command=%q", pipeline.TurnID(), text, command)
	}

	s.machine.Dispatch(fsm.TranscriptReady, "")
	s.commands.Enqueue(command)
}
