package speech

import (
	"context"
	"log"

	"github.com/agalue/edna/internal/fsm"
)

// synthesizer and player are satisfied by *Synthesizer and *Player; kept
// as interfaces here so tests can stub both without subprocesses.
type synthesizer interface {
	Synthesize(text string) (string, error)
	Enabled() bool
}

type player interface {
	Play(ctx context.Context, wavPath string) error
}

// Stage is the Speech stage. It is invoked inline from the Brain worker's
// goroutine, never on its own goroutine.
type Stage struct {
	synth   synthesizer
	player  player
	machine *fsm.Machine
}

// NewStage wires a Stage around its collaborators.
func NewStage(synth synthesizer, player player, machine *fsm.Machine) *Stage {
	return &Stage{synth: synth, player: player, machine: machine}
}

// Speak splits reply into sentences, synthesizes and plays each in turn,
// and dispatches TtsDone once all chunks have been attempted — regardless
// of whether any chunk failed.
func (s *Stage) Speak(ctx context.Context, reply string) {
	defer s.machine.Dispatch(fsm.TtsDone, "")

	sentences := SplitSentences(reply)
	if len(sentences) == 0 {
		return
	}

	for _, sentence := range sentences {
		if !s.synth.Enabled() {
			log.Printf("EDNA (text-only, synthesis disabled): %s", sentence)
			continue
		}

		wavPath, err := s.synth.Synthesize(sentence)
		if err != nil {
			log.Printf("speech: synthesis failed for %q: %v", sentence, err)
			continue
		}

		if err := s.player.Play(ctx, wavPath); err != nil {
			log.Printf("speech: playback failed for %q: %v", sentence, err)
			continue
		}
	}
}
